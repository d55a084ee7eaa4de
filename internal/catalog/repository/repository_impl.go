package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/tourhub/internal/catalog/domain"
	"github.com/smallbiznis/tourhub/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, service *catalogdomain.Service) error {
	return repository.ProvideStore[catalogdomain.Service](db).Create(ctx, service)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Service, error) {
	return repository.ProvideStore[catalogdomain.Service](db).FindOne(ctx, &catalogdomain.Service{ID: id})
}
