package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a bookable tourism listing owned by a vendor.
type Service struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	VendorID  snowflake.ID    `json:"vendor_id" gorm:"column:vendor_id;not null;index"`
	Title     string          `json:"title" gorm:"type:text;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric;not null"`
	Currency  string          `json:"currency" gorm:"type:text;not null"`
	IsActive  bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"not null"`
}

func (Service) TableName() string { return "services" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, service *Service) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Service, error)
}

var ErrNotFound = errors.New("service_not_found")
