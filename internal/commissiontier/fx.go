package commissiontier

import (
	"github.com/smallbiznis/tourhub/internal/commissiontier/repository"
	"github.com/smallbiznis/tourhub/internal/commissiontier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commissiontier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
