package priceoverride

import (
	"github.com/smallbiznis/tourhub/internal/priceoverride/repository"
	"github.com/smallbiznis/tourhub/internal/priceoverride/service"
	"go.uber.org/fx"
)

var Module = fx.Module("priceoverride.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
