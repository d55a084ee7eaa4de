package vendors

import (
	"github.com/smallbiznis/tourhub/internal/vendors/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("vendor.repository",
	fx.Provide(repository.Provide),
)
