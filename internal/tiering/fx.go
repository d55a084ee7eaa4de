package tiering

import (
	"github.com/smallbiznis/tourhub/internal/ratelimit"
	"github.com/smallbiznis/tourhub/internal/tiering/repository"
	"github.com/smallbiznis/tourhub/internal/tiering/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tiering.service",
	fx.Provide(repository.Provide),
	fx.Provide(provideLocker),
	fx.Provide(service.New),
)

// provideLocker keeps a missing Redis client from turning into a non-nil interface.
func provideLocker(locker *ratelimit.Locker) service.VendorLocker {
	if locker == nil {
		return nil
	}
	return locker
}
