package main

import (
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tourhub/internal/booking"
	"github.com/smallbiznis/tourhub/internal/catalog"
	"github.com/smallbiznis/tourhub/internal/clock"
	"github.com/smallbiznis/tourhub/internal/commissiontier"
	"github.com/smallbiznis/tourhub/internal/config"
	"github.com/smallbiznis/tourhub/internal/observability"
	"github.com/smallbiznis/tourhub/internal/priceoverride"
	"github.com/smallbiznis/tourhub/internal/pricing"
	"github.com/smallbiznis/tourhub/internal/ratelimit"
	"github.com/smallbiznis/tourhub/internal/scheduler"
	"github.com/smallbiznis/tourhub/internal/tiering"
	"github.com/smallbiznis/tourhub/internal/vendors"
	"github.com/smallbiznis/tourhub/pkg/db"
	"go.uber.org/fx"
)

// Standalone tier worker: runs the cron jobs without the HTTP surface.
// Run it with SCHEDULER_ENABLED=false on the API replicas.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		ratelimit.Module,

		// Domain services required by the tier jobs
		catalog.Module,
		vendors.Module,
		commissiontier.Module,
		priceoverride.Module,
		pricing.Module,
		booking.Module,
		tiering.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
