package main

import (
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tourhub/internal/booking"
	"github.com/smallbiznis/tourhub/internal/catalog"
	"github.com/smallbiznis/tourhub/internal/clock"
	"github.com/smallbiznis/tourhub/internal/commissiontier"
	"github.com/smallbiznis/tourhub/internal/config"
	"github.com/smallbiznis/tourhub/internal/migration"
	"github.com/smallbiznis/tourhub/internal/observability"
	"github.com/smallbiznis/tourhub/internal/priceoverride"
	"github.com/smallbiznis/tourhub/internal/pricing"
	"github.com/smallbiznis/tourhub/internal/ratelimit"
	"github.com/smallbiznis/tourhub/internal/scheduler"
	"github.com/smallbiznis/tourhub/internal/server"
	"github.com/smallbiznis/tourhub/internal/tiering"
	"github.com/smallbiznis/tourhub/internal/vendors"
	"github.com/smallbiznis/tourhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		ratelimit.Module,

		catalog.Module,
		vendors.Module,
		commissiontier.Module,
		priceoverride.Module,
		pricing.Module,
		booking.Module,
		tiering.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
