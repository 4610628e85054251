package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/smallbiznis/clientdir/internal/config"
	"github.com/smallbiznis/clientdir/internal/migration"
	"github.com/smallbiznis/clientdir/internal/observability"
	"github.com/smallbiznis/clientdir/internal/server"
	"github.com/smallbiznis/clientdir/internal/uid"
	"github.com/smallbiznis/clientdir/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(uid.NewGenerator),
		db.Module,
		migration.Module,

		// Domain modules are pulled in by the HTTP server.
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
