package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/licensedesk/royalty/internal/config"
	"github.com/licensedesk/royalty/internal/migration"
	"github.com/licensedesk/royalty/internal/observability"
	"github.com/licensedesk/royalty/internal/server"
	"github.com/licensedesk/royalty/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// HTTP surface plus the engine's domain modules
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
