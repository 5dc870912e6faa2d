package main

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/clock"
	"github.com/smallbiznis/courtside/internal/config"
	"github.com/smallbiznis/courtside/internal/migration"
	"github.com/smallbiznis/courtside/internal/observability"
	"github.com/smallbiznis/courtside/internal/server"
	"github.com/smallbiznis/courtside/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNode, err)
	}
	return node, nil
}
