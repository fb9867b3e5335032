package main

import (
	"github.com/wfunc/spacerace/config"
	"github.com/wfunc/spacerace/logger"
	"github.com/wfunc/spacerace/monitor"
	"github.com/wfunc/spacerace/persistence"
	"github.com/wfunc/spacerace/room"
	"github.com/wfunc/spacerace/server"
	"github.com/wfunc/spacerace/services"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	var db persistence.Database
	pg := cfg.Database.Postgres
	switch cfg.Database.Driver {
	case "pq":
		db, err = persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		db, err = persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// Monitoring endpoint
	mon := monitor.NewMonitor("spacerace")
	mon.StartServer(cfg.Server.MonitorAddress)

	pacing := room.Pacing{
		RollDelay:    cfg.Game.RollDelay(),
		ResolveDelay: cfg.Game.ResolveDelay(),
		PauseGrace:   cfg.Game.PauseGrace(),
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress,
		services.NewGameService(db), pacing, mon)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
