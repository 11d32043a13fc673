package main

import (
	"context"
	"fmt"

	"field-report/internal/cache"
	"field-report/internal/config"
	"field-report/internal/database"
	"field-report/internal/server"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)

	database.Init(cfg.DBDSN, log)
	if err := database.EnsureAdmin(database.DB, log, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	rdb := cache.Connect(context.Background(), cfg.RedisAddress, log)
	if rdb != nil {
		defer rdb.Close()
	}
	statusCache := cache.NewStore(rdb, cfg.StatusCacheTTL)

	r := server.NewRouter(cfg, database.DB, statusCache, log)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Infof("starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
