package main

import (
	"os"

	"botsub/internal/config"
	"botsub/internal/db"
	"botsub/internal/logger"
)

func main() {
	open := func() (*db.Store, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		conn, err := db.Connect(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		store := db.NewStore(conn, logger.New(cfg.LogLevel))
		return store, func() { conn.Close() }, nil
	}

	if err := newRootCmd(open).Execute(); err != nil {
		os.Exit(1)
	}
}
