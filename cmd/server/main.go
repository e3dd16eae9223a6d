package main

import (
	"bonus-promotion-service/internal/app/server"
	"bonus-promotion-service/internal/config"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel)
	server.Run(cfg)
}
