package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rutina/internal/app"
	"rutina/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config load failed: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ App init failed: %v", err)
	}

	if err := application.Start(); err != nil {
		log.Fatalf("❌ App start failed: %v", err)
	}
	defer application.Stop()

	waitForShutdown()
	log.Println("👋 Shutting down")
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}
