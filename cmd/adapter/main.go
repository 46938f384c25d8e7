package main

import (
	"log"

	"github.com/zlomke76-del/solace-adapter/internal/config"
	httpinfra "github.com/zlomke76-del/solace-adapter/internal/infra/http"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	srv, err := httpinfra.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init adapter: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("adapter exited: %v", err)
	}
}
