package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"caseflow/internal/api"
	"caseflow/internal/config"
	"caseflow/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		cancel()
		log.Fatal(err)
	}
	if err := storage.EnsureSchema(ctx, db, cfg.EmbedDim); err != nil {
		cancel()
		log.Fatal(err)
	}
	db.Close()
	cancel()

	h := api.NewServer(cfg)
	log.Printf("caseflow api listening on %s llm_providers=%q embed_providers=%q", cfg.APIAddr, cfg.LLMProviders, cfg.EmbedProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
