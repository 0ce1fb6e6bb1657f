package main

import (
	"context"
	"log"
	"os"
	"time"

	"bankena/internal/api"
	"bankena/internal/auth"
	"bankena/internal/chat"
	"bankena/internal/config"
	"bankena/internal/insight"
	"bankena/internal/models"
	"bankena/internal/redis"
	"bankena/internal/site"
	"bankena/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load(os.Getenv("BANKENA_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := storage.Open(cfg.Server.Database, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, cfg.Server.Database); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	rdb, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("create redis client: %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	factory, err := chat.NewGeminiFactory(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatalf("init gemini client: %v", err)
	}
	insights, err := insight.NewGeminiGenerator(ctx, factory.Client(), cfg.Gemini.Model)
	if err != nil {
		log.Fatalf("init insight model: %v", err)
	}

	history := storage.NewHistoryStore(db)
	persist := func(username string, transcript []models.Message) {
		if err := history.Save(username, transcript); err != nil {
			log.Printf("persist chat history: %v", err)
		}
	}

	registry := site.NewRegistry(factory, persist)
	authService := auth.NewService(rdb, db, 24*time.Hour)
	handlers := api.NewHandler(registry, authService, history, insights)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	if err := router.Run(cfg.Server.Address); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
