package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/app"
	"github.com/grbellar/lore-tracker-sub000/internal/authpw"
	"github.com/grbellar/lore-tracker-sub000/internal/config"
	"github.com/grbellar/lore-tracker-sub000/internal/email"
	"github.com/grbellar/lore-tracker-sub000/internal/gitrepo"
	"github.com/grbellar/lore-tracker-sub000/internal/graph"
	"github.com/grbellar/lore-tracker-sub000/internal/lore"
	"github.com/grbellar/lore-tracker-sub000/internal/media"
	"github.com/grbellar/lore-tracker-sub000/internal/search"
	"github.com/grbellar/lore-tracker-sub000/internal/session"
	"github.com/grbellar/lore-tracker-sub000/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
		log.Fatalf("failed to create repos dir: %v", err)
	}

	accounts := store.NewPostgresStore(db)

	graphStore, err := graph.Open(ctx, graph.Config{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUsername,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
		MaxPool:  cfg.Neo4jMaxPool,
	})
	if err != nil {
		log.Fatalf("neo4j connection failed: %v", err)
	}
	defer graphStore.Close(ctx)

	loreStore := lore.NewStore(graphStore)
	notes := gitrepo.New(cfg.ReposDir)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewGraphScan(graphStore))

	var mediaStore *media.Store
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		mediaStore, err = media.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("minio client failed: %v", err)
		}
		log.Printf("Storing entity images in MinIO bucket %s", cfg.MinioBucket)
	} else {
		log.Printf("MinIO not configured; image endpoints disabled")
	}

	// Refresh tokens live in Redis when configured, in Postgres otherwise.
	var refresh app.RefreshStore = accounts
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		refresh = redisStore
		log.Printf("Using Redis for refresh token storage")
	} else {
		log.Printf("Using PostgreSQL for refresh token storage")
	}

	emailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if !emailService.IsConfigured() {
		log.Printf("SMTP not configured; verification and reset tokens returned in responses")
	}
	authService := authpw.NewService(accounts, cfg.BcryptCost, cfg.RequireVerify)

	service := app.New(cfg, accounts, refresh, graphStore, loreStore, searchService, mediaStore, notes, authService, emailService)

	// Rebuild the Meilisearch index from the graph in the background. A
	// no-op when Meilisearch is absent or unhealthy.
	go func() {
		userIDs, err := accounts.ListUserIDs(ctx)
		if err != nil {
			log.Printf("search: list users for reindex failed: %v", err)
			return
		}
		searchService.ReindexUsers(ctx, userIDs)
	}()

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Lore Tracker API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
