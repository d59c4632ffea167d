package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/sessions"

	"gostar-portal/core"
)

func main() {
	cfg := core.Load()
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	hasher := core.NewBcryptHasher(cfg.BcryptCost)

	credentials, err := core.NewStaticCredentialStore(cfg, hasher)
	if err != nil {
		log.Fatalf("failed to build credential store: %v", err)
	}
	authService := core.NewCredentialAuthService(credentials, hasher)

	var sessionStore core.SessionStore
	switch cfg.SessionBackend {
	case "redis":
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
		sessionStore = core.NewRedisSessionStore(redisClient)
	case "postgres":
		db, err := core.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		defer db.Close()
		pgStore, err := core.NewPgSessionStore(ctx, db)
		if err != nil {
			log.Fatalf("failed to init session table: %v", err)
		}
		sessionStore = pgStore

		// Expired rows are skipped on read; sweep them out periodically.
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				if n, err := pgStore.PurgeExpired(ctx); err != nil {
					log.Printf("session purge error: %v", err)
				} else if n > 0 {
					log.Printf("purged %d expired sessions", n)
				}
			}
		}()
	case "memory", "":
		sessionStore = core.NewMemorySessionStore()
	default:
		log.Fatalf("unknown session backend %q", cfg.SessionBackend)
	}

	// Gorilla cookie store carries only the opaque session token.
	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionKey))

	router := core.NewRouter(cfg, cookieStore, authService, sessionStore)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting portal on %s (backend=%s env=%s)", addr, cfg.SessionBackend, cfg.AppEnv)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
