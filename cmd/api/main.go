package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"personweb.org/internal/auth"
	"personweb.org/internal/httpapi"
	"personweb.org/internal/obs"
	"personweb.org/internal/policy"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("PERSONWEB_PG_DSN")
	if dsn == "" {
		log.Fatal("missing PERSONWEB_PG_DSN")
	}
	secret := os.Getenv("PERSONWEB_AUTH_SECRET")
	if secret == "" {
		log.Fatal("missing PERSONWEB_AUTH_SECRET")
	}

	tokenTTL := 24 * time.Hour
	if raw := os.Getenv("PERSONWEB_TOKEN_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid PERSONWEB_TOKEN_TTL: %v", err)
		}
		tokenTTL = d
	}
	addr := os.Getenv("PERSONWEB_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := auth.NewPGStore(db)
	codec, err := auth.NewCodec([]byte(secret), "personweb")
	if err != nil {
		log.Fatalf("auth codec: %v", err)
	}
	cache, err := auth.NewCache(store, 0)
	if err != nil {
		log.Fatalf("auth cache: %v", err)
	}
	svc, err := auth.NewService(store, codec, cache, tokenTTL)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	resolver := auth.NewResolver(auth.NewValidator(codec), store)
	gate := auth.NewGate(policy.Default(), resolver)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := svc.EnsureBuiltins(ctx); err != nil {
			log.Fatalf("ensure builtin permissions: %v", err)
		}
		cancel()
	}

	api := httpapi.New(gate, svc, store, httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting personweb-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
