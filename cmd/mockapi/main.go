// Command mockapi serves an in-memory Nullscape backend for local use of nsadmin.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/nullscape-admin/internal/apitest"
	"github.com/and161185/nullscape-admin/internal/model"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main seeds the fixture accounts and serves the fake API until interrupted.
func main() {
	addr := flag.String("addr", ":4000", "listen address (nsadmin expects :4000 on localhost)")
	signKey := flag.String("sign-key", "", "HS256 signing key for access tokens")
	accessTTL := flag.Duration("access-ttl", 15*time.Minute, "access token TTL")
	demo := flag.Bool("demo", true, "seed a few demo records")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	opts := []apitest.Option{apitest.WithLogger(logger), apitest.WithAccessTTL(*accessTTL)}
	if *signKey != "" {
		opts = append(opts, apitest.WithSignKey([]byte(*signKey)))
	}
	srv := apitest.New(opts...)
	if err := srv.SeedUsers(); err != nil {
		logger.Fatal("seed users", zap.Error(err))
	}
	if *demo {
		seedDemo(srv)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hs := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", *addr),
			zap.String("admin", apitest.Admin.Email),
			zap.String("editor", apitest.Editor.Email),
		)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			logger.Warn("forced shutdown", zap.Error(err))
			_ = hs.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

func seedDemo(srv *apitest.Server) {
	now := time.Now().UTC().Format(time.RFC3339)
	srv.Seed("/services",
		model.Record{"name": "Web development", "slug": "web-development", "status": "active", "createdAt": now},
		model.Record{"name": "Security audits", "slug": "security-audits", "status": "draft", "createdAt": now},
	)
	srv.Seed("/blog",
		model.Record{"title": "Hello Nullscape", "slug": "hello-nullscape", "status": "published", "category": "news", "publishedAt": now, "createdAt": now},
	)
	srv.Seed("/cms/pages",
		model.Record{"page": "home", "sections": []any{map[string]any{"key": "hero", "content": map[string]any{"title": "Nullscape"}}}, "createdAt": now},
	)
	srv.Seed("/inquiries",
		model.Record{"type": "contact", "name": "Grace Hopper", "email": "grace@example.com", "resolved": false, "createdAt": now},
	)
	srv.Seed("/newsletter",
		model.Record{"email": "reader@example.com", "status": "subscribed", "createdAt": now},
	)
}
