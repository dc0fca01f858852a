package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/ParcelDesk/config"
	"github.com/BearBump/ParcelDesk/internal/services/notifier"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

type notifierHTTPOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	notifier *notifier.Notifier
	cfg      *config.Config
}

func runNotifierHTTPServer(ctx context.Context, opts notifierHTTPOpts) error {
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newNotifierRouter(opts)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func newNotifierRouter(opts notifierHTTPOpts) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.notifier == nil {
			_, _ = w.Write([]byte(`{"error":"notifier not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.notifier.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		// без паролей и адресов, только рабочие настройки
		out := map[string]any{
			"topic":              opts.cfg.Kafka.ParcelChangedTopicName,
			"consumerGroup":      opts.cfg.ParcelDesk.NotifierConsumerGroup,
			"rateLimitPerMinute": opts.cfg.ParcelDesk.NotifierRateLimitPerMinute,
			"rateLimiterEnabled": opts.cfg.Redis.Host != "",
			"webhookEnabled":     opts.cfg.ParcelDesk.NotifierWebhookURL != "",
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	if opts.swaggerPath != "" {
		if fi, err := os.Stat(opts.swaggerPath); err == nil {
			r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Cache-Control", "no-store")
				http.ServeFile(w, r, opts.swaggerPath)
			})
			swaggerURL := fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
			r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
		}
	}

	return r
}
