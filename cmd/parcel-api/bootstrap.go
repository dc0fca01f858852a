package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BearBump/ParcelDesk/config"
	recordsapi "github.com/BearBump/ParcelDesk/internal/api/records_api"
	"github.com/BearBump/ParcelDesk/internal/broker/kafka"
	"github.com/BearBump/ParcelDesk/internal/services/records"
	"github.com/BearBump/ParcelDesk/internal/storage/failover"
	"github.com/BearBump/ParcelDesk/internal/storage/filekv"
	"github.com/BearBump/ParcelDesk/internal/storage/pgrecords"
	"github.com/BearBump/ParcelDesk/internal/storage/rediskv"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDataDir        = "./data"
	defaultTopic          = "parcel.changed"
	defaultLoginPerMinute = 10
	redisKeyPrefix        = "parceldesk:"
)

type parcelAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   parcelAPIOpts

	store *records.Store
	rl    recordsapi.RateLimiter
	ready readyCheck

	closers []func()
}

func mustBootstrapParcelAPI() *parcelAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.ParcelDesk.HTTPAddr
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}
	loginPerMinute := int64(cfg.ParcelDesk.LoginRateLimitPerMinute)
	if loginPerMinute <= 0 {
		loginPerMinute = defaultLoginPerMinute
	}

	app := &parcelAPIApp{
		opts: parcelAPIOpts{
			httpAddr:       httpAddr,
			swaggerPath:    swaggerPath,
			loginPerMinute: loginPerMinute,
		},
	}

	backend, err := openBackend(cfg, 60*time.Second)
	if err != nil {
		panic(err)
	}
	app.ready = backend.ready
	app.closers = append(app.closers, backend.close...)

	var publisher records.Publisher
	if cfg.Kafka.Host != "" {
		topic := cfg.Kafka.ParcelChangedTopicName
		if topic == "" {
			topic = defaultTopic
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers(), topic)
		publisher = producer
		app.closers = append(app.closers, func() { _ = producer.Close() })
	}

	if cfg.Redis.Host != "" {
		rl := rediskv.NewRateLimiter(cfg.Redis.Addr())
		app.rl = rl
		app.closers = append(app.closers, func() { _ = rl.Close() })
	}

	app.store = records.New(backend.kv, publisher, storeOptions(cfg))
	if err := app.store.Load(context.Background()); err != nil {
		if !records.IsKind(err, records.KindPersistence) {
			panic(err)
		}
		// данные уже в памяти, не записались только канонические ключи
		slog.Warn("records loaded but not persisted", "error", err.Error())
	}

	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return app
}

func storeOptions(cfg *config.Config) records.Options {
	return records.Options{
		UsersKey:         cfg.Storage.UsersKey,
		ParcelsKey:       cfg.Storage.ParcelsKey,
		LegacyUserKeys:   cfg.Storage.LegacyUserKeys,
		LegacyParcelKeys: cfg.Storage.LegacyParcelKeys,
		MigratedKey:      cfg.Storage.MigratedKey,
		SeedDemo:         cfg.ParcelDesk.SeedDemo,
	}
}

type openedBackend struct {
	kv    records.Backend
	ready readyCheck
	close []func()
}

// openBackend builds the configured key-value backend. With storage.fallback a remote
// backend is wrapped so that failures land in the local directory.
func openBackend(cfg *config.Config, pgWait time.Duration) (openedBackend, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		dir = defaultDataDir
	}

	var out openedBackend
	var remote records.Backend
	switch kind := strings.ToLower(cfg.Storage.Backend); kind {
	case "", "file":
		local, err := filekv.New(dir)
		if err != nil {
			return out, err
		}
		out.kv = local
		return out, nil
	case "redis":
		rs := rediskv.New(cfg.Redis.Addr()).WithPrefix(redisKeyPrefix)
		remote = rs
		out.ready = rs.Ping
		out.close = append(out.close, func() { _ = rs.Close() })
	case "postgres":
		st, err := openPostgresWithRetry(cfg.Database.PostgresConnString(), pgWait)
		if err != nil {
			return out, err
		}
		remote = st
		out.ready = st.Ping
		out.close = append(out.close, st.Close)
	default:
		return out, fmt.Errorf("unknown storage backend %q", kind)
	}

	out.kv = remote
	if cfg.Storage.Fallback {
		local, err := filekv.New(dir)
		if err != nil {
			return out, err
		}
		out.kv = failover.New(remote, local)
		// с локальной копией сервис жив и без remote
		out.ready = nil
	}
	return out, nil
}

func openPostgresWithRetry(connString string, wait time.Duration) (*pgrecords.Storage, error) {
	deadline := time.Now().Add(wait)
	var lastErr error
	for {
		st, err := pgrecords.New(connString)
		if err == nil {
			return st, nil
		}
		lastErr = err
		if !time.Now().Before(deadline) {
			break
		}
		time.Sleep(1 * time.Second)
	}
	return nil, fmt.Errorf("postgres is not ready after %s: %w", wait, lastErr)
}

func (a *parcelAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *parcelAPIApp) Run() error {
	return runParcelAPI(a.ctx, a.opts, a.store, a.rl, a.ready)
}
