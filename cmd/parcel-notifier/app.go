package main

import (
	"context"
	"time"

	"github.com/BearBump/ParcelDesk/config"
	"github.com/BearBump/ParcelDesk/internal/broker/kafka"
	"github.com/BearBump/ParcelDesk/internal/integrations/webhook"
	"github.com/BearBump/ParcelDesk/internal/services/notifier"
	"github.com/BearBump/ParcelDesk/internal/storage/rediskv"
)

const (
	defaultTopic         = "parcel.changed"
	defaultConsumerGroup = "parcel-notifier"
	defaultNotifierAddr  = ":8082"
	defaultPerMinute     = 30
)

type notifierFactories struct {
	newConsumer    func(cfg *config.Config) (src notifier.Source, closeFn func(), err error)
	newRateLimiter func(cfg *config.Config) notifier.RateLimiter
	newSink        func(cfg *config.Config) notifier.Sink
}

func defaultNotifierFactories() notifierFactories {
	return notifierFactories{
		newConsumer: func(cfg *config.Config) (notifier.Source, func(), error) {
			topic := cfg.Kafka.ParcelChangedTopicName
			if topic == "" {
				topic = defaultTopic
			}
			group := cfg.ParcelDesk.NotifierConsumerGroup
			if group == "" {
				group = defaultConsumerGroup
			}
			c := kafka.NewConsumer(cfg.Kafka.Brokers(), topic, group)
			return c, func() { _ = c.Close() }, nil
		},
		newRateLimiter: func(cfg *config.Config) notifier.RateLimiter {
			if cfg.Redis.Host == "" {
				return nil
			}
			return rediskv.NewRateLimiter(cfg.Redis.Addr())
		},
		newSink: func(cfg *config.Config) notifier.Sink {
			if cfg.ParcelDesk.NotifierWebhookURL != "" {
				return webhook.New(cfg.ParcelDesk.NotifierWebhookURL, cfg.ParcelDesk.NotifierWebhookAPIKey)
			}
			return notifier.LogSink{}
		},
	}
}

type notifierOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)
}

// RunParcelNotifier consumes parcel changes and serves the admin HTTP endpoints
// until ctx is done or one of them fails.
func RunParcelNotifier(ctx context.Context, cfg *config.Config, f notifierFactories, opts notifierOpts) error {
	perMinute := int64(cfg.ParcelDesk.NotifierRateLimitPerMinute)
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	if opts.httpAddr == "" {
		opts.httpAddr = cfg.ParcelDesk.NotifierHTTPAddr
	}
	if opts.httpAddr == "" {
		opts.httpAddr = defaultNotifierAddr
	}

	src, closeFn, err := f.newConsumer(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	n := notifier.New(f.newSink(cfg), f.newRateLimiter(cfg)).
		WithSettings(perMinute, time.Second)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runNotifierHTTPServer(ctx, notifierHTTPOpts{
			httpAddr:    opts.httpAddr,
			swaggerPath: opts.swaggerPath,
			onListen:    opts.onListen,
			notifier:    n,
			cfg:         cfg,
		})
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- n.Run(ctx, src) }()

	select {
	case err := <-runErr:
		cancel()
		<-httpErr
		return err
	case err := <-httpErr:
		cancel()
		if rerr := <-runErr; err == nil {
			return rerr
		}
		return err
	}
}
