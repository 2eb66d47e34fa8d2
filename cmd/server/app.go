package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/booking"
	"github.com/codr1/courtbook/internal/checkin"
	"github.com/codr1/courtbook/internal/config"
	"github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/db"
	"github.com/codr1/courtbook/internal/email"
	"github.com/codr1/courtbook/internal/mq"
	"github.com/codr1/courtbook/internal/ratelimit"
	"github.com/codr1/courtbook/internal/scheduler"
)

// app holds the wired services and the connections they own.
type app struct {
	db        *db.DB
	engine    *booking.Engine
	processor *checkin.Processor
	courts    *courts.Service
	sweeper   *scheduler.Sweeper
	limiter   *ratelimit.Limiter
	publisher *mq.Publisher
	notifier  *email.Notifier
	redis     *redis.Client

	// drainTimeout bounds how long Close waits for queued mail.
	drainTimeout time.Duration
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &app{db: database, drainTimeout: cfg.ShutdownTimeout()}

	signer := checkin.NewSigner(cfg.Checkin.TokenKey)
	if !signer.Keyed() {
		log.Warn().Msg("CHECKIN_TOKEN_KEY not set, check-in tokens are unsigned")
	}

	sinks := booking.MultiSink{}
	if cfg.RabbitMQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = publisher
		sinks = append(sinks, publisher)
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("Publishing booking events to RabbitMQ")
	}
	if cfg.Email.Enabled {
		sender, err := email.NewSESClient(ctx, email.SESOptions{
			Region:           cfg.Email.Region,
			FromAddress:      cfg.Email.FromEmail,
			FromName:         cfg.Email.FromName,
			ConfigurationSet: cfg.Email.ConfigurationSet,
			AccessKeyID:      os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey:  os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init email: %w", err)
		}
		a.notifier = email.NewNotifier(database.Queries, sender, signer)
		sinks = append(sinks, a.notifier)
		log.Info().Str("from", cfg.Email.FromEmail).Msg("Booking emails enabled")
	}
	var sink booking.EventSink = booking.NopSink{}
	if len(sinks) > 0 {
		sink = sinks
	}

	a.engine = booking.NewEngine(database,
		booking.WithLocation(loc),
		booking.WithEventSink(sink),
		booking.WithConfirmationPolicy(booking.ConfirmationPolicy{
			OwnerStatus:  booking.Status(cfg.Booking.OwnerStatus),
			PlayerStatus: booking.Status(cfg.Booking.PlayerStatus),
		}),
	)
	a.processor = checkin.NewProcessor(database,
		checkin.WithLocation(loc),
		checkin.WithSigner(signer),
		checkin.WithEventSink(sink),
	)
	a.courts = courts.NewService(database,
		courts.WithLocation(loc),
		courts.WithOverlapPolicy(cfg.Events.OverlapPolicy),
	)
	a.sweeper = scheduler.NewSweeper(database,
		scheduler.WithSweeperLocation(loc),
		scheduler.WithSweeperEventSink(sink),
		scheduler.WithGrace(cfg.SweepGrace()),
		scheduler.WithUnpaidConfirmed(cfg.Sweeper.IncludeUnpaidConfirmed),
		scheduler.WithCompletion(cfg.Sweeper.CompleteAfterEnd),
	)
	a.limiter = ratelimit.New(&ratelimit.Config{
		PerCaller: cfg.Checkin.VerifyPerCallerPerMinute,
		PerIP:     cfg.Checkin.VerifyPerIPPerMinute,
		Window:    time.Minute,
	})

	var locker gocron.Locker
	if cfg.Redis.URL != "" {
		redisLocker, client, err := scheduler.NewRedisLocker(ctx, cfg.Redis.URL, time.Duration(cfg.Redis.LockTTL)*time.Second)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init scheduler lock: %w", err)
		}
		a.redis = client
		locker = redisLocker
		log.Info().Msg("Scheduler jobs use the Redis distributed lock")
	}
	if err := scheduler.Init(locker); err != nil {
		a.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	if a.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.drainTimeout)
		if err := a.notifier.Drain(ctx); err != nil {
			log.Warn().Err(err).Dur("timeout", a.drainTimeout).Msg("Gave up waiting for booking emails")
		}
		cancel()
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close rabbitmq publisher")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}
}
