// Package sender wires the report-sender binary.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/employee-suite/employee-suite/internal/cache"
	"github.com/employee-suite/employee-suite/internal/config"
	"github.com/employee-suite/employee-suite/internal/lib/smtp"
	"github.com/employee-suite/employee-suite/internal/lib/tokencrypt"
	"github.com/employee-suite/employee-suite/internal/rabbitmq"
	reportservice "github.com/employee-suite/employee-suite/internal/services/report"
	senderservice "github.com/employee-suite/employee-suite/internal/services/sender"
	"github.com/employee-suite/employee-suite/internal/shopify"
	"github.com/employee-suite/employee-suite/internal/storage/repository"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	db            *repository.Storage
	logger        *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetReportQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	crypter, err := tokencrypt.New(cfg.TokenEncryptionKey)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	shopClient := shopify.NewClient(cfg.Shopify.APIKey, cfg.Shopify.APISecret,
		cfg.Shopify.APIVersion, cfg.Shopify.TestCharges)
	reportService := reportservice.New(db, shopClient, cacheRedis, crypter, logger)
	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.New(reportService, db, transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		db:            db,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumeMessages(ctx, a.ch, "reports.deliver", func(body []byte) error {
		return a.senderService.DeliverReport(ctx, body)
	})
	if err != nil {
		return err
	}

	<-ctx.Done()

	a.logger.Info("shutting down sender service")
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	_ = a.db.DB.Close()
	return nil
}
