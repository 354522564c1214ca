package cmd

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/events"
	"github.com/vibast-solutions/ms-go-book-payments/app/gateway"
	"github.com/vibast-solutions/ms-go-book-payments/app/lock"
	"github.com/vibast-solutions/ms-go-book-payments/app/repository"
	"github.com/vibast-solutions/ms-go-book-payments/app/service"
	"github.com/vibast-solutions/ms-go-book-payments/config"
)

const purchaseGuardPrefix = "book-payments"

// mustCreatePaymentService wires storage, the gateway and the optional Redis
// and AMQP integrations. Redis and AMQP are skipped when unconfigured.
func mustCreatePaymentService() (*config.Config, *service.PaymentService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	paymentRepo := repository.NewPaymentRepository(db)
	logRepo := repository.NewPaymentLogRepository(db)
	bookRepo := repository.NewBookRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)

	mode, err := entity.ParseMode(cfg.Gateway.Mode)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid gateway mode")
	}
	gatewayFactory := gateway.NewFactory(credentialRepo, logRepo, gateway.Config{
		Mode:         mode,
		HTTPTimeout:  cfg.Gateway.HTTPTimeout,
		Language:     cfg.Gateway.Language,
		CallbackPath: cfg.Gateway.CallbackPath,
		PaymentsPath: cfg.Gateway.PaymentsPath,
	})

	paymentService := service.NewPaymentService(
		paymentRepo,
		logRepo,
		bookRepo,
		credentialRepo,
		gatewayFactory,
		cfg.Payments,
	)

	closers := []func(){
		func() {
			if err := db.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close database")
			}
		},
	}

	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := lock.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to redis")
		}
		paymentService.UsePurchaseGuard(lock.NewGuard(rdb, purchaseGuardPrefix))
		closers = append(closers, func() {
			if err := rdb.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close redis")
			}
		})
	}

	if cfg.AMQP.URL != "" {
		publisher, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.SettlementQueue)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to message broker")
		}
		paymentService.UseSettlementPublisher(publisher)
		closers = append(closers, func() {
			if err := publisher.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close message broker connection")
			}
		})
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	return cfg, paymentService, cleanup
}
