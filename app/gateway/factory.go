package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/factory"
)

type CredentialProvider interface {
	FindActive(ctx context.Context, mode entity.Mode) (*entity.CredentialSet, error)
}

type LogWriter interface {
	Create(ctx context.Context, entry *entity.PaymentLog) error
}

type Config struct {
	Mode         entity.Mode
	HTTPTimeout  time.Duration
	Language     string
	CallbackPath string
	PaymentsPath string
}

// Factory hands out short-lived Clients. Credentials are looked up on every
// Open so that an administrator switching the active set takes effect on the
// next operation.
type Factory struct {
	credentials CredentialProvider
	logs        LogWriter
	cfg         Config
	http        *resty.Client
	logger      logrus.FieldLogger
}

func NewFactory(credentials CredentialProvider, logs LogWriter, cfg Config) *Factory {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "ro"
	}
	if cfg.Mode == "" {
		cfg.Mode = entity.ModeTest
	}
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = "/payments/callback"
	}
	if cfg.PaymentsPath == "" {
		cfg.PaymentsPath = "/payments"
	}

	httpClient := resty.New().
		SetTimeout(cfg.HTTPTimeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Factory{
		credentials: credentials,
		logs:        logs,
		cfg:         cfg,
		http:        httpClient,
		logger:      factory.NewModuleLogger("gateway"),
	}
}

func (f *Factory) Mode() entity.Mode {
	return f.cfg.Mode
}

// ActiveCredentials resolves the live set for the configured mode.
func (f *Factory) ActiveCredentials(ctx context.Context) (*entity.CredentialSet, error) {
	set, err := f.credentials.FindActive(ctx, f.cfg.Mode)
	if err != nil {
		return nil, err
	}
	if set == nil {
		err := fmt.Errorf("%w: mode=%s", ErrNoActiveCredentials, f.cfg.Mode)
		writeLog(ctx, f.logs, f.logger, nil, entity.PaymentLogError, err.Error(), nil)
		return nil, err
	}
	return set, nil
}

func (f *Factory) Open(ctx context.Context) (*Client, error) {
	set, err := f.ActiveCredentials(ctx)
	if err != nil {
		return nil, err
	}
	return f.OpenWith(set), nil
}

// OpenWith builds a Client for an explicit set, active or not.
func (f *Factory) OpenWith(set *entity.CredentialSet) *Client {
	return &Client{
		creds:  *set,
		cfg:    f.cfg,
		http:   f.http,
		logs:   f.logs,
		logger: f.logger.WithField("mode", set.Mode),
	}
}
