package entity

import (
	"fmt"
	"strings"
	"time"
)

const DefaultGatewayBaseURL = "https://api.maibmerchants.md/v1"

type Mode string

const (
	ModeTest       Mode = "test"
	ModeProduction Mode = "production"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeTest:
		return ModeTest, nil
	case ModeProduction:
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("unknown gateway mode %q", raw)
	}
}

// CredentialSet is the gateway identity for one mode. At most one set per
// mode is active; the repository enforces this on write.
type CredentialSet struct {
	ID uint64

	Mode          Mode
	ProjectID     string
	ProjectSecret string
	SignatureKey  string
	APIBaseURL    string
	IsActive      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *CredentialSet) BaseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if base == "" {
		return DefaultGatewayBaseURL
	}
	return base
}
