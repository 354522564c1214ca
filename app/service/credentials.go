package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/repository"
)

type saveCredentialsRequest interface {
	GetId() uint64
	GetMode() string
	GetProjectId() string
	GetProjectSecret() string
	GetSignatureKey() string
	GetApiBaseUrl() string
	GetIsActive() bool
}

func (s *PaymentService) ListCredentials(ctx context.Context) ([]*entity.CredentialSet, error) {
	return s.credentialRepo.List(ctx)
}

// SaveCredentials creates a set when the request carries no id and updates
// it otherwise. Secrets left empty on update keep their stored value, since
// responses only ever show them masked.
func (s *PaymentService) SaveCredentials(ctx context.Context, req saveCredentialsRequest) (*entity.CredentialSet, error) {
	mode, err := entity.ParseMode(req.GetMode())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	projectID := strings.TrimSpace(req.GetProjectId())
	if projectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidRequest)
	}
	baseURL := strings.TrimSpace(req.GetApiBaseUrl())
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
			return nil, fmt.Errorf("%w: api_base_url must be an absolute http(s) url", ErrInvalidRequest)
		}
	}

	now := time.Now().UTC()
	set := &entity.CredentialSet{CreatedAt: now}
	if req.GetId() > 0 {
		existing, err := s.credentialRepo.FindByID(ctx, req.GetId())
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrCredentialNotFound
		}
		set = existing
	}

	set.Mode = mode
	set.ProjectID = projectID
	set.APIBaseURL = baseURL
	set.IsActive = req.GetIsActive()
	set.UpdatedAt = now
	if secret := strings.TrimSpace(req.GetProjectSecret()); secret != "" {
		set.ProjectSecret = secret
	}
	if key := strings.TrimSpace(req.GetSignatureKey()); key != "" {
		set.SignatureKey = key
	}
	if set.ProjectSecret == "" || set.SignatureKey == "" {
		return nil, fmt.Errorf("%w: project_secret and signature_key are required", ErrInvalidRequest)
	}

	if err := s.credentialRepo.Save(ctx, set); err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return set, nil
}

// TestCredentials proves a set can authenticate by acquiring a token with
// it. Zero selects the active set for the configured mode.
func (s *PaymentService) TestCredentials(ctx context.Context, id uint64) (*entity.CredentialSet, error) {
	var (
		set *entity.CredentialSet
		err error
	)
	if id == 0 {
		set, err = s.gateway.ActiveCredentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
	} else {
		set, err = s.credentialRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if set == nil {
			return nil, ErrCredentialNotFound
		}
	}

	if _, err := s.gateway.OpenWith(set).AcquireToken(ctx); err != nil {
		return set, fmt.Errorf("%w: %s", ErrGatewayUnavailable, gatewayMessage(err))
	}
	return set, nil
}
