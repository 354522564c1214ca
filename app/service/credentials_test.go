package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

type credentialsParams struct {
	id            uint64
	mode          string
	projectID     string
	projectSecret string
	signatureKey  string
	apiBaseURL    string
	isActive      bool
}

func (p credentialsParams) GetId() uint64            { return p.id }
func (p credentialsParams) GetMode() string          { return p.mode }
func (p credentialsParams) GetProjectId() string     { return p.projectID }
func (p credentialsParams) GetProjectSecret() string { return p.projectSecret }
func (p credentialsParams) GetSignatureKey() string  { return p.signatureKey }
func (p credentialsParams) GetApiBaseUrl() string    { return p.apiBaseURL }
func (p credentialsParams) GetIsActive() bool        { return p.isActive }

func TestSaveCredentialsCreatesAndDeactivatesOthers(t *testing.T) {
	env := newTestEnv(t)

	set, err := env.svc.SaveCredentials(context.Background(), credentialsParams{
		mode:          "TEST",
		projectID:     "project-2",
		projectSecret: "secret-2",
		signatureKey:  "key-2",
		isActive:      true,
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if set.ID == 0 || set.Mode != entity.ModeTest {
		t.Fatalf("unexpected set: %+v", set)
	}

	list, _ := env.svc.ListCredentials(context.Background())
	active := 0
	for _, item := range list {
		if item.Mode == entity.ModeTest && item.IsActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active test set, got %d", active)
	}
}

func TestSaveCredentialsKeepsSecretsOnUpdate(t *testing.T) {
	env := newTestEnv(t)

	set, err := env.svc.SaveCredentials(context.Background(), credentialsParams{
		id:         1,
		mode:       "test",
		projectID:  "project-1b",
		apiBaseURL: "https://api.maibmerchants.md/v1",
		isActive:   true,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if set.ProjectSecret != "secret-1" || set.SignatureKey != testSignatureKey || set.ProjectID != "project-1b" {
		t.Fatalf("expected secrets kept, got %+v", set)
	}
}

func TestSaveCredentialsValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := map[string]credentialsParams{
		"mode":       {mode: "staging", projectID: "p", projectSecret: "s", signatureKey: "k"},
		"project id": {mode: "test", projectSecret: "s", signatureKey: "k"},
		"secret":     {mode: "test", projectID: "p", signatureKey: "k"},
		"base url":   {mode: "test", projectID: "p", projectSecret: "s", signatureKey: "k", apiBaseURL: "ftp://x"},
	}
	for name, params := range cases {
		if _, err := env.svc.SaveCredentials(context.Background(), params); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}

	if _, err := env.svc.SaveCredentials(context.Background(), credentialsParams{id: 42, mode: "test", projectID: "p"}); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
}

func TestTestCredentials(t *testing.T) {
	env := newTestEnv(t)

	set, err := env.svc.TestCredentials(context.Background(), 0)
	if err != nil || set.ID != 1 {
		t.Fatalf("expected active set to authenticate, got %+v err=%v", set, err)
	}
	if _, err := env.svc.TestCredentials(context.Background(), 1); err != nil {
		t.Fatalf("expected explicit set to authenticate, got %v", err)
	}
	if _, err := env.svc.TestCredentials(context.Background(), 7); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}

	env.maib.on("/generate-token", http.StatusOK, `{"ok":false,"errors":[{"errorMessage":"bad project"}]}`)
	if _, err := env.svc.TestCredentials(context.Background(), 1); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}
