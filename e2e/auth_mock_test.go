//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"

	authpb "github.com/vibast-solutions/ms-go-auth/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	defaultCatalogueAPIKey    = "catalogue-caller-key"
	defaultNoAccessAPIKey     = "book-payments-no-access-key"
	defaultBookPaymentsAPIKey = "book-payments-app-api-key"
	bookPaymentsAuthMockAddr  = "0.0.0.0:38084"
	bookPaymentsMAIBMockAddr  = "0.0.0.0:38085"
)

func catalogueAPIKey() string {
	return envOrDefault("BOOK_PAYMENTS_CALLER_API_KEY", defaultCatalogueAPIKey)
}

func noAccessAPIKey() string {
	return envOrDefault("BOOK_PAYMENTS_NO_ACCESS_API_KEY", defaultNoAccessAPIKey)
}

func bookPaymentsAPIKey() string {
	return envOrDefault("BOOK_PAYMENTS_APP_API_KEY", defaultBookPaymentsAPIKey)
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

type bookPaymentsAuthGRPCServer struct {
	authpb.UnimplementedAuthServiceServer
}

func (s *bookPaymentsAuthGRPCServer) ValidateInternalAccess(ctx context.Context, req *authpb.ValidateInternalAccessRequest) (*authpb.ValidateInternalAccessResponse, error) {
	if incomingAPIKey(ctx) != bookPaymentsAPIKey() {
		return nil, status.Error(codes.Unauthenticated, "unauthorized caller")
	}

	switch strings.TrimSpace(req.GetApiKey()) {
	case catalogueAPIKey():
		return &authpb.ValidateInternalAccessResponse{
			ServiceName:   "catalogue-service",
			AllowedAccess: []string{"book-payments-service", "profile-service"},
		}, nil
	case noAccessAPIKey():
		return &authpb.ValidateInternalAccessResponse{
			ServiceName:   "catalogue-service",
			AllowedAccess: []string{"profile-service"},
		}, nil
	default:
		return nil, status.Error(codes.Unauthenticated, "invalid api key")
	}
}

func incomingAPIKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("x-api-key")
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func TestMain(m *testing.M) {
	listener, err := net.Listen("tcp", bookPaymentsAuthMockAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth grpc mock: %v\n", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	authpb.RegisterAuthServiceServer(grpcServer, &bookPaymentsAuthGRPCServer{})

	go func() {
		_ = grpcServer.Serve(listener)
	}()

	maibServer := &http.Server{Addr: bookPaymentsMAIBMockAddr, Handler: maib}
	go func() {
		_ = maibServer.ListenAndServe()
	}()

	exitCode := m.Run()

	_ = maibServer.Close()
	grpcServer.GracefulStop()
	_ = listener.Close()

	os.Exit(exitCode)
}
