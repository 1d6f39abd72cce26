package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func stubHandler(_ context.Context, _ any) (any, error) {
	return "ok", nil
}

func TestAuthInterceptor(t *testing.T) {
	const method = "/hackops.Console/Anything"
	tests := []struct {
		name   string
		token  string
		method string
		auth   string // empty = no metadata
		want   codes.Code
	}{
		{"disabled", "", method, "", codes.OK},
		{"health exempt", "secret", "/grpc.health.v1.Health/Check", "", codes.OK},
		{"health watch exempt", "secret", "/grpc.health.v1.Health/Watch", "", codes.OK},
		{"missing metadata", "secret", method, "", codes.Unauthenticated},
		{"wrong token", "secret", method, "Bearer wrong", codes.Unauthenticated},
		{"basic scheme", "secret", method, "Basic secret", codes.Unauthenticated},
		{"correct token", "secret", method, "Bearer secret", codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.auth != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.auth))
			}
			resp, err := AuthInterceptor(tt.token)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, stubHandler)
			if got := status.Code(err); got != tt.want {
				t.Fatalf("code = %v, want %v (err=%v)", got, tt.want, err)
			}
			if tt.want == codes.OK && resp != "ok" {
				t.Fatalf("resp = %v, want ok", resp)
			}
		})
	}
}

func TestAuthInterceptor_MetadataWithoutAuthorization(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("other", "value"))
	_, err := AuthInterceptor("secret")(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/hackops.Console/X"}, stubHandler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	panicky := func(context.Context, any) (any, error) { panic("boom") }
	_, err := RecoveryInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x"}, panicky)
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	tests := []struct {
		name  string
		token string
		path  string
		auth  string
		want  int
	}{
		{"no header", "secret", "/v1/hackathons", "", http.StatusUnauthorized},
		{"wrong token", "secret", "/v1/hackathons", "Bearer wrong", http.StatusUnauthorized},
		{"basic scheme", "secret", "/v1/hackathons", "Basic secret", http.StatusUnauthorized},
		{"correct token", "secret", "/v1/hackathons", "Bearer secret", http.StatusOK},
		{"health exempt", "secret", "/v1/health", "", http.StatusOK},
		{"disabled", "", "/v1/hackathons", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(tt.token, ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
