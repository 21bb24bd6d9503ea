package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hylla/partdesk/internal/domain"
)

type nopService struct{}

func (nopService) ListOrders(context.Context) ([]domain.Order, error) { return nil, nil }
func (nopService) ListGroups(context.Context) ([]domain.Group, error) { return nil, nil }
func (nopService) CreateOrder(context.Context, domain.OrderInput) (string, error) {
	return "", nil
}
func (nopService) PatchOrder(context.Context, string, domain.OrderPatch) error { return nil }
func (nopService) DeleteOrder(context.Context, string) error                   { return nil }
func (nopService) PatchOrderStatus(context.Context, string, domain.Status, []domain.TrackingEntry) error {
	return nil
}
func (nopService) AssignOrderGroup(context.Context, string, string) error       { return nil }
func (nopService) CreateGroup(context.Context, domain.GroupInput) (string, error) { return "", nil }
func (nopService) PatchGroup(context.Context, string, domain.GroupPatch) error  { return nil }
func (nopService) DeleteGroup(context.Context, string) error                    { return nil }

// TestNewHandlerServesHealth verifies health endpoints respond deterministically.
func TestNewHandlerServesHealth(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, nopService{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != defaultBindAddress || cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
		resp.Body.Close()
	}
}

// TestNewHandlerRequiresService verifies the dependency guard.
func TestNewHandlerRequiresService(t *testing.T) {
	if _, _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("expected error for nil service")
	}
}

// TestNormalizeEndpoint verifies endpoint path normalization.
func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":       "/mcp",
		"tools":  "/tools",
		"/x/":    "/x",
		"  /  ":  "/mcp",
		"a/b/c/": "/a/b/c",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/mcp"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
