package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oskaz/oskaz-api/internal/cart"
	"github.com/oskaz/oskaz-api/internal/catalog"
	"github.com/oskaz/oskaz-api/internal/customers"
	"github.com/oskaz/oskaz-api/internal/orders"
	"github.com/oskaz/oskaz-api/internal/prefs"
	"github.com/oskaz/oskaz-api/internal/toast"
	"github.com/oskaz/oskaz-api/pkg/config"
	"github.com/oskaz/oskaz-api/pkg/identity"
	"github.com/oskaz/oskaz-api/pkg/snapshot"
)

type memorySnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: make(map[string][]byte)}
}

func (m *memorySnapshots) Load(_ context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.data[slot]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	return payload, nil
}

func (m *memorySnapshots) Save(_ context.Context, slot string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[slot] = payload
	return nil
}

func (m *memorySnapshots) Delete(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, slot)
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) List(_ context.Context, _ catalog.ListFilter) ([]catalog.Item, error) {
	return []catalog.Item{}, nil
}

func (stubCatalogService) GetByCode(_ context.Context, _ string) (*catalog.Item, error) {
	return &catalog.Item{ID: "WID-001", Name: "Widget"}, nil
}

type stubCustomerService struct{}

func (stubCustomerService) GetByEmail(_ context.Context, _ string) (*customers.Customer, error) {
	return nil, nil
}

func (stubCustomerService) CreateOrGet(_ context.Context, input customers.CreateInput) (*customers.Customer, error) {
	return &customers.Customer{Name: "CUST-001", Email: input.Email}, nil
}

type stubOrderService struct{}

func (stubOrderService) List(_ context.Context, _ orders.ListFilter) ([]orders.Order, error) {
	return []orders.Order{}, nil
}

func (stubOrderService) Get(_ context.Context, id string) (*orders.Order, error) {
	return &orders.Order{ID: id}, nil
}

func (stubOrderService) Create(_ context.Context, _ orders.CreateInput) (*orders.Order, error) {
	return &orders.Order{ID: "SO-001"}, nil
}

func (stubOrderService) Update(_ context.Context, id string, _ orders.UpdateInput) (*orders.Order, error) {
	return &orders.Order{ID: id}, nil
}

func (stubOrderService) Delete(_ context.Context, _ string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		Identity: config.IdentityConfig{
			JWTSecret: "router-test-secret",
		},
		Cart: config.CartConfig{
			SessionCookie: "oskaz_cart_sid",
			SessionTTL:    time.Hour,
			IdleEviction:  time.Hour,
		},
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	snapshots := newMemorySnapshots()
	center, err := toast.NewCenter(5 * time.Second)
	if err != nil {
		t.Fatalf("new center: %v", err)
	}
	preferences, err := prefs.NewService(snapshots, nil)
	if err != nil {
		t.Fatalf("new prefs service: %v", err)
	}

	return NewRouter(Deps{
		Config:      testConfig(),
		CartManager: cart.NewManager(snapshots, nil, nil, time.Hour),
		ToastCenter: center,
		Preferences: preferences,
		Customers:   stubCustomerService{},
		Catalog:     stubCatalogService{},
		Orders:      stubOrderService{},
	})
}

func TestRouterHealthLive(t *testing.T) {
	t.Parallel()

	resp := httptest.NewRecorder()
	testRouter(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterCartMintsSessionCookie(t *testing.T) {
	t.Parallel()

	resp := httptest.NewRecorder()
	testRouter(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "oskaz_cart_sid" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
}

func TestRouterCartRoundTripThroughCookie(t *testing.T) {
	t.Parallel()

	router := testRouter(t)

	add := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"id":"widget","name":"Widget","price":"9.99","stock":5,"minOrderQty":1,"quantity":2}`))
	router.ServeHTTP(add, req)
	if add.Code != http.StatusOK {
		t.Fatalf("add: expected 200 got %d: %s", add.Code, add.Body.String())
	}

	get := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	for _, cookie := range add.Result().Cookies() {
		req.AddCookie(cookie)
	}
	router.ServeHTTP(get, req)

	var state cart.State
	if err := json.NewDecoder(get.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.TotalItems != 2 {
		t.Fatalf("expected the same cart behind the cookie, got %+v", state)
	}
}

func TestRouterUserInfoRequiresToken(t *testing.T) {
	t.Parallel()

	resp := httptest.NewRecorder()
	testRouter(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/userinfo", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterUserInfoWithValidToken(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	token, err := identity.MintSessionToken(cfg.Identity, time.Now(), time.Hour, identity.SessionClaims{
		Email:     "ada@example.test",
		FirstName: "Ada",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	testRouter(t).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var info identity.UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.Email != "ada@example.test" {
		t.Fatalf("unexpected profile %+v", info)
	}
}

func TestRouterItemsListed(t *testing.T) {
	t.Parallel()

	resp := httptest.NewRecorder()
	testRouter(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/items/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterWebhookWithoutVerifierFails(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/identity", strings.NewReader("{}"))
	resp := httptest.NewRecorder()
	testRouter(t).ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
