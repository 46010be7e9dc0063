package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dungdata/dungdata-backend/internal/auth"
	"github.com/dungdata/dungdata-backend/internal/cart"
	"github.com/dungdata/dungdata-backend/internal/categories"
	checkoutsvc "github.com/dungdata/dungdata-backend/internal/checkout"
	"github.com/dungdata/dungdata-backend/internal/media"
	"github.com/dungdata/dungdata-backend/internal/messages"
	"github.com/dungdata/dungdata-backend/internal/orders"
	"github.com/dungdata/dungdata-backend/internal/posts"
	"github.com/dungdata/dungdata-backend/internal/settings"
	"github.com/dungdata/dungdata-backend/internal/stats"
	"github.com/dungdata/dungdata-backend/internal/users"
	pkgAuth "github.com/dungdata/dungdata-backend/pkg/auth"
	"github.com/dungdata/dungdata-backend/pkg/auth/session"
	"github.com/dungdata/dungdata-backend/pkg/config"
	"github.com/dungdata/dungdata-backend/pkg/enums"
	"github.com/dungdata/dungdata-backend/pkg/logger"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
	"github.com/dungdata/dungdata-backend/pkg/redis"
)

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubPostService struct {
	listFn func(ctx context.Context, input posts.ListInput) (*posts.ListOutput, error)
}

func (s stubPostService) List(ctx context.Context, input posts.ListInput) (*posts.ListOutput, error) {
	if s.listFn != nil {
		return s.listFn(ctx, input)
	}
	return &posts.ListOutput{}, nil
}

func (stubPostService) GetBySlug(ctx context.Context, slug string, countView bool) (*posts.PostDTO, error) {
	return &posts.PostDTO{Slug: slug}, nil
}

func (stubPostService) Create(ctx context.Context, input posts.CreatePostInput) (*posts.PostDTO, error) {
	panic("unimplemented")
}

func (stubPostService) Update(ctx context.Context, id uuid.UUID, input posts.UpdatePostInput) (*posts.PostDTO, error) {
	panic("unimplemented")
}

func (stubPostService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubCategoryService struct{}

func (stubCategoryService) List(ctx context.Context) ([]categories.CategoryDTO, error) {
	return []categories.CategoryDTO{}, nil
}

func (stubCategoryService) Create(ctx context.Context, input categories.CreateCategoryInput) (*categories.CategoryDTO, error) {
	panic("unimplemented")
}

func (stubCategoryService) Update(ctx context.Context, id uuid.UUID, input categories.UpdateCategoryInput) (*categories.CategoryDTO, error) {
	panic("unimplemented")
}

func (stubCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{Status: enums.CartStatusPending}, nil
}

func (stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, input cart.SetQuantityInput) (*cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cart.CartDTO, error) {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) Confirm(ctx context.Context, userID uuid.UUID, email string) (*checkoutsvc.ConfirmOutput, error) {
	panic("unimplemented")
}

type stubOrderService struct{}

func (stubOrderService) List(ctx context.Context, input orders.ListInput) (*orders.ListOutput, error) {
	return &orders.ListOutput{}, nil
}

func (stubOrderService) ListMine(ctx context.Context, userID uuid.UUID) ([]orders.OrderDTO, error) {
	return []orders.OrderDTO{}, nil
}

func (stubOrderService) Get(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrderService) Confirm(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrderService) Reject(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrderService) MarkShipped(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

type stubMessageService struct{}

func (stubMessageService) Create(ctx context.Context, input messages.CreateMessageInput) (*messages.MessageDTO, error) {
	return &messages.MessageDTO{}, nil
}

func (stubMessageService) List(ctx context.Context, input messages.ListInput) (*messages.ListOutput, error) {
	return &messages.ListOutput{}, nil
}

func (stubMessageService) MarkRead(ctx context.Context, id uuid.UUID) (*messages.MessageDTO, error) {
	panic("unimplemented")
}

func (stubMessageService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubMediaService struct{}

func (stubMediaService) Upload(ctx context.Context, input media.UploadInput) (*media.MediaDTO, error) {
	panic("unimplemented")
}

func (stubMediaService) List(ctx context.Context, params pagination.Params) (*media.ListOutput, error) {
	return &media.ListOutput{}, nil
}

func (stubMediaService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubMediaService) ReleaseByURL(ctx context.Context, publicURL string) error {
	return nil
}

type stubUserService struct{}

func (stubUserService) List(ctx context.Context, params pagination.Params) (*users.ListOutput, error) {
	return &users.ListOutput{}, nil
}

func (stubUserService) Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUserService) SetRole(ctx context.Context, id uuid.UUID, role string) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUserService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubSettingService struct{}

func (stubSettingService) List(ctx context.Context) ([]settings.SettingDTO, error) {
	return []settings.SettingDTO{}, nil
}

func (stubSettingService) Upsert(ctx context.Context, input settings.UpsertInput) (*settings.SettingDTO, error) {
	panic("unimplemented")
}

type stubStatsService struct{}

func (stubStatsService) Dashboard(ctx context.Context) (*stats.Dashboard, error) {
	return &stats.Dashboard{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:          cfg,
		Logger:          logg,
		Redis:           (*redis.Client)(nil),
		Session:         stubSessionManager{},
		AuthService:     stubAuthService{},
		PostService:     stubPostService{},
		CategoryService: stubCategoryService{},
		CartService:     stubCartService{},
		CheckoutService: stubCheckoutService{},
		OrderService:    stubOrderService{},
		MessageService:  stubMessageService{},
		MediaService:    stubMediaService{},
		UserService:     stubUserService{},
		SettingService:  stubSettingService{},
		StatsService:    stubStatsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "router-test@example.com",
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicPostsDoNotRequireJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public posts got %d", resp.Code)
	}
}

func TestHealthLiveAlwaysUp(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestCartRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCartSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart with token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/stats", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/stats", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminOrdersRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestContactRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestContactAcceptsGoodJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"name":"Dung","email":"dung@example.com","content":"xin chao"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for contact message got %d", resp.Code)
	}
}

func TestPostBySlugRouted(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/du-lieu-khao-sat", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for post detail got %d", resp.Code)
	}
}
