package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auditapp "github.com/foodontracks/backend/internal/application/audit"
	catalogapp "github.com/foodontracks/backend/internal/application/catalog"
	deliveryapp "github.com/foodontracks/backend/internal/application/delivery"
	identityapp "github.com/foodontracks/backend/internal/application/identity"
	orderingapp "github.com/foodontracks/backend/internal/application/ordering"
	reviewapp "github.com/foodontracks/backend/internal/application/review"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/infrastructure/auth"
	"github.com/foodontracks/backend/internal/infrastructure/cache"
	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/foodontracks/backend/internal/infrastructure/event"
	"github.com/foodontracks/backend/internal/infrastructure/persistence"
	"github.com/foodontracks/backend/internal/infrastructure/storage"
	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/foodontracks/backend/internal/interfaces/http/handler"
	"github.com/foodontracks/backend/internal/interfaces/http/middleware"
	"github.com/foodontracks/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "Password123"

// testServer is the full API wired on a real database with in-memory stores
type testServer struct {
	DB     *TestDB
	Engine *gin.Engine
	Users  *persistence.GormUserRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	testDB := NewTestDB(t)
	log := zap.NewNop()

	stores, err := cache.NewFactory(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	idempotency := stores.IdempotencyStore()
	catalogCache := stores.CatalogCache(config.CacheConfig{MenuTTL: time.Minute, RestaurantTTL: time.Minute})
	t.Cleanup(func() {
		_ = idempotency.Close()
		catalogCache.Close()
	})
	revocations := auth.NewMemoryRevocationStore()

	userRepo := persistence.NewGormUserRepository(testDB.DB)
	restaurantRepo := persistence.NewGormRestaurantRepository(testDB.DB)
	menuItemRepo := persistence.NewGormMenuItemRepository(testDB.DB)
	auditRepo := persistence.NewGormStatusAuditRepository(testDB.DB)
	scope := persistence.NewGormTransactionScope(testDB.DB)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.Deduplicate(auditapp.NewRecorder(auditRepo, log), idempotency, log))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-secret-key-32-characters",
		RefreshSecret:          "integration-refresh-secret-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "foodontracks-integration",
	})

	authService := identityapp.NewAuthService(userRepo, jwtService, revocations, log)
	authService.SetEventPublisher(bus)

	restaurants := catalogapp.NewRestaurantService(restaurantRepo, scope, log)
	restaurants.SetCache(catalogCache)
	menu := catalogapp.NewMenuService(restaurantRepo, menuItemRepo, log)
	menu.SetCache(catalogCache)
	menu.SetImageStorage(storage.NewPlaceholderStorage(""), catalogapp.DefaultImageConfig())

	placement := orderingapp.NewPlacementService(scope, orderingapp.PlacementConfig{
		AllowFailureInjection: true,
		IdempotencyTTL:        time.Hour,
	}, log)
	placement.SetIdempotencyStore(idempotency)
	placement.SetEventPublisher(bus)
	placement.SetMenuInvalidator(catalogCache)

	status := orderingapp.NewStatusService(scope, log)
	status.SetEventPublisher(bus)
	status.SetMenuInvalidator(catalogCache)

	claims := orderingapp.NewClaimService(scope, log)
	claims.SetEventPublisher(bus)

	batches := deliveryapp.NewBatchService(scope, persistence.NewGormBatchRepository(testDB.DB), log)
	batches.SetEventPublisher(bus)

	reviews := reviewapp.NewReviewService(scope, persistence.NewGormReviewRepository(testDB.DB), restaurantRepo, log)
	reviews.SetCacheInvalidator(catalogCache)

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authService, config.CookieConfig{Path: "/", SameSite: "lax"}),
		Users:       handler.NewUserHandler(identityapp.NewUserService(userRepo, revocations, 24*time.Hour, log)),
		Restaurants: handler.NewRestaurantHandler(restaurants),
		Menu:        handler.NewMenuHandler(menu),
		Orders: handler.NewOrderHandler(placement, status, claims,
			orderingapp.NewQueryService(persistence.NewGormOrderRepository(testDB.DB), persistence.NewGormPaymentRepository(testDB.DB))),
		Reviews: handler.NewReviewHandler(reviews),
		Batches: handler.NewBatchHandler(batches),
		Audit:   handler.NewAuditHandler(auditapp.NewQueryService(auditRepo)),
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.New(engine).Mount(handlers.Routes(), router.APIConfig{
		Authenticate: middleware.Authenticate(middleware.AuthConfig{Tokens: jwtService, Revocations: revocations}),
		Logger:       log,
	})

	return &testServer{DB: testDB, Engine: engine, Users: userRepo}
}

// envelope mirrors dto.Response with a typed payload
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// request sends body as JSON with an optional bearer token. Extra headers
// are given as name, value pairs.
func (s *testServer) request(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	return w
}

type session struct {
	UserID uuid.UUID
	Email  string
	Token  string
}

func (s *testServer) login(t *testing.T, email string) session {
	t.Helper()
	w := s.request(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[identityapp.AuthResult](t, w).Data
	return session{UserID: res.User.ID, Email: email, Token: res.AccessToken}
}

// signup registers a user through the API and logs in
func (s *testServer) signup(t *testing.T, role identity.Role) session {
	t.Helper()
	email := fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()[:8])
	w := s.request(http.MethodPost, "/auth/signup", "", map[string]string{
		"name":     "Test " + role.String(),
		"email":    email,
		"password": testPassword,
		"role":     role.String(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, email)
}

// admin inserts an administrator directly; signup never grants that role
func (s *testServer) admin(t *testing.T) session {
	t.Helper()
	email := fmt.Sprintf("admin-%s@example.com", uuid.NewString()[:8])
	user, err := identity.NewUser("Admin", email, testPassword, identity.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, s.Users.Create(context.Background(), user))
	return s.login(t, email)
}

// restaurantFixture is an owner with an open restaurant
type restaurantFixture struct {
	Owner session
	ID    uuid.UUID
}

func (s *testServer) restaurant(t *testing.T) restaurantFixture {
	t.Helper()
	owner := s.signup(t, identity.RoleRestaurantOwner)
	w := s.request(http.MethodPost, "/restaurants", owner.Token, map[string]string{
		"name":    "Spice Route " + uuid.NewString()[:4],
		"address": "12 MG Road, Bengaluru",
		"cuisine": "indian",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[catalogapp.RestaurantResponse](t, w).Data.ID

	// The restaurant id travels in the token, so log in again
	return restaurantFixture{Owner: s.login(t, owner.Email), ID: id}
}

func (s *testServer) menuItem(t *testing.T, rf restaurantFixture, name, price string, stock int) uuid.UUID {
	t.Helper()
	w := s.request(http.MethodPost, "/restaurants/"+rf.ID.String()+"/menu", rf.Owner.Token, map[string]any{
		"name":  name,
		"price": price,
		"stock": stock,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[catalogapp.MenuItemResponse](t, w).Data.ID
}

func (s *testServer) stock(t *testing.T, itemID uuid.UUID) int {
	t.Helper()
	var stock int
	require.NoError(t, s.DB.DB.Raw("SELECT stock FROM menu_items WHERE id = ?", itemID).Scan(&stock).Error)
	return stock
}

type line struct {
	MenuItemID uuid.UUID        `json:"menuItemId"`
	Quantity   int              `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unitPrice,omitempty"`
}

func placeOrderBody(restaurantID uuid.UUID, lines ...line) map[string]any {
	return map[string]any{
		"restaurantId":  restaurantID,
		"items":         lines,
		"paymentMethod": "card",
	}
}

func (s *testServer) placeOrder(t *testing.T, customer session, restaurantID uuid.UUID, lines ...line) orderingapp.OrderResponse {
	t.Helper()
	w := s.request(http.MethodPost, "/orders", customer.Token, placeOrderBody(restaurantID, lines...))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[orderingapp.PlaceOrderResult](t, w).Data.Order
}

func (s *testServer) setStatus(token string, orderID uuid.UUID, status string) *httptest.ResponseRecorder {
	return s.request(http.MethodPatch, "/orders/"+orderID.String()+"/status", token, map[string]string{"status": status})
}

// deliver walks a confirmed order to delivered: the owner prepares it, a
// new delivery agent claims it and completes the trip
func (s *testServer) deliver(t *testing.T, rf restaurantFixture, orderID uuid.UUID) session {
	t.Helper()
	for _, st := range []string{"preparing", "ready"} {
		w := s.setStatus(rf.Owner.Token, orderID, st)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	rider := s.signup(t, identity.RoleDeliveryGuy)
	w := s.request(http.MethodPost, "/orders/"+orderID.String()+"/claim", rider.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, st := range []string{"picked_by_delivery", "out_for_delivery", "delivered"} {
		w := s.setStatus(rider.Token, orderID, st)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	return rider
}
