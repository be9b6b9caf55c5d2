package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appordering "github.com/foodontracks/backend/internal/application/ordering"
	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/foodontracks/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderFixture struct {
	orders      *testutil.MockOrderRepository
	payments    *testutil.MockPaymentRepository
	menu        *testutil.MockMenuItemRepository
	restaurants *testutil.MockRestaurantRepository
	keys        *testutil.MockIdempotencyStore
	router      *gin.Engine
}

func newOrderFixture(t *testing.T, actor identity.Actor, allowFailure bool) *orderFixture {
	t.Helper()

	f := &orderFixture{
		orders:      new(testutil.MockOrderRepository),
		payments:    new(testutil.MockPaymentRepository),
		menu:        new(testutil.MockMenuItemRepository),
		restaurants: new(testutil.MockRestaurantRepository),
		keys:        new(testutil.MockIdempotencyStore),
	}
	scope := &appordering.NoOpTransactionScope{
		OrderRepo:      f.orders,
		PaymentRepo:    f.payments,
		MenuItemRepo:   f.menu,
		RestaurantRepo: f.restaurants,
	}

	placement := appordering.NewPlacementService(scope, appordering.PlacementConfig{AllowFailureInjection: allowFailure}, zap.NewNop())
	placement.SetIdempotencyStore(f.keys)

	h := NewOrderHandler(
		placement,
		appordering.NewStatusService(scope, zap.NewNop()),
		appordering.NewClaimService(scope, zap.NewNop()),
		appordering.NewQueryService(f.orders, f.payments),
	)

	f.router = gin.New()
	f.router.Use(testutil.WithActor(actor))
	f.router.POST("/orders", h.Place)
	f.router.GET("/orders/:id", h.Get)
	f.router.PATCH("/orders/:id/status", h.UpdateStatus)
	return f
}

func (f *orderFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.orders.AssertExpectations(t)
	f.payments.AssertExpectations(t)
	f.menu.AssertExpectations(t)
	f.restaurants.AssertExpectations(t)
	f.keys.AssertExpectations(t)
}

func (f *orderFixture) do(method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func testCustomer() identity.Actor {
	return identity.Actor{UserID: testutil.TestUserID(), Email: "asha@example.com", Role: identity.RoleCustomer}
}

func menuFor(t *testing.T) (*catalog.Restaurant, *catalog.MenuItem) {
	t.Helper()
	r, err := catalog.NewRestaurant(uuid.New(), "Spice Route", "12 MG Road", "indian")
	require.NoError(t, err)
	m, err := catalog.NewMenuItem(r.ID, "Masala Dosa", decimal.NewFromInt(120), 10)
	require.NoError(t, err)
	return r, m
}

func placeBody(restaurantID, menuItemID uuid.UUID, quantity int) map[string]any {
	return map[string]any{
		"restaurantId":  restaurantID,
		"paymentMethod": "card",
		"items": []map[string]any{
			{"menuItemId": menuItemID, "quantity": quantity},
		},
	}
}

func TestOrderHandler_Place_ValidationDetails(t *testing.T) {
	f := newOrderFixture(t, testCustomer(), false)

	w := f.do(http.MethodPost, "/orders", map[string]any{"paymentMethod": "bitcoin"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	var fields []string
	for _, d := range resp.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "restaurantId")
	assert.Contains(t, fields, "paymentMethod")
	f.assertExpectations(t)
}

func TestOrderHandler_Place_MalformedBody(t *testing.T) {
	f := newOrderFixture(t, testCustomer(), false)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"restaurantId":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
}

func TestOrderHandler_Place_Success(t *testing.T) {
	actor := testCustomer()
	f := newOrderFixture(t, actor, false)
	restaurant, item := menuFor(t)

	f.keys.On("MarkProcessed", mock.Anything, "order:"+actor.UserID.String()+":k-1", appordering.DefaultIdempotencyTTL).
		Return(true, nil)
	f.restaurants.On("FindByID", mock.Anything, restaurant.ID).Return(restaurant, nil)
	f.menu.On("FindByIDs", mock.Anything, []uuid.UUID{item.ID}).Return([]*catalog.MenuItem{item}, nil)
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*ordering.Order")).Return(nil)
	f.menu.On("DecrementStock", mock.Anything, item.ID, 2).Return(true, nil)
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*ordering.Payment")).Return(nil)
	f.orders.On("Update", mock.Anything, mock.AnythingOfType("*ordering.Order")).Return(nil)

	w := f.do(http.MethodPost, "/orders", placeBody(restaurant.ID, item.ID, 2), map[string]string{
		IdempotencyKeyHeader: "k-1",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		Success bool                         `json:"success"`
		Data    appordering.PlaceOrderResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, string(ordering.StatusConfirmed), body.Data.Order.Status)
	assert.True(t, decimal.NewFromInt(240).Equal(body.Data.Order.TotalAmount))
	assert.Equal(t, string(ordering.PaymentCompleted), body.Data.Payment.Status)
	f.assertExpectations(t)
}

func TestOrderHandler_Place_DuplicateKey(t *testing.T) {
	actor := testCustomer()
	f := newOrderFixture(t, actor, false)
	restaurant, item := menuFor(t)

	f.keys.On("MarkProcessed", mock.Anything, "order:"+actor.UserID.String()+":retry-me", mock.Anything).
		Return(false, nil)

	w := f.do(http.MethodPost, "/orders", placeBody(restaurant.ID, item.ID, 1), map[string]string{
		IdempotencyKeyHeader: "retry-me",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeDuplicateRequest, decodeResponse(t, w).Error.Code)
	f.assertExpectations(t)
}

func TestOrderHandler_Place_KeyTooLong(t *testing.T) {
	f := newOrderFixture(t, testCustomer(), false)
	restaurant, item := menuFor(t)

	w := f.do(http.MethodPost, "/orders", placeBody(restaurant.ID, item.ID, 1), map[string]string{
		IdempotencyKeyHeader: strings.Repeat("k", maxIdempotencyKeyLength+1),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	f.assertExpectations(t)
}

func TestOrderHandler_Place_InjectedFailureReleasesKey(t *testing.T) {
	actor := testCustomer()
	f := newOrderFixture(t, actor, true)
	restaurant, item := menuFor(t)
	key := "order:" + actor.UserID.String() + ":boom"

	f.keys.On("MarkProcessed", mock.Anything, key, mock.Anything).Return(true, nil)
	f.keys.On("Release", mock.Anything, key).Return(nil)
	f.restaurants.On("FindByID", mock.Anything, restaurant.ID).Return(restaurant, nil)
	f.menu.On("FindByIDs", mock.Anything, []uuid.UUID{item.ID}).Return([]*catalog.MenuItem{item}, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.menu.On("DecrementStock", mock.Anything, item.ID, 3).Return(true, nil)

	w := f.do(http.MethodPost, "/orders?fail=true", placeBody(restaurant.ID, item.ID, 3), map[string]string{
		IdempotencyKeyHeader: "boom",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInjectedFailure, decodeResponse(t, w).Error.Code)
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestOrderHandler_Place_PriceMismatch(t *testing.T) {
	f := newOrderFixture(t, testCustomer(), false)
	restaurant, item := menuFor(t)

	f.restaurants.On("FindByID", mock.Anything, restaurant.ID).Return(restaurant, nil)
	f.menu.On("FindByIDs", mock.Anything, []uuid.UUID{item.ID}).Return([]*catalog.MenuItem{item}, nil)

	body := placeBody(restaurant.ID, item.ID, 1)
	body["items"] = []map[string]any{{"menuItemId": item.ID, "quantity": 1, "unitPrice": "99.00"}}
	w := f.do(http.MethodPost, "/orders", body, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodePriceMismatch, decodeResponse(t, w).Error.Code)
	f.assertExpectations(t)
}

func TestOrderHandler_Get_OtherCustomersOrderIsNotFound(t *testing.T) {
	f := newOrderFixture(t, testCustomer(), false)
	restaurant, item := menuFor(t)

	order, err := ordering.NewOrder(uuid.New(), restaurant.ID, []ordering.LineItem{
		{MenuItemID: item.ID, Name: item.Name, Quantity: 1, UnitPrice: item.Price},
	}, ordering.PaymentCard)
	require.NoError(t, err)
	f.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	w := f.do(http.MethodGet, "/orders/"+order.ID.String(), nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
}

func TestOrderHandler_Get_RetryableStoreFailure(t *testing.T) {
	f := newOrderFixture(t, testCustomer(), false)
	id := uuid.New()
	f.orders.On("FindByID", mock.Anything, id).
		Return(nil, &shared.PersistenceError{Op: "orders.find", Retryable: true, Err: assert.AnError})

	w := f.do(http.MethodGet, "/orders/"+id.String(), nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeServiceUnavailable, resp.Error.Code)
	assert.True(t, resp.Error.Retryable)
}

func TestOrderHandler_UpdateStatus_CustomerCannotDeliver(t *testing.T) {
	actor := testCustomer()
	f := newOrderFixture(t, actor, false)
	restaurant, item := menuFor(t)

	order, err := ordering.NewOrder(actor.UserID, restaurant.ID, []ordering.LineItem{
		{MenuItemID: item.ID, Name: item.Name, Quantity: 1, UnitPrice: item.Price},
	}, ordering.PaymentCard)
	require.NoError(t, err)
	require.NoError(t, order.Confirm(order.CreatedAt))
	f.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	w := f.do(http.MethodPatch, "/orders/"+order.ID.String()+"/status", map[string]string{"status": "delivered"}, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbiddenTransition, decodeResponse(t, w).Error.Code)
	f.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
