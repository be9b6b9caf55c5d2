package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewInput struct {
	OrderID          string `json:"orderId" binding:"required,uuid"`
	RestaurantRating int    `json:"restaurantRating" binding:"required,min=1,max=5"`
	Comment          string `json:"restaurantComment" binding:"omitempty,notblank,max=500"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/reviews", func(c *gin.Context) {
		var req reviewInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	type menuItem struct {
		Price decimal.Decimal  `json:"price" binding:"required,money"`
		Old   *decimal.Decimal `json:"oldPrice" binding:"omitempty,money"`
		Phone string           `json:"phone" binding:"omitempty,phone"`
	}
	assert.NoError(t, v.Struct(menuItem{Price: decimal.RequireFromString("249.50"), Phone: "+91 98765-43210"}))

	negative := decimal.RequireFromString("-1")
	err := v.Struct(menuItem{Price: decimal.RequireFromString("9.999"), Old: &negative, Phone: "call me"})
	require.Error(t, err)
	tags := map[string]string{}
	for _, fe := range err.(validator.ValidationErrors) {
		tags[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, map[string]string{"price": "money", "oldPrice": "money", "phone": "phone"}, tags)
}

func TestPhoneNumber(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("phone", phoneNumber))

	for _, ok := range []string{"9876543210", "+91 98765 43210", "(040) 2345-6789"} {
		assert.NoError(t, v.Var(ok, "phone"), ok)
	}
	for _, bad := range []string{"12345", "+91 abc 43210", "1234567890123456", "++919876543210"} {
		assert.Error(t, v.Var(bad, "phone"), bad)
	}
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	router := newValidationRouter()

	req := httptest.NewRequest(http.MethodPost, "/reviews",
		strings.NewReader(`{"orderId":"not-a-uuid","restaurantRating":9,"restaurantComment":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Tag
	}
	assert.Equal(t, "uuid", fields["orderId"])
	assert.Equal(t, "max", fields["restaurantRating"])
	assert.Equal(t, "notblank", fields["restaurantComment"])
}

func TestHandleValidationError_MalformedBody(t *testing.T) {
	router := newValidationRouter()

	req := httptest.NewRequest(http.MethodPost, "/reviews", strings.NewReader(`{"orderId":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidInput)
}

func TestHandleValidationError_ValidInput(t *testing.T) {
	router := newValidationRouter()

	req := httptest.NewRequest(http.MethodPost, "/reviews",
		strings.NewReader(`{"orderId":"2b0f3a4e-6c1d-4f7e-9a55-0d3c1b2a4e5f","restaurantRating":4}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Email    string `validate:"omitempty,email"`
		Min      string `validate:"min=5"`
		OneOf    string `validate:"oneof=cash card wallet"`
		Items    []int  `validate:"min=1"`
		Rating   int    `validate:"max=5"`
	}

	err := validator.New().Struct(sample{Email: "invalid", Min: "ab", OneOf: "cheque", Rating: 6})
	require.Error(t, err)

	got := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		got[e.Field()] = getValidationMessage(e)
	}
	assert.Equal(t, "This field is required", got["Required"])
	assert.Equal(t, "Invalid email format", got["Email"])
	assert.Equal(t, "Must be at least 5 characters", got["Min"])
	assert.Equal(t, "Must be one of: cash card wallet", got["OneOf"])
	assert.Equal(t, "Must be at least 1 items", got["Items"])
	assert.Equal(t, "Must be at most 5", got["Rating"])
}
