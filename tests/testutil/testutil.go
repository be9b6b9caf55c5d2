// Package testutil holds shared test fixtures: repository mocks, gin test
// contexts and deterministic identifiers.
package testutil

import (
	"net/http/httptest"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestContext is a gin context bound to a response recorder
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
}

// NewTestContext builds a context for a request without a body
func NewTestContext(method, target string) *TestContext {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return &TestContext{Context: c, Recorder: w}
}

// SetActor authenticates the context the way the JWT middleware does
func (tc *TestContext) SetActor(actor identity.Actor) {
	setActor(tc.Context, actor)
}

// SetRequestID sets the correlation id read by the error responses
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set(middleware.RequestIDKey, id)
}

// WithActor is middleware that authenticates every request as actor
func WithActor(actor identity.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		setActor(c, actor)
		c.Next()
	}
}

func setActor(c *gin.Context, actor identity.Actor) {
	c.Set(middleware.ActorKey, actor)
	c.Request = c.Request.WithContext(identity.WithActor(c.Request.Context(), actor))
}

var testNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(testNamespace, []byte(seed))
}

func TestUserID() uuid.UUID       { return NewTestUUID("test-user") }
func TestRestaurantID() uuid.UUID { return NewTestUUID("test-restaurant") }
