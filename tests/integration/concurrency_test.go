package integration

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// race fires n requests at once and returns the recorded status codes and error codes
func race(n int, fire func(i int) (int, string)) ([]int, []string) {
	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		status = make([]int, n)
		codes  = make([]string, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			status[i], codes[i] = fire(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return status, codes
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	if len(body) == 0 {
		return ""
	}
	var env envelope[any]
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestConcurrentPlacement_LastUnits(t *testing.T) {
	s := newTestServer(t)
	rf := s.restaurant(t)
	item := s.menuItem(t, rf, "Hyderabadi Biryani", "320.00", 3)

	customers := []session{s.signup(t, identity.RoleCustomer), s.signup(t, identity.RoleCustomer)}

	status, codes := race(len(customers), func(i int) (int, string) {
		w := s.request(http.MethodPost, "/orders", customers[i].Token,
			placeOrderBody(rf.ID, line{MenuItemID: item, Quantity: 2}))
		return w.Code, errorCode(t, w.Body.Bytes())
	})

	created, rejected := 0, 0
	for i := range status {
		switch status[i] {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			assert.Equal(t, dto.ErrCodeInsufficientStock, codes[i])
			rejected++
		default:
			t.Errorf("unexpected status %d (%s)", status[i], codes[i])
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, rejected)

	// Only the winner's two units are gone
	assert.Equal(t, 1, s.stock(t, item))
	assert.EqualValues(t, 1, s.DB.Count("orders", "restaurant_id = ?", rf.ID))
}

func TestConcurrentPlacement_StockNeverNegative(t *testing.T) {
	s := newTestServer(t)
	rf := s.restaurant(t)
	item := s.menuItem(t, rf, "Gulab Jamun", "60.00", 5)

	const buyers = 8
	sessions := make([]session, buyers)
	for i := range sessions {
		sessions[i] = s.signup(t, identity.RoleCustomer)
	}

	status, _ := race(buyers, func(i int) (int, string) {
		w := s.request(http.MethodPost, "/orders", sessions[i].Token,
			placeOrderBody(rf.ID, line{MenuItemID: item, Quantity: 1}))
		return w.Code, ""
	})

	created := 0
	for _, code := range status {
		if code == http.StatusCreated {
			created++
		}
	}
	assert.Equal(t, 5, created)
	assert.Equal(t, 0, s.stock(t, item))
}

func TestConcurrentClaim_ExactlyOneWins(t *testing.T) {
	s := newTestServer(t)
	rf := s.restaurant(t)
	item := s.menuItem(t, rf, "Chole Bhature", "140.00", 5)
	customer := s.signup(t, identity.RoleCustomer)
	order := s.placeOrder(t, customer, rf.ID, line{MenuItemID: item, Quantity: 1})

	riders := []session{s.signup(t, identity.RoleDeliveryGuy), s.signup(t, identity.RoleDeliveryGuy)}

	status, codes := race(len(riders), func(i int) (int, string) {
		w := s.request(http.MethodPost, "/orders/"+order.ID.String()+"/claim", riders[i].Token, nil)
		return w.Code, errorCode(t, w.Body.Bytes())
	})

	winner := -1
	for i := range status {
		if status[i] == http.StatusOK {
			require.Equal(t, -1, winner, "two claims succeeded")
			winner = i
			continue
		}
		assert.Equal(t, http.StatusConflict, status[i])
		assert.Equal(t, dto.ErrCodeAlreadyClaimed, codes[i])
	}
	require.NotEqual(t, -1, winner, "no claim succeeded")

	var agent string
	require.NoError(t, s.DB.DB.Raw("SELECT delivery_agent_id FROM orders WHERE id = ?", order.ID).Scan(&agent).Error)
	assert.Equal(t, riders[winner].UserID.String(), agent)

	// The loser cannot move the order either
	loser := riders[1-winner]
	w := s.setStatus(loser.Token, order.ID, "picked_by_delivery")
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, w.Code)
}
