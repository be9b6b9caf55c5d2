package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItems stores order lines as a JSON document (JSONB on PostgreSQL)
type LineItems []ordering.LineItem

// Value implements driver.Valuer interface for GORM to store as JSON
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSON
func (l *LineItems) Scan(value any) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*l = LineItems{}
		return nil
	}
	return json.Unmarshal(b, l)
}

// Timeline stores the milestone map as a JSON document
type Timeline map[string]time.Time

// Value implements driver.Valuer interface for GORM to store as JSON
func (t Timeline) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSON
func (t *Timeline) Scan(value any) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*t = Timeline{}
		return nil
	}
	return json.Unmarshal(b, t)
}

func jsonBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("failed to scan JSON column: unsupported type")
	}
}

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	Versioned
	OrderNumber       string          `gorm:"type:varchar(40);not null;uniqueIndex"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	RestaurantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Items             LineItems       `gorm:"type:jsonb;not null"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status            string          `gorm:"type:varchar(32);not null;index"`
	PaymentStatus     string          `gorm:"type:varchar(16);not null"`
	PaymentMethod     string          `gorm:"type:varchar(16);not null"`
	Timeline          Timeline        `gorm:"type:jsonb;not null"`
	BatchNumber       string          `gorm:"type:varchar(40);index"`
	DeliveryAgentID   *uuid.UUID      `gorm:"type:uuid;index"`
	DeliveryAddressID *uuid.UUID      `gorm:"type:uuid"`
	Notes             string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *ordering.Order {
	items := make([]ordering.LineItem, len(m.Items))
	copy(items, m.Items)
	timeline := make(ordering.Timeline, len(m.Timeline))
	for k, v := range m.Timeline {
		timeline[k] = v
	}
	return &ordering.Order{
		BaseAggregateRoot: m.aggregate(),
		OrderNumber:       m.OrderNumber,
		UserID:            m.UserID,
		RestaurantID:      m.RestaurantID,
		Items:             items,
		TotalAmount:       m.TotalAmount,
		Status:            ordering.Status(m.Status),
		PaymentStatus:     ordering.PaymentStatus(m.PaymentStatus),
		PaymentMethod:     ordering.PaymentMethod(m.PaymentMethod),
		Timeline:          timeline,
		BatchNumber:       m.BatchNumber,
		DeliveryAgentID:   m.DeliveryAgentID,
		DeliveryAddressID: m.DeliveryAddressID,
		Notes:             m.Notes,
	}
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *ordering.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		RestaurantID:      o.RestaurantID,
		Items:             LineItems(o.Items),
		TotalAmount:       o.TotalAmount,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		PaymentMethod:     string(o.PaymentMethod),
		Timeline:          Timeline(o.Timeline),
		BatchNumber:       o.BatchNumber,
		DeliveryAgentID:   o.DeliveryAgentID,
		DeliveryAddressID: o.DeliveryAddressID,
		Notes:             o.Notes,
	}
	m.Versioned = versionedFrom(o.BaseAggregateRoot)
	return m
}

// PaymentModel is the persistence model for Payment.
type PaymentModel struct {
	Record
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method         string          `gorm:"type:varchar(16);not null"`
	Status         string          `gorm:"type:varchar(16);not null"`
	TransactionRef string          `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *ordering.Payment {
	return &ordering.Payment{
		BaseEntity:     m.entity(),
		OrderID:        m.OrderID,
		UserID:         m.UserID,
		Amount:         m.Amount,
		Method:         ordering.PaymentMethod(m.Method),
		Status:         ordering.PaymentStatus(m.Status),
		TransactionRef: m.TransactionRef,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *ordering.Payment) *PaymentModel {
	m := &PaymentModel{
		OrderID:        p.OrderID,
		UserID:         p.UserID,
		Amount:         p.Amount,
		Method:         string(p.Method),
		Status:         string(p.Status),
		TransactionRef: p.TransactionRef,
	}
	m.Record = recordFrom(p.BaseEntity)
	return m
}
