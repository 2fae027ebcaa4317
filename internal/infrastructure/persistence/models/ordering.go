package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/ordering"
)

// OrderModel is the persistence model for the ordering context's Order read
// model. The settlement side only reads these rows.
type OrderModel struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key"`
	OrderNumber string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status      ordering.Status  `gorm:"type:varchar(20);not null;index"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Currency    string           `gorm:"type:varchar(3);not null;default:'COP'"`
	BuyerID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Items       []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt   time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order read model.
func (m *OrderModel) ToDomain() *ordering.Order {
	order := &ordering.Order{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		Status:      m.Status,
		TotalAmount: m.TotalAmount,
		Currency:    m.Currency,
		BuyerID:     m.BuyerID,
		CreatedAt:   m.CreatedAt,
		Items:       make([]ordering.OrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// OrderItemModel is the persistence model for an order line item.
type OrderItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	VendorID  *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() *ordering.OrderItem {
	return &ordering.OrderItem{
		ID:        m.ID,
		ProductID: m.ProductID,
		VendorID:  m.VendorID,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		Subtotal:  m.Subtotal,
	}
}
