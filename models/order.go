package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Fulfilment modes
const (
	FulfilmentPickup   = "pickup"
	FulfilmentDelivery = "delivery"
)

// DeliveryDateLayout is the accepted format for Order.DeliveryDate
const DeliveryDateLayout = "2006-01-02"

// ValidOrderStatus reports whether status is one of the five defined states
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidFulfilmentMode reports whether mode is pickup or delivery
func ValidFulfilmentMode(mode string) bool {
	return mode == FulfilmentPickup || mode == FulfilmentDelivery
}

// Order is the aggregate root of a purchase. Total is derived from its items.
type Order struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	CustomerID      uint             `gorm:"not null;index" json:"customer_id"` // non-owning reference
	Customer        *CustomerProfile `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"customer,omitempty"`
	Status          string           `gorm:"not null;default:'pending';index" json:"status"` // pending, paid, shipped, delivered, cancelled
	Total           decimal.Decimal  `gorm:"type:numeric(10,2);not null;default:0" json:"total"`
	FulfilmentMode  string           `gorm:"not null;default:'pickup'" json:"fulfilment_mode"` // pickup, delivery
	DeliveryAddress *string          `json:"delivery_address"`
	DeliveryDate    *string          `json:"delivery_date"` // YYYY-MM-DD, informational
	ContactPhone    string           `gorm:"not null" json:"contact_phone"`
	GiftMessage     *string          `gorm:"type:text" json:"gift_message"`
	Notes           *string          `gorm:"type:text" json:"notes"`
	Items           []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// ItemsTotal sums quantity * unit price at sale over the loaded items
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// OrderItem is one line of an order. (OrderID, FlowerID) is unique, so carts
// listing a flower twice are merged before persistence.
type OrderItem struct {
	OrderID         uint            `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	FlowerID        uint            `gorm:"primaryKey;autoIncrement:false;index" json:"flower_id"`
	Flower          *Flower         `gorm:"foreignKey:FlowerID;constraint:OnDelete:RESTRICT" json:"flower,omitempty"`
	Quantity        int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPriceAtSale decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price_at_sale"` // snapshot, never updated
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal returns quantity * unit price at sale
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPriceAtSale.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
