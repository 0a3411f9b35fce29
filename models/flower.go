package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flower represents a purchasable catalog line
type Flower struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"not null;index" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"index" json:"category"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	Active        bool            `gorm:"not null;default:true;index" json:"active"` // deactivated instead of deleted
	ImageS3Key    *string         `json:"image_s3_key,omitempty"`                   // nullable, S3 key for the flower photo
	ImageURL      *string         `gorm:"-" json:"image_url,omitempty"`             // computed field, presigned URL for image
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Flower model
func (Flower) TableName() string {
	return "flowers"
}

// Purchasable reports whether the flower can be reserved at all
func (f *Flower) Purchasable() bool {
	return f != nil && f.Active
}
