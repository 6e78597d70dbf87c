package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/devsergyo/sales-commissions/pkg/types"
)

// Sale is a single recorded sale. Commission is fixed at creation time.
type Sale struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID   int64           `gorm:"not null;index" json:"seller_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Commission decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"commission"`
	SaleDate   types.Date      `gorm:"type:date;not null;index" json:"sale_date"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`

	Seller *Seller `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
}

func (Sale) TableName() string { return "sales" }

// MarshalJSON renders amount and commission with two decimals.
func (s Sale) MarshalJSON() ([]byte, error) {
	type plain Sale
	return json.Marshal(struct {
		plain
		Amount     types.Money `json:"amount"`
		Commission types.Money `json:"commission"`
	}{plain(s), types.Money(s.Amount), types.Money(s.Commission)})
}
