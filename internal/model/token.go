package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrAuctionUndefined: токен с типом продажи AUCTION без аукциона.
var ErrAuctionUndefined = errors.New("auction can't be undefined")

// Token: единица работы в обороте: владелец, цена и состояние продажи.
type Token struct {
	ID          int64 `gorm:"primaryKey"`
	TokenNumber int   `gorm:"not null;default:1"`
	MintID      int   `gorm:"not null;default:0"`

	ItemID int64 `gorm:"not null;index:idx_tokens_supply,priority:1"`
	Item   *Item `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	OwnerID int64 `gorm:"not null;index:idx_tokens_supply,priority:2"`
	Owner   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	SaleType  SaleType        `gorm:"column:sell_type;not null;default:0"`
	AuctionID *int64          `gorm:"uniqueIndex"` // один аукцион: не более одного токена
	Auction   *Auction        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	OnSale    bool            `gorm:"not null;default:false;index:idx_tokens_supply,priority:3"`
	IsSold    bool            `gorm:"not null;default:false"`

	// Version растёт при каждой записи состояния (оптимистичная блокировка).
	Version int64 `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Validate проверяет инвариант: AUCTION требует привязанного аукциона.
func (t *Token) Validate() error {
	if t.SaleType == SaleAuction && t.AuctionID == nil && t.Auction == nil {
		return ErrAuctionUndefined
	}
	return nil
}

// State возвращает состояние автомата продажи.
func (t *Token) State() SaleState {
	switch t.SaleType {
	case SaleNone:
		if !t.OnSale {
			return StateNotForSale
		}
	case SaleInstantBuy:
		if t.OnSale {
			return StateInstantBuy
		}
	case SaleAuction:
		if t.OnSale && (t.AuctionID != nil || t.Auction != nil) {
			return StateOnAuction
		}
	}
	return StateInvalid
}

// OwnerName: отображаемое имя владельца.
func (t *Token) OwnerName() string {
	return t.Owner.DisplayName()
}
