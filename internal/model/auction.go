package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auction: окно продажи с начальной ценой.
type Auction struct {
	ID                   int64           `gorm:"primaryKey"`
	StartDate            time.Time       `gorm:"not null"`
	EndDate              time.Time       `gorm:"not null"`
	StartingBiddingPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	Bids []Bid `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Bid: неизменяемая ставка пользователя на аукцион.
type Bid struct {
	ID        int64           `gorm:"primaryKey"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	BidderID  int64           `gorm:"not null;index"`
	Bidder    *User           `gorm:"constraint:OnDelete:CASCADE"`
	BidValue  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	AuctionID int64           `gorm:"not null;index"`
}

// CurrentBiddingPrice: максимальная ставка или стартовая цена, если ставок нет.
// highest: результат выборки старшей ставки, nil если ставок нет.
func (a *Auction) CurrentBiddingPrice(highest *Bid) decimal.Decimal {
	if highest == nil {
		return a.StartingBiddingPrice
	}
	return highest.BidValue
}

// HighestBidderID: автор старшей ставки.
func HighestBidderID(highest *Bid) *int64 {
	if highest == nil {
		return nil
	}
	id := highest.BidderID
	return &id
}

// Started: окно ставок открыто (now >= start).
func (a *Auction) Started(now time.Time) bool {
	return !now.Before(a.StartDate)
}

// Ended: аукцион завершён (now >= end).
func (a *Auction) Ended(now time.Time) bool {
	return !now.Before(a.EndDate)
}
