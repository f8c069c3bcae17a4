package service

import (
	"NFTMarket/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationMode задаёт, для какого запроса проверяются параметры продажи.
type ValidationMode int

const (
	// ModeMint: выпуск токенов: sell_type можно не указывать (NONE), цена обязательна.
	ModeMint ValidationMode = iota
	// ModeResell: повторная продажа владельцем: sell_type обязателен, цена обязательна кроме NONE.
	ModeResell
)

// maxWholePrice: граница для numeric(12,2): 10 цифр целой части.
var maxWholePrice = decimal.New(1, 10)

// AuctionParams: параметры создаваемого аукциона.
type AuctionParams struct {
	StartDate            time.Time
	EndDate              time.Time
	StartingBiddingPrice decimal.Decimal
}

// SaleParams: параметры продажи из запроса; nil означает, что поле не передано.
type SaleParams struct {
	SellType *model.SaleType
	Price    *decimal.Decimal
	Auction  *AuctionParams
}

// Sale: проверенные параметры продажи.
type Sale struct {
	Type    model.SaleType
	Price   decimal.Decimal
	Auction *AuctionParams
}

// Validate проверяет параметры продажи для режима mode на момент now.
func (p SaleParams) Validate(mode ValidationMode, now time.Time) (Sale, error) {
	sale := Sale{Type: model.SaleNone}

	if p.SellType == nil {
		if mode == ModeResell {
			return Sale{}, fieldErr("sell_type", ErrRequiredField, "This field is required.")
		}
	} else {
		if !p.SellType.Valid() {
			return Sale{}, fieldErr("sell_type", ErrInvalidSaleType, "%d is not a valid sell_type value", int(*p.SellType))
		}
		sale.Type = *p.SellType
	}

	switch {
	case p.Price != nil:
		if err := validatePrice("price", *p.Price); err != nil {
			return Sale{}, err
		}
		sale.Price = *p.Price
	case mode == ModeResell && sale.Type == model.SaleNone:
		sale.Price = decimal.Zero
	default:
		return Sale{}, fieldErr("price", ErrRequiredField, "This field is required.")
	}

	switch sale.Type {
	case model.SaleAuction:
		if p.Auction == nil {
			return Sale{}, fieldErr("auction", ErrMissingAuction, "This field is required.")
		}
		if err := p.Auction.validate(now); err != nil {
			return Sale{}, err
		}
		if !p.Auction.StartingBiddingPrice.Equal(sale.Price) {
			return Sale{}, fieldErr("auction", ErrPriceMismatch, "starting_bidding_price must be equal to price")
		}
		a := *p.Auction
		a.StartDate = a.StartDate.UTC()
		a.EndDate = a.EndDate.UTC()
		sale.Auction = &a
	case model.SaleNone, model.SaleInstantBuy:
		if p.Auction != nil {
			return Sale{}, fieldErr("auction", ErrWrongSaleType, "auction is used with sell_type %d", int(model.SaleAuction))
		}
	}
	return sale, nil
}

func (a *AuctionParams) validate(now time.Time) error {
	if !a.StartDate.After(now) {
		return fieldErr("auction", ErrInvalidAuctionWindow, "start_date must be later than now.")
	}
	if !a.EndDate.After(a.StartDate) {
		return fieldErr("auction", ErrInvalidAuctionWindow, "end_date must be after start_date")
	}
	return validatePrice("auction", a.StartingBiddingPrice)
}

// validatePrice: неотрицательное число с не более чем двумя знаками после запятой в пределах numeric(12,2).
func validatePrice(field string, p decimal.Decimal) error {
	if p.IsNegative() {
		return fieldErr(field, ErrInvalidPrice, "Ensure this value is greater than or equal to 0.")
	}
	if !p.Equal(p.Truncate(2)) {
		return fieldErr(field, ErrInvalidPrice, "Ensure that there are no more than 2 decimal places.")
	}
	if p.GreaterThanOrEqual(maxWholePrice) {
		return fieldErr(field, ErrInvalidPrice, "Ensure that there are no more than 12 digits in total.")
	}
	return nil
}
