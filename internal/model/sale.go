package model

import "fmt"

// SaleType: способ продажи токена. Значения совпадают с внешним API (0/1/2).
type SaleType int

const (
	SaleNone       SaleType = 0
	SaleInstantBuy SaleType = 1
	SaleAuction    SaleType = 2
)

// Valid проверяет, что значение входит в перечисление.
func (s SaleType) Valid() bool {
	switch s {
	case SaleNone, SaleInstantBuy, SaleAuction:
		return true
	default:
		return false
	}
}

func (s SaleType) String() string {
	switch s {
	case SaleNone:
		return "NONE"
	case SaleInstantBuy:
		return "INSTANT_BUY"
	case SaleAuction:
		return "AUCTION"
	default:
		return fmt.Sprintf("SaleType(%d)", int(s))
	}
}

// SaleState: состояние токена, производное от sale_type/on_sale/auction.
type SaleState int

const (
	StateInvalid SaleState = iota
	StateNotForSale
	StateInstantBuy
	StateOnAuction
)

func (s SaleState) String() string {
	switch s {
	case StateNotForSale:
		return "NOT_FOR_SALE"
	case StateInstantBuy:
		return "INSTANT_BUY"
	case StateOnAuction:
		return "ON_AUCTION"
	default:
		return "INVALID"
	}
}
