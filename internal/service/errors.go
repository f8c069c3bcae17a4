package service

import (
	"errors"
	"fmt"
)

// Ошибки автомата продажи и журнала ставок.
var (
	ErrNotOwner          = errors.New("not owner")
	ErrNotOnSale         = errors.New("not on sale")
	ErrAlreadyOwned      = errors.New("already owned")
	ErrWrongSaleType     = errors.New("wrong sale type")
	ErrPriceMismatch     = errors.New("price mismatch")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrAuctionNotStarted = errors.New("auction not started")
	ErrAuctionEnded      = errors.New("auction ended")
	ErrAuctionNotEnded   = errors.New("auction not ended")
	ErrBidTooLow         = errors.New("bid too low")
	ErrSelfBid           = errors.New("self bid")
	ErrMissingAuction    = errors.New("missing auction")
)

// Ошибки валидации входных данных.
var (
	ErrInvalidSaleType      = errors.New("invalid sale type")
	ErrInvalidAuctionWindow = errors.New("invalid auction window")
	ErrInvalidRange         = errors.New("invalid id range")
	ErrInvalidCollaborators = errors.New("invalid collaborators")
	ErrRequiredField        = errors.New("required field")
	ErrInvalidField         = errors.New("invalid field")
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict: параллельная запись не дала применить изменение за отведённое число попыток.
	ErrConflict = errors.New("concurrent update conflict")
)

// FieldError: ошибка валидации, привязанная к полю запроса.
// Err: сентинел из таксономии выше, по нему работает errors.Is.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(field string, kind error, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...), Err: kind}
}
