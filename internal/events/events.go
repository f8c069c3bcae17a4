// Package events публикует доменные события рынка после фиксации транзакций.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type: вид события.
type Type string

const (
	BidPlaced        Type = "bid_placed"
	TokenPurchased   Type = "token_purchased"
	AuctionFinalized Type = "auction_finalized"
	RemovedFromSale  Type = "removed_from_sale"
)

// Event: событие, уходящее во внешние системы (архив, live-обновления).
type Event struct {
	ID             string           `json:"id"`
	Type           Type             `json:"type"`
	TokenID        int64            `json:"token_id"`
	AuctionID      *int64           `json:"auction_id,omitempty"`
	UserID         *int64           `json:"user_id,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	PreviousAmount *decimal.Decimal `json:"previous_amount,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// New заполняет идентификатор и время события.
func New(t Type, tokenID int64, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, TokenID: tokenID, OccurredAt: at.UTC()}
}

// Publisher отправляет события. Ошибка публикации не должна откатывать операцию.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop: публикатор, который ничего не делает (нет настроенных брокеров, тесты).
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Multi рассылает событие всем публикаторам и собирает ошибки.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
