package service

import (
	"NFTMarket/internal/events"
	"NFTMarket/internal/model"
	"NFTMarket/internal/repo"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BidParams: ставка из запроса.
type BidParams struct {
	AuctionID *int64
	Value     *decimal.Decimal
}

// PlaceBid добавляет ставку на аукцион токена.
// Чтение старшей ставки, проверка и вставка идут в одной транзакции под блокировкой строки аукциона.
func (s *TokenService) PlaceBid(ctx context.Context, bidderID, tokenID int64, p BidParams) (*TokenView, error) {
	if p.Value == nil {
		return nil, fieldErr("bid_value", ErrRequiredField, "This field is required.")
	}
	if err := validatePrice("bid_value", *p.Value); err != nil {
		return nil, err
	}
	if p.AuctionID == nil {
		return nil, fieldErr("auction", ErrMissingAuction, "This field is required.")
	}
	if _, err := s.repos.Tokens().GetByID(ctx, tokenID); err != nil {
		return nil, notFound(err)
	}

	var previous decimal.Decimal
	err := s.repos.Transaction(ctx, func(tx repo.Repositories) error {
		a, err := tx.Auctions().GetForUpdate(ctx, *p.AuctionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fieldErr("auction", ErrMissingAuction, "Invalid pk %q - object does not exist.", fmt.Sprint(*p.AuctionID))
		}
		if err != nil {
			return fmt.Errorf("lock auction: %w", err)
		}

		t, err := tx.Tokens().GetByAuctionID(ctx, a.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fieldErr("auction", ErrMissingAuction, "auction does not have a token")
		}
		if err != nil {
			return fmt.Errorf("auction token: %w", err)
		}
		if t.ID != tokenID {
			return fieldErr("auction", ErrInvalidField, "auction does not belong to this token")
		}

		now := s.now()
		if !a.Started(now) {
			return fieldErr("auction", ErrAuctionNotStarted, "bid must be created after %s", a.StartDate.UTC().Format(time.RFC3339))
		}
		if a.Ended(now) {
			return fieldErr("auction", ErrAuctionEnded, "auction has ended at %s", a.EndDate.UTC().Format(time.RFC3339))
		}

		highest, err := tx.Auctions().HighestBid(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("highest bid: %w", err)
		}
		if err := checkBidValue(a, highest, *p.Value); err != nil {
			return err
		}
		if t.OwnerID == bidderID {
			return fieldErr("auction", ErrSelfBid, "The user cannot place bid on their own token")
		}

		previous = a.CurrentBiddingPrice(highest)
		bid := &model.Bid{BidderID: bidderID, BidValue: *p.Value, AuctionID: a.ID}
		if err := tx.Auctions().CreateBid(ctx, bid); err != nil {
			return fmt.Errorf("create bid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("bid placed", "token_id", tokenID, "auction_id", *p.AuctionID, "bidder_id", bidderID, "value", p.Value.StringFixed(2))
	ev := events.New(events.BidPlaced, tokenID, s.now())
	ev.AuctionID = p.AuctionID
	ev.UserID = &bidderID
	ev.Amount = p.Value
	ev.PreviousAmount = &previous
	s.publish(ev)

	return s.GetToken(ctx, tokenID)
}

// checkBidValue: первая ставка может совпадать со стартовой ценой, каждая следующая строго больше старшей.
func checkBidValue(a *model.Auction, highest *model.Bid, value decimal.Decimal) error {
	if highest == nil {
		if value.LessThan(a.StartingBiddingPrice) {
			return fieldErr("bid_value", ErrBidTooLow, "Your bid is lower or not equal to the starting bid. Please enter a higher amount")
		}
		return nil
	}
	if !value.GreaterThan(highest.BidValue) {
		return fieldErr("bid_value", ErrBidTooLow, "Your bid is lower than the highest bid. Please enter a higher amount")
	}
	return nil
}

// FinalizeAuction закрывает завершившийся аукцион: токен уходит старшему участнику, если ставки были.
// Строки аукциона и ставок сохраняются, у токена сбрасывается только ссылка.
func (s *TokenService) FinalizeAuction(ctx context.Context, tokenID int64) (*TokenView, error) {
	var (
		auctionID int64
		winner    *model.Bid
	)
	err := s.withRetry("finalize_auction", func() error {
		return s.repos.Transaction(ctx, func(tx repo.Repositories) error {
			t, err := tx.Tokens().GetByID(ctx, tokenID)
			if err != nil {
				return notFound(err)
			}
			if t.AuctionID == nil {
				return fieldErr("token", ErrMissingAuction, "This token does not have an auction")
			}
			if !t.OnSale {
				return fieldErr("token", ErrNotOnSale, "Token is not on sale")
			}

			a, err := tx.Auctions().GetForUpdate(ctx, *t.AuctionID)
			if err != nil {
				return fmt.Errorf("lock auction: %w", err)
			}
			if !a.Ended(s.now()) {
				return fieldErr("Auction", ErrAuctionNotEnded, "Auction has not ended yet")
			}

			highest, err := tx.Auctions().HighestBid(ctx, a.ID)
			if err != nil {
				return fmt.Errorf("highest bid: %w", err)
			}
			updates := map[string]any{
				"on_sale":    false,
				"is_sold":    true,
				"auction_id": nil,
				"sell_type":  model.SaleNone,
				"price":      decimal.Zero,
			}
			if highest != nil {
				updates["owner_id"] = highest.BidderID
			}
			if _, err := tx.Tokens().UpdateWithVersion(ctx, t.ID, t.Version, updates); err != nil {
				return stale(err)
			}
			auctionID, winner = a.ID, highest
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	ev := events.New(events.AuctionFinalized, tokenID, s.now())
	ev.AuctionID = &auctionID
	if winner != nil {
		ev.UserID = &winner.BidderID
		ev.Amount = &winner.BidValue
		s.logger.Infow("auction finalized", "token_id", tokenID, "auction_id", auctionID, "winner_id", winner.BidderID, "value", winner.BidValue.StringFixed(2))
	} else {
		s.logger.Infow("auction finalized without bids", "token_id", tokenID, "auction_id", auctionID)
	}
	s.publish(ev)

	return s.GetToken(ctx, tokenID)
}
