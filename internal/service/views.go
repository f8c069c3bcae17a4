package service

import (
	"NFTMarket/internal/model"
	"NFTMarket/internal/repo"
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// AuctionView: аукцион с производными полями журнала ставок.
type AuctionView struct {
	Auction             *model.Auction
	CurrentBiddingPrice decimal.Decimal
	HighestBidderID     *int64
}

// TokenView: токен с числом одинаковых единиц у владельца и состоянием аукциона.
type TokenView struct {
	Token   *model.Token
	Supply  int64
	Auction *AuctionView
	// Likes: число отметок работы токена.
	Likes int64
}

// CurrentPrice: старшая ставка, иначе стартовая цена аукциона, иначе цена токена.
func (v *TokenView) CurrentPrice() decimal.Decimal {
	if v.Auction != nil {
		return v.Auction.CurrentBiddingPrice
	}
	return v.Token.Price
}

// PurchaseResult: купленный токен и следующий выставленный экземпляр у продавца.
type PurchaseResult struct {
	Old *TokenView
	New *TokenView
}

// ItemView: работа с непроданными токенами.
// Liked заполняется только для авторизованного зрителя.
type ItemView struct {
	Item      *model.Item
	TokenSold int64
	Tokens    []TokenView
	Likes     int64
	Liked     bool
}

func auctionView(ctx context.Context, r repo.Repositories, a *model.Auction) (*AuctionView, error) {
	if a == nil {
		return nil, nil
	}
	highest, err := r.Auctions().HighestBid(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("highest bid: %w", err)
	}
	return &AuctionView{
		Auction:             a,
		CurrentBiddingPrice: a.CurrentBiddingPrice(highest),
		HighestBidderID:     model.HighestBidderID(highest),
	}, nil
}

func tokenView(ctx context.Context, r repo.Repositories, t *model.Token) (*TokenView, error) {
	supply, err := r.Tokens().Supply(ctx, t.ItemID, t.OwnerID, t.OnSale)
	if err != nil {
		return nil, fmt.Errorf("supply: %w", err)
	}
	av, err := auctionView(ctx, r, t.Auction)
	if err != nil {
		return nil, err
	}
	likes, err := r.Items().LikeCount(ctx, t.ItemID)
	if err != nil {
		return nil, fmt.Errorf("like count: %w", err)
	}
	return &TokenView{Token: t, Supply: supply, Auction: av, Likes: likes}, nil
}

func tokenViews(ctx context.Context, r repo.Repositories, tokens []model.Token) ([]TokenView, error) {
	views := make([]TokenView, 0, len(tokens))
	for i := range tokens {
		v, err := tokenView(ctx, r, &tokens[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}
