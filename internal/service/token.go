package service

import (
	"NFTMarket/internal/events"
	"NFTMarket/internal/model"
	"NFTMarket/internal/repo"
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenService: автомат продажи токенов: перепродажа, покупка, ставки, завершение аукциона.
type TokenService struct {
	deps
}

// NewTokenService создаёт сервис токенов.
func NewTokenService(r repo.Repositories, p events.Publisher, logger *zap.SugaredLogger, opts ...Option) *TokenService {
	return &TokenService{deps: newDeps(r, p, logger, opts)}
}

// UpdateParams: изменения токена владельцем; nil означает, что поле не передано.
type UpdateParams struct {
	SaleParams
	OnSale      *bool
	TokenNumber *int
}

func (p UpdateParams) touchesSale() bool {
	return p.SellType != nil || p.Price != nil || p.Auction != nil || p.OnSale != nil
}

// GetToken возвращает токен с supply и состоянием аукциона.
func (s *TokenService) GetToken(ctx context.Context, id int64) (*TokenView, error) {
	t, err := s.repos.Tokens().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return tokenView(ctx, s.repos, t)
}

// CatalogFilter: условия витрины и каталога работ; пустые поля не фильтруют.
type CatalogFilter struct {
	CategoryIDs   []int64
	Featured      bool
	Topseller     bool
	SuperFeatured bool
}

// ListMarket: витрина: по одному токену на группу, только то, что сейчас можно купить.
func (s *TokenService) ListMarket(ctx context.Context, f CatalogFilter, p Page) (*Paged[TokenView], error) {
	return s.listTokens(ctx, "list market", repo.TokenFilter{
		CategoryIDs:   f.CategoryIDs,
		Featured:      f.Featured,
		Topseller:     f.Topseller,
		SuperFeatured: f.SuperFeatured,
		OnSaleOnly:    true,
	}, p)
}

// ListOwned: токены пользователя; onSaleOnly оставляет выставленные на продажу.
func (s *TokenService) ListOwned(ctx context.Context, userID int64, onSaleOnly bool, p Page) (*Paged[TokenView], error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	return s.listTokens(ctx, "list owned", repo.TokenFilter{OwnerID: &userID, OnSaleOnly: onSaleOnly}, p)
}

// ListCreated: токены работ, в соавторах которых есть пользователь, у любых владельцев.
func (s *TokenService) ListCreated(ctx context.Context, userID int64, p Page) (*Paged[TokenView], error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	return s.listTokens(ctx, "list created", repo.TokenFilter{CollaboratorID: &userID}, p)
}

// ListLiked: токены работ, отмеченных пользователем.
func (s *TokenService) ListLiked(ctx context.Context, userID int64, p Page) (*Paged[TokenView], error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	return s.listTokens(ctx, "list liked", repo.TokenFilter{LikedByID: &userID}, p)
}

func (s *TokenService) userExists(ctx context.Context, userID int64) error {
	if _, err := s.repos.Users().GetByID(ctx, userID); err != nil {
		return notFound(err)
	}
	return nil
}

func (s *TokenService) listTokens(ctx context.Context, op string, f repo.TokenFilter, p Page) (*Paged[TokenView], error) {
	p = s.page(p)
	f.ActiveAt = s.now()
	f.Limit, f.Offset = p.Limit, p.Offset
	tokens, err := s.repos.Tokens().ListRepresentatives(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	views, err := tokenViews(ctx, s.repos, tokens)
	if err != nil {
		return nil, err
	}
	return &Paged[TokenView]{Results: views, Limit: p.Limit, Offset: p.Offset}, nil
}

// UpdateToken применяет изменения владельца: перепродажу, снятие с продажи, смену номера.
func (s *TokenService) UpdateToken(ctx context.Context, callerID, tokenID int64, p UpdateParams) (*TokenView, error) {
	if p.TokenNumber != nil && *p.TokenNumber < 1 {
		return nil, fieldErr("token_number", ErrInvalidField, "Ensure this value is greater than or equal to 1.")
	}

	var sale *Sale
	if p.touchesSale() {
		if p.SellType == nil && p.OnSale != nil && !*p.OnSale {
			none := model.SaleNone
			p.SellType = &none
		}
		v, err := p.SaleParams.Validate(ModeResell, s.now())
		if err != nil {
			return nil, err
		}
		if p.OnSale != nil && *p.OnSale != (v.Type != model.SaleNone) {
			return nil, fieldErr("on_sale", ErrInvalidField, "on_sale must be %t for sell_type %d", v.Type != model.SaleNone, int(v.Type))
		}
		sale = &v
	}

	err := s.withRetry("update_token", func() error {
		return s.repos.Transaction(ctx, func(tx repo.Repositories) error {
			cur, err := tx.Tokens().GetByID(ctx, tokenID)
			if err != nil {
				return notFound(err)
			}
			if cur.OwnerID != callerID {
				return fieldErr("token", ErrNotOwner, "user is not the owner of the token")
			}

			updates := map[string]any{}
			if p.TokenNumber != nil {
				updates["token_number"] = *p.TokenNumber
			}
			if sale != nil {
				if err := s.applyResale(ctx, tx, sale, updates); err != nil {
					return err
				}
			}
			if len(updates) == 0 {
				return nil
			}
			_, err = tx.Tokens().UpdateWithVersion(ctx, tokenID, cur.Version, updates)
			return stale(err)
		})
	})
	if err != nil {
		return nil, err
	}
	if sale != nil {
		s.logger.Infow("token sale updated", "token_id", tokenID, "sell_type", sale.Type.String(), "price", sale.Price.StringFixed(2))
	}
	return s.GetToken(ctx, tokenID)
}

// applyResale заполняет updates переходом в новое состояние продажи.
// Прежний аукцион только отвязывается, его строка и ставки остаются.
func (s *TokenService) applyResale(ctx context.Context, tx repo.Repositories, sale *Sale, updates map[string]any) error {
	switch sale.Type {
	case model.SaleAuction:
		a := &model.Auction{
			StartDate:            sale.Auction.StartDate,
			EndDate:              sale.Auction.EndDate,
			StartingBiddingPrice: sale.Auction.StartingBiddingPrice,
		}
		if err := tx.Auctions().Create(ctx, a); err != nil {
			return fmt.Errorf("create auction: %w", err)
		}
		updates["auction_id"] = a.ID
		updates["sell_type"] = model.SaleAuction
		updates["price"] = sale.Price
		updates["on_sale"] = true
	case model.SaleInstantBuy:
		updates["auction_id"] = nil
		updates["sell_type"] = model.SaleInstantBuy
		updates["price"] = sale.Price
		updates["on_sale"] = true
	case model.SaleNone:
		updates["auction_id"] = nil
		updates["sell_type"] = model.SaleNone
		updates["price"] = decimal.Zero
		updates["on_sale"] = false
	default:
		return fieldErr("sell_type", ErrInvalidSaleType, "%d is not a valid sell_type value", int(sale.Type))
	}
	return nil
}

// Purchase покупает токен по фиксированной цене.
// Запись условна по версии: проигравший в гонке покупатель после перечитывания получает ErrNotOnSale.
func (s *TokenService) Purchase(ctx context.Context, buyerID, tokenID int64, price *decimal.Decimal) (*PurchaseResult, error) {
	var cur *model.Token
	err := s.withRetry("purchase", func() error {
		t, err := s.repos.Tokens().GetByID(ctx, tokenID)
		if err != nil {
			return notFound(err)
		}
		if err := checkPurchase(t, buyerID, price); err != nil {
			return err
		}
		_, err = s.repos.Tokens().UpdateWithVersion(ctx, t.ID, t.Version, map[string]any{
			"on_sale":  false,
			"is_sold":  true,
			"owner_id": buyerID,
		})
		if err != nil {
			return stale(err)
		}
		cur = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	sellerID := cur.OwnerID
	s.logger.Infow("token purchased", "token_id", tokenID, "buyer_id", buyerID, "seller_id", sellerID, "price", price.StringFixed(2))
	ev := events.New(events.TokenPurchased, tokenID, s.now())
	ev.UserID = &buyerID
	ev.Amount = price
	s.publish(ev)

	old, err := s.GetToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	res := &PurchaseResult{Old: old}

	next, err := s.repos.Tokens().FindOnSaleSibling(ctx, cur.ItemID, sellerID, tokenID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("find next token: %w", err)
	default:
		if res.New, err = tokenView(ctx, s.repos, next); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func checkPurchase(t *model.Token, buyerID int64, price *decimal.Decimal) error {
	if !t.OnSale {
		return fieldErr("token", ErrNotOnSale, "Token is not on sale")
	}
	if t.OwnerID == buyerID {
		return fieldErr("token", ErrAlreadyOwned, "Token is already owned by user")
	}
	if t.SaleType != model.SaleInstantBuy {
		return fieldErr("token", ErrWrongSaleType, "Token is not instant buy")
	}
	if price == nil {
		return fieldErr("price", ErrRequiredField, "Price is required")
	}
	if !price.Equal(t.Price) {
		return fieldErr("price", ErrPriceMismatch, "Price must equal %s", t.Price.StringFixed(2))
	}
	return nil
}

// RemoveFromSale снимает токены с продажи без проверки владельца и удаляет их аукционы со ставками.
func (s *TokenService) RemoveFromSale(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, fieldErr("token_ids", ErrRequiredField, "This field is required.")
	}

	var (
		updated int64
		tokens  []model.Token
	)
	err := s.repos.Transaction(ctx, func(tx repo.Repositories) error {
		var err error
		tokens, err = tx.Tokens().ListByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("list tokens: %w", err)
		}
		var auctionIDs []int64
		for _, t := range tokens {
			if t.AuctionID != nil {
				auctionIDs = append(auctionIDs, *t.AuctionID)
			}
		}
		if updated, err = tx.Tokens().ClearSale(ctx, ids); err != nil {
			return fmt.Errorf("clear sale: %w", err)
		}
		if err := tx.Auctions().DeleteWithBids(ctx, auctionIDs); err != nil {
			return fmt.Errorf("delete auctions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Infow("tokens removed from sale", "requested", len(ids), "updated", updated)
	now := s.now()
	for _, t := range tokens {
		ev := events.New(events.RemovedFromSale, t.ID, now)
		ev.AuctionID = t.AuctionID
		s.publish(ev)
	}
	return updated, nil
}
