package service

import (
	"NFTMarket/internal/model"
	"NFTMarket/internal/repo"
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// MaxMintTokens: предел числа токенов за один выпуск.
const MaxMintTokens = 10000

// Range: отрезок [From, To] внешних номеров выпуска.
type Range struct {
	From int
	To   int
}

// MintParams: запрос на выпуск токенов.
type MintParams struct {
	Ranges []Range
	SaleParams
}

// Mint выпускает по токену на каждый номер из отрезков для работы создателя callerID.
// Проверки выполняются до записи; аукцион и токены пишутся в одной транзакции.
// Параллельный выпуск по одной работе может дать повторы token_number, это не отслеживается.
func (s *ItemService) Mint(ctx context.Context, callerID, itemID int64, p MintParams) (*ItemView, error) {
	it, err := s.repos.Items().GetByCreator(ctx, callerID, itemID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := validateRanges(p.Ranges); err != nil {
		return nil, err
	}
	sale, err := p.SaleParams.Validate(ModeMint, s.now())
	if err != nil {
		return nil, err
	}

	tokens := planMint(it, p.Ranges, sale)
	err = s.repos.Transaction(ctx, func(tx repo.Repositories) error {
		if sale.Auction != nil {
			a := &model.Auction{
				StartDate:            sale.Auction.StartDate,
				EndDate:              sale.Auction.EndDate,
				StartingBiddingPrice: sale.Auction.StartingBiddingPrice,
			}
			if err := tx.Auctions().Create(ctx, a); err != nil {
				return fmt.Errorf("create auction: %w", err)
			}
			tokens[0].AuctionID = &a.ID
		}
		for i := range tokens {
			if err := tokens[i].Validate(); err != nil {
				return fmt.Errorf("token %d: %w", tokens[i].TokenNumber, err)
			}
		}
		if err := tx.Tokens().CreateBatch(ctx, tokens); err != nil {
			return fmt.Errorf("create tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("tokens minted", "item_id", it.ID, "count", len(tokens), "sell_type", sale.Type.String())
	return s.GetItem(ctx, callerID, it.ID)
}

// validateRanges: список не пуст, в каждом отрезке 0 <= from <= to, отрезки не пересекаются,
// всего не больше MaxMintTokens номеров.
func validateRanges(ranges []Range) error {
	if len(ranges) == 0 {
		return fieldErr("ids", ErrRequiredField, "This field is required.")
	}
	total := 0
	for _, r := range ranges {
		if r.From < 0 || r.From > r.To {
			return fieldErr("from_id", ErrInvalidRange, "invalid id range")
		}
		// r.To-r.From не переполняется: оба конца неотрицательны.
		if r.To-r.From >= MaxMintTokens-total {
			return fieldErr("ids", ErrInvalidRange, "Ensure no more than %d tokens are minted at once.", MaxMintTokens)
		}
		total += r.To - r.From + 1
	}
	sorted := append([]Range(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].From <= sorted[i-1].To {
			return fieldErr("ids", ErrInvalidRange, "id ranges must not overlap")
		}
	}
	return nil
}

// planMint раскладывает отрезки в токены: token_number идёт с 1 в порядке отрезков, mint_id равен номеру.
// При продаже с аукциона аукцион получает только первый токен, остальные не выставляются.
func planMint(it *model.Item, ranges []Range, sale Sale) []model.Token {
	var tokens []model.Token
	onSale := sale.Type != model.SaleNone
	number := 1
	for _, r := range ranges {
		for n := 0; n <= r.To-r.From; n++ {
			t := model.Token{
				TokenNumber: number,
				MintID:      r.From + n,
				ItemID:      it.ID,
				OwnerID:     it.CreatorID,
				SaleType:    sale.Type,
				Price:       sale.Price,
				OnSale:      onSale,
				Version:     1,
			}
			if sale.Type == model.SaleAuction && number > 1 {
				t.SaleType = model.SaleNone
				t.OnSale = false
				t.Price = decimal.Zero
			}
			tokens = append(tokens, t)
			number++
		}
	}
	return tokens
}
