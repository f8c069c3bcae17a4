package service

import (
	"NFTMarket/internal/model"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleParams_Validate(t *testing.T) {
	window := func(start string) *AuctionParams {
		return &AuctionParams{StartDate: t0.Add(time.Hour), EndDate: t0.Add(2 * time.Hour), StartingBiddingPrice: dec(start)}
	}

	tests := []struct {
		name    string
		mode    ValidationMode
		params  SaleParams
		field   string
		wantErr error
	}{
		{"mint without sell_type", ModeMint, SaleParams{Price: decPtr("1")}, "", nil},
		{"mint requires price", ModeMint, SaleParams{SellType: saleType(model.SaleInstantBuy)}, "price", ErrRequiredField},
		{"resell requires sell_type", ModeResell, SaleParams{Price: decPtr("1")}, "sell_type", ErrRequiredField},
		{"resell NONE without price", ModeResell, SaleParams{SellType: saleType(model.SaleNone)}, "", nil},
		{"resell instant requires price", ModeResell, SaleParams{SellType: saleType(model.SaleInstantBuy)}, "price", ErrRequiredField},
		{"unknown sell_type", ModeResell, SaleParams{SellType: saleType(7), Price: decPtr("1")}, "sell_type", ErrInvalidSaleType},
		{"negative price", ModeMint, SaleParams{Price: decPtr("-1")}, "price", ErrInvalidPrice},
		{"three decimals", ModeMint, SaleParams{Price: decPtr("1.005")}, "price", ErrInvalidPrice},
		{"too many digits", ModeMint, SaleParams{Price: decPtr("10000000000")}, "price", ErrInvalidPrice},
		{"auction missing", ModeResell, SaleParams{SellType: saleType(model.SaleAuction), Price: decPtr("10")}, "auction", ErrMissingAuction},
		{"auction with instant buy", ModeResell, SaleParams{SellType: saleType(model.SaleInstantBuy), Price: decPtr("10"), Auction: window("10")}, "auction", ErrWrongSaleType},
		{"starting price differs", ModeResell, SaleParams{SellType: saleType(model.SaleAuction), Price: decPtr("10"), Auction: window("9")}, "auction", ErrPriceMismatch},
		{"start not in future", ModeResell, SaleParams{
			SellType: saleType(model.SaleAuction), Price: decPtr("10"),
			Auction: &AuctionParams{StartDate: t0, EndDate: t0.Add(time.Hour), StartingBiddingPrice: dec("10")},
		}, "auction", ErrInvalidAuctionWindow},
		{"end before start", ModeResell, SaleParams{
			SellType: saleType(model.SaleAuction), Price: decPtr("10"),
			Auction: &AuctionParams{StartDate: t0.Add(2 * time.Hour), EndDate: t0.Add(time.Hour), StartingBiddingPrice: dec("10")},
		}, "auction", ErrInvalidAuctionWindow},
		{"valid auction", ModeResell, SaleParams{SellType: saleType(model.SaleAuction), Price: decPtr("10"), Auction: window("10.00")}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.params.Validate(tt.mode, t0)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestSaleParams_Validate_Result(t *testing.T) {
	t.Run("mint defaults to NONE", func(t *testing.T) {
		s, err := SaleParams{Price: decPtr("3")}.Validate(ModeMint, t0)
		require.NoError(t, err)
		assert.Equal(t, model.SaleNone, s.Type)
		assert.Nil(t, s.Auction)
	})

	t.Run("withdraw gets zero price", func(t *testing.T) {
		s, err := SaleParams{SellType: saleType(model.SaleNone)}.Validate(ModeResell, t0)
		require.NoError(t, err)
		assert.True(t, s.Price.IsZero())
	})

	t.Run("auction dates normalized to UTC", func(t *testing.T) {
		zone := time.FixedZone("MSK", 3*3600)
		start := t0.Add(time.Hour).In(zone)
		s, err := SaleParams{
			SellType: saleType(model.SaleAuction),
			Price:    decPtr("10"),
			Auction:  &AuctionParams{StartDate: start, EndDate: start.Add(time.Hour), StartingBiddingPrice: dec("10")},
		}.Validate(ModeMint, t0)
		require.NoError(t, err)
		require.NotNil(t, s.Auction)
		assert.Equal(t, time.UTC, s.Auction.StartDate.Location())
		assert.True(t, s.Auction.StartDate.Equal(start))
	})
}
