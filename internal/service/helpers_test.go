package service

import (
	"NFTMarket/internal/events"
	"NFTMarket/internal/model"
	"NFTMarket/internal/repo"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubClock: управляемые часы для окон аукциона.
type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev events.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) Close() error { return m.Called().Error(0) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func saleType(s model.SaleType) *model.SaleType { return &s }

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	db      *gorm.DB
	repos   repo.Repositories
	clock   *stubClock
	pub     events.Publisher
	tokens  *TokenService
	items   *ItemService
	creator model.User
	buyer   model.User
	bidder  model.User
	item    model.Item
}

// newEnv поднимает отдельную in-memory БД и сервисы поверх неё.
func newEnv(t *testing.T, pub events.Publisher) *env {
	t.Helper()
	db, err := repo.InitDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if pub == nil {
		pub = events.Nop{}
	}
	e := &env{db: db, repos: repo.NewRepositories(db), clock: &stubClock{now: t0}, pub: pub}
	logger := zap.NewNop().Sugar()
	e.tokens = NewTokenService(e.repos, pub, logger, WithClock(e.clock))
	e.items = NewItemService(e.repos, pub, logger, WithClock(e.clock))

	ctx := context.Background()
	e.creator = model.User{Username: "creator", FirstName: "Ann", LastName: "Lee", WalletToken: "0xann"}
	e.buyer = model.User{Username: "buyer"}
	e.bidder = model.User{Username: "bidder"}
	for _, u := range []*model.User{&e.creator, &e.buyer, &e.bidder} {
		require.NoError(t, e.repos.Users().Create(ctx, u))
	}
	e.item = model.Item{ItemID: "abcdefghi", Title: "Work", Royalties: dec("5"), CreatorID: e.creator.ID, TokenAmt: 3}
	require.NoError(t, e.repos.Items().Create(ctx, &e.item))
	return e
}

// mint выпускает токены работы e.item через сервис.
func (e *env) mint(t *testing.T, p MintParams) *ItemView {
	t.Helper()
	return e.mintOn(t, e.item.ID, p)
}

func (e *env) mintOn(t *testing.T, itemID int64, p MintParams) *ItemView {
	t.Helper()
	v, err := e.items.Mint(context.Background(), e.creator.ID, itemID, p)
	require.NoError(t, err)
	return v
}

// mintedOn выпускает токены и возвращает только новые: Mint отдаёт все непроданные токены работы.
func (e *env) mintedOn(t *testing.T, itemID int64, p MintParams) []TokenView {
	t.Helper()
	before, err := e.repos.Tokens().ListByItem(context.Background(), itemID, false)
	require.NoError(t, err)
	seen := make(map[int64]bool, len(before))
	for _, tk := range before {
		seen[tk.ID] = true
	}

	v := e.mintOn(t, itemID, p)
	var fresh []TokenView
	for _, tv := range v.Tokens {
		if !seen[tv.Token.ID] {
			fresh = append(fresh, tv)
		}
	}
	return fresh
}

// newItem создаёт ещё одну работу создателя.
func (e *env) newItem(t *testing.T, publicID string) *model.Item {
	t.Helper()
	it := &model.Item{ItemID: publicID, Title: "Other", Royalties: dec("0"), CreatorID: e.creator.ID, TokenAmt: 1}
	require.NoError(t, e.repos.Items().Create(context.Background(), it))
	return it
}

// instantTokens выпускает n токенов в фиксированную продажу по цене price.
func (e *env) instantTokens(t *testing.T, n int, price string) []TokenView {
	t.Helper()
	tokens := e.mintedOn(t, e.item.ID, MintParams{
		Ranges:     []Range{{From: 1, To: n}},
		SaleParams: SaleParams{SellType: saleType(model.SaleInstantBuy), Price: decPtr(price)},
	})
	require.Len(t, tokens, n)
	return tokens
}

// auctionToken выпускает один токен на аукционе [t0+1h, t0+25h) со стартовой ценой start.
func (e *env) auctionToken(t *testing.T, start string) *model.Token {
	t.Helper()
	return e.auctionTokenOn(t, e.item.ID, start)
}

func (e *env) auctionTokenOn(t *testing.T, itemID int64, start string) *model.Token {
	t.Helper()
	tokens := e.mintedOn(t, itemID, MintParams{
		Ranges: []Range{{From: 1, To: 1}},
		SaleParams: SaleParams{
			SellType: saleType(model.SaleAuction),
			Price:    decPtr(start),
			Auction: &AuctionParams{
				StartDate:            t0.Add(time.Hour),
				EndDate:              t0.Add(25 * time.Hour),
				StartingBiddingPrice: dec(start),
			},
		},
	})
	require.Len(t, tokens, 1)
	return tokens[0].Token
}

func (e *env) reload(t *testing.T, id int64) *model.Token {
	t.Helper()
	tk, err := e.repos.Tokens().GetByID(context.Background(), id)
	require.NoError(t, err)
	return tk
}
