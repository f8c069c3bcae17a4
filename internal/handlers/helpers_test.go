package handlers_test

import (
	"NFTMarket/internal/config"
	"NFTMarket/internal/events"
	"NFTMarket/internal/handlers"
	"NFTMarket/internal/middleware"
	"NFTMarket/internal/model"
	"NFTMarket/internal/repo"
	"NFTMarket/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testAdminKey = "s3cret-admin"

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testServer struct {
	router  http.Handler
	cfg     *config.Config
	repos   repo.Repositories
	clock   *testClock
	creator model.User
	buyer   model.User
	bidder  model.User
	item    model.Item
}

// newTestServer поднимает роутер поверх отдельной in-memory БД с тремя пользователями и одной работой.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLoggedTestServer(t, zap.NewNop().Sugar())
}

// newLoggedTestServer: то же, но сервисы и хендлеры пишут в logger.
func newLoggedTestServer(t *testing.T, logger *zap.SugaredLogger) *testServer {
	t.Helper()
	db, err := repo.InitDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminKey), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{AuthSecret: "test-secret", AdminKeyHash: string(hash), PageSize: 20}

	s := &testServer{cfg: cfg, repos: repo.NewRepositories(db), clock: &testClock{now: t0}}
	tokenSvc := service.NewTokenService(s.repos, events.Nop{}, logger, service.WithClock(s.clock))
	itemSvc := service.NewItemService(s.repos, events.Nop{}, logger, service.WithClock(s.clock))
	s.router = handlers.NewHandler(tokenSvc, itemSvc, logger, cfg).Router

	ctx := context.Background()
	s.creator = model.User{Username: "creator", FirstName: "Ann", LastName: "Lee", WalletToken: "0xann"}
	s.buyer = model.User{Username: "buyer"}
	s.bidder = model.User{Username: "bidder"}
	for _, u := range []*model.User{&s.creator, &s.buyer, &s.bidder} {
		require.NoError(t, s.repos.Users().Create(ctx, u))
	}
	s.item = model.Item{ItemID: "abcdefghi", Title: "Work", Royalties: decimal.NewFromInt(5), CreatorID: s.creator.ID, TokenAmt: 3}
	require.NoError(t, s.repos.Items().Create(ctx, &s.item))
	return s
}

func addAuth(t *testing.T, req *http.Request, userID int64, secret string) {
	t.Helper()
	rr := httptest.NewRecorder()
	_ = middleware.SetLoginCookie(rr, userID, secret)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}

// do выполняет запрос; userID == 0: анонимный запрос.
func (s *testServer) do(t *testing.T, method, path, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		addAuth(t, req, userID, s.cfg.AuthSecret)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v), rr.Body.String())
	return v
}

// mintInstant выпускает n токенов основной работы в фиксированную продажу.
func (s *testServer) mintInstant(t *testing.T, n int, price string) handlers.ItemDTO {
	t.Helper()
	body := fmt.Sprintf(`{"ids":[{"from_id":1,"to_id":%d}],"sell_type":1,"price":%q}`, n, price)
	return s.mintFresh(t, body)
}

// mintFresh выпускает токены и оставляет в ответе только новые: выпуск отдаёт все непроданные токены работы.
func (s *testServer) mintFresh(t *testing.T, body string) handlers.ItemDTO {
	t.Helper()
	before, err := s.repos.Tokens().ListByItem(context.Background(), s.item.ID, false)
	require.NoError(t, err)
	seen := make(map[int64]bool, len(before))
	for _, tk := range before {
		seen[tk.ID] = true
	}

	rr := s.do(t, http.MethodPost, fmt.Sprintf("/api/items/me/items/%d/mint/", s.item.ID), body, s.creator.ID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	dto := decodeBody[handlers.ItemDTO](t, rr)
	fresh := dto.Tokens[:0]
	for _, tk := range dto.Tokens {
		if !seen[tk.ID] {
			fresh = append(fresh, tk)
		}
	}
	dto.Tokens = fresh
	return dto
}

// mintAuction выпускает один токен на аукционе [t0+1h, t0+25h).
func (s *testServer) mintAuction(t *testing.T, start string) handlers.ItemTokenDTO {
	t.Helper()
	body := fmt.Sprintf(`{"ids":[{"from_id":1,"to_id":1}],"sell_type":2,"price":%q,"auction":{"start_date":%q,"end_date":%q,"starting_bidding_price":%q}}`,
		start, t0.Add(time.Hour).Format(time.RFC3339), t0.Add(25*time.Hour).Format(time.RFC3339), start)
	dto := s.mintFresh(t, body)
	require.Len(t, dto.Tokens, 1)
	require.NotNil(t, dto.Tokens[0].Auction)
	return dto.Tokens[0]
}
