package handlers_test

import (
	"NFTMarket/internal/handlers"
	"NFTMarket/internal/model"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItems_Categories(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	for _, name := range []string{"Art", "Music"} {
		require.NoError(t, s.repos.Items().CreateCategory(ctx, &model.Category{Name: name}))
	}

	rr := s.do(t, http.MethodGet, "/api/categories/", "", 0)
	require.Equal(t, http.StatusOK, rr.Code)
	cs := decodeBody[[]handlers.CategoryDTO](t, rr)
	require.Len(t, cs, 2)
	assert.Equal(t, "Art", cs[0].Name)
}

func TestItems_CategoriesGzip(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/categories/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestItems_CreateDefaultCollaborator(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodPost, "/api/items/me/items/", `{"title":"  New work ","royalties":"7.5","file1":"ipfs://a"}`, s.creator.ID)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	it := decodeBody[handlers.ItemDTO](t, rr)
	assert.Len(t, it.ItemID, 9)
	assert.Equal(t, "New work", it.Title)
	assert.Equal(t, "7.50", it.Royalties)
	assert.Equal(t, 1, it.TokenAmt)
	assert.Equal(t, s.creator.ID, it.Creator)
	assert.Equal(t, "Ann Lee", it.CreatorName)
	require.Len(t, it.Collaborators, 1)
	assert.Equal(t, s.creator.ID, it.Collaborators[0].User)
	assert.Equal(t, "100.00", it.Collaborators[0].SharePercentage)
	assert.Equal(t, "0xann", it.Collaborators[0].WalletToken)
	assert.Empty(t, it.Tokens)
}

func TestItems_CreateValidation(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"empty title", `{"title":" ","royalties":1}`, "title"},
		{"royalties above 100", `{"title":"a","royalties":"100.01"}`, "royalties"},
		{"negative token_amt", `{"title":"a","royalties":1,"token_amt":-1}`, "token_amt"},
		{"unknown category", `{"title":"a","royalties":1,"category":42}`, "category"},
		{"split not 100", fmt.Sprintf(`{"title":"a","royalties":1,"collaborators":[{"user":%d,"share_percentage":"60"},{"user":%d,"share_percentage":"30"}]}`, s.creator.ID, s.buyer.ID), "collaborator"},
		{"collaborator without user", `{"title":"a","royalties":1,"collaborators":[{"share_percentage":"100"}]}`, "collaborator"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := s.do(t, http.MethodPost, "/api/items/me/items/", c.body, s.creator.ID)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Contains(t, rr.Body.String(), fmt.Sprintf("%q", c.field))
		})
	}

	rr := s.do(t, http.MethodPost, "/api/items/me/items/", `{"title":"a"}`, 0)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestItems_GetShowsSoldCount(t *testing.T) {
	s := newTestServer(t)
	minted := s.mintInstant(t, 2, "10")
	require.Len(t, minted.Tokens, 2)

	rr := s.do(t, http.MethodPost, fmt.Sprintf("/api/tokens/%d/purchase/", minted.Tokens[0].ID), `{"price":"10"}`, s.buyer.ID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodGet, fmt.Sprintf("/api/items/%d/", s.item.ID), "", 0)
	require.Equal(t, http.StatusOK, rr.Code)
	it := decodeBody[handlers.ItemDTO](t, rr)
	assert.Equal(t, int64(1), it.TokenSold)
	require.Len(t, it.Tokens, 1)
	assert.Equal(t, minted.Tokens[1].ID, it.Tokens[0].ID)

	rr = s.do(t, http.MethodGet, "/api/items/999/", "", 0)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestItems_Mint(t *testing.T) {
	s := newTestServer(t)
	path := fmt.Sprintf("/api/items/me/items/%d/mint/", s.item.ID)

	rr := s.do(t, http.MethodPost, path, `{"ids":[{"from_id":1,"to_id":2}],"sell_type":1,"price":"10"}`, s.buyer.ID)
	assert.Equal(t, http.StatusNotFound, rr.Code, "only the creator can mint")

	rr = s.do(t, http.MethodPost, path, `{"ids":[{"from_id":1,"to_id":3},{"from_id":3,"to_id":4}],"sell_type":1,"price":"10"}`, s.creator.ID)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"ids":["id ranges must not overlap"]}`, rr.Body.String())

	rr = s.do(t, http.MethodPost, path, `{"ids":[],"sell_type":1,"price":"10"}`, s.creator.ID)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ids"`)

	rr = s.do(t, http.MethodPost, path, `{"ids":[{"from_id":1,"to_id":2}],"sell_type":2,"price":"10"}`, s.creator.ID)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"auction"`)

	rr = s.do(t, http.MethodPost, path, `{"ids":[{"from_id":1,"to_id":2},{"from_id":5,"to_id":5}],"sell_type":1,"price":4}`, s.creator.ID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	it := decodeBody[handlers.ItemDTO](t, rr)
	require.Len(t, it.Tokens, 3)
	for _, tk := range it.Tokens {
		assert.True(t, tk.OnSale)
		assert.Equal(t, "4.00", tk.Price)
		assert.Equal(t, 1, tk.SellType)
		assert.Nil(t, tk.Auction)
	}
}

func TestItems_MintAuctionLot(t *testing.T) {
	s := newTestServer(t)
	lot := s.mintAuction(t, "10")
	assert.Equal(t, 2, lot.SellType)
	assert.Equal(t, "10.00", lot.Auction.StartingBiddingPrice)
	assert.Equal(t, "10.00", lot.Auction.CurrentBiddingPrice)
	assert.Nil(t, lot.Auction.HighestBidderID)
}

func TestItems_Metadata(t *testing.T) {
	s := newTestServer(t)
	s.mintInstant(t, 2, "10")

	rr := s.do(t, http.MethodGet, "/api/metadata/abcdefghi/2/", "", 0)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	md := decodeBody[handlers.MetadataDTO](t, rr)
	assert.Equal(t, 2, md.TokenNumber)
	assert.Equal(t, "Work", md.Name)
	assert.Equal(t, "Ann Lee", md.Creator)
	assert.Equal(t, "Ann Lee", md.Owner)
	assert.Nil(t, md.Category)
	assert.Nil(t, md.File1)
	assert.Empty(t, md.Files)

	for _, path := range []string{"/api/metadata/abcdefghi/9/", "/api/metadata/zzzzzzzzz/1/", "/api/metadata/abcdefghi/x/"} {
		rr = s.do(t, http.MethodGet, path, "", 0)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestItems_CreateDuplicateContractAddress(t *testing.T) {
	s := newTestServer(t)
	body := `{"title":"Contract","royalties":1,"contract_address":"0xfeed"}`
	rr := s.do(t, http.MethodPost, "/api/items/me/items/", body, s.creator.ID)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPost, "/api/items/me/items/", body, s.buyer.ID)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"contract_address":["item with this contract address already exists."]}`, rr.Body.String())
}

func TestItems_ListCatalog(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	top := &model.Item{ItemID: "topsell01", Title: "Top", Royalties: decimal.Zero, CreatorID: s.buyer.ID, TokenAmt: 1, IsTopseller: true}
	require.NoError(t, s.repos.Items().Create(ctx, top))

	rr := s.do(t, http.MethodGet, "/api/items/", "", 0)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	all := decodeBody[handlers.ListDTO[handlers.ItemDTO]](t, rr)
	assert.Len(t, all.Results, 2)
	assert.Equal(t, 20, all.Limit)

	rr = s.do(t, http.MethodGet, "/api/items/?is_topseller=true&limit=1", "", 0)
	require.Equal(t, http.StatusOK, rr.Code)
	only := decodeBody[handlers.ListDTO[handlers.ItemDTO]](t, rr)
	require.Len(t, only.Results, 1)
	assert.Equal(t, "Top", only.Results[0].Title)
	assert.Equal(t, 1, only.Limit)
}

func TestItems_MyItems(t *testing.T) {
	s := newTestServer(t)
	path := fmt.Sprintf("/api/items/me/items/%d/", s.item.ID)

	rr := s.do(t, http.MethodGet, "/api/items/me/items/", "", 0)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/items/me/items/", "", s.creator.ID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	mine := decodeBody[handlers.ListDTO[handlers.ItemDTO]](t, rr)
	require.Len(t, mine.Results, 1)
	assert.Equal(t, s.item.ID, mine.Results[0].ID)

	rr = s.do(t, http.MethodGet, "/api/items/me/items/", "", s.buyer.ID)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody[handlers.ListDTO[handlers.ItemDTO]](t, rr).Results)

	rr = s.do(t, http.MethodGet, path, "", s.creator.ID)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = s.do(t, http.MethodGet, path, "", s.buyer.ID)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestItems_UpdateMine(t *testing.T) {
	s := newTestServer(t)
	path := fmt.Sprintf("/api/items/me/items/%d/", s.item.ID)

	rr := s.do(t, http.MethodPatch, path, `{"title":"Renamed","royalties":"9.99","is_360_video":true}`, s.buyer.ID)
	assert.Equal(t, http.StatusNotFound, rr.Code, "only the creator can edit")

	rr = s.do(t, http.MethodPatch, path, `{"title":"Renamed","royalties":"9.99","is_360_video":true}`, s.creator.ID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	it := decodeBody[handlers.ItemDTO](t, rr)
	assert.Equal(t, "Renamed", it.Title)
	assert.Equal(t, "9.99", it.Royalties)
	assert.True(t, it.Is360Video)
	assert.Equal(t, "abcdefghi", it.ItemID)
	assert.Equal(t, 3, it.TokenAmt, "absent fields are kept")

	rr = s.do(t, http.MethodPatch, path, `{"title":""}`, s.creator.ID)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"title"`)

	rr = s.do(t, http.MethodPost, "/api/items/me/items/", `{"title":"Other","royalties":1,"contract_address":"0x1"}`, s.creator.ID)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = s.do(t, http.MethodPatch, path, `{"contract_address":"0x1"}`, s.creator.ID)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"contract_address"`)
}

func TestItems_Likes(t *testing.T) {
	s := newTestServer(t)
	toggle := fmt.Sprintf("/api/items/%d/like-toggle/", s.item.ID)

	rr := s.do(t, http.MethodGet, toggle, "", 0)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"liked":false}`, rr.Body.String())

	rr = s.do(t, http.MethodPost, toggle, "", 0)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"liked":false}`, rr.Body.String(), "anonymous toggle changes nothing")

	rr = s.do(t, http.MethodPost, toggle, "", s.buyer.ID)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"liked":true}`, rr.Body.String())

	rr = s.do(t, http.MethodGet, toggle, "", s.buyer.ID)
	assert.JSONEq(t, `{"liked":true}`, rr.Body.String())

	rr = s.do(t, http.MethodGet, fmt.Sprintf("/api/items/%d/likes/", s.item.ID), "", 0)
	require.Equal(t, http.StatusOK, rr.Code)
	users := decodeBody[[]handlers.UserDTO](t, rr)
	require.Len(t, users, 1)
	assert.Equal(t, s.buyer.ID, users[0].ID)
	assert.Equal(t, "buyer", users[0].DisplayName)

	rr = s.do(t, http.MethodGet, fmt.Sprintf("/api/items/%d/", s.item.ID), "", s.buyer.ID)
	it := decodeBody[handlers.ItemDTO](t, rr)
	assert.Equal(t, int64(1), it.Likes)
	assert.True(t, it.Liked)
	rr = s.do(t, http.MethodGet, fmt.Sprintf("/api/items/%d/", s.item.ID), "", 0)
	assert.False(t, decodeBody[handlers.ItemDTO](t, rr).Liked)

	rr = s.do(t, http.MethodPost, toggle, "", s.buyer.ID)
	assert.JSONEq(t, `{"liked":false}`, rr.Body.String())

	for _, path := range []string{"/api/items/999/like-toggle/", "/api/items/999/likes/"} {
		rr = s.do(t, http.MethodGet, path, "", s.buyer.ID)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestItems_CreateGzipBody(t *testing.T) {
	s := newTestServer(t)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`{"title":"Packed","royalties":"1"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/items/me/items/", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	addAuth(t, req, s.creator.ID, s.cfg.AuthSecret)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "Packed", decodeBody[handlers.ItemDTO](t, rr).Title)
}
