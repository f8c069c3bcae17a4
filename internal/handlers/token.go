package handlers

import (
	"NFTMarket/internal/config"
	"NFTMarket/internal/middleware"
	"NFTMarket/internal/service"
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TokenHandler обрабатывает витрину, покупки, ставки и изменения токенов.
type TokenHandler struct {
	TokenService *service.TokenService
	Logger       *zap.SugaredLogger
	Config       *config.Config
}

// NewTokenHandler создаёт хендлер токенов
func NewTokenHandler(tokenService *service.TokenService, logger *zap.SugaredLogger, cfg *config.Config) *TokenHandler {
	return &TokenHandler{TokenService: tokenService, Logger: logger, Config: cfg}
}

type BidRequest struct {
	BidValue *decimal.Decimal `json:"bid_value"`
	Auction  *int64           `json:"auction"`
}

type PurchaseRequest struct {
	Price json.RawMessage `json:"price"`
}

type UpdateTokenRequest struct {
	SaleRequest
	OnSale      *bool `json:"on_sale"`
	TokenNumber *int  `json:"token_number"`
}

type RemoveFromSaleRequest struct {
	TokenIDs []int64 `json:"token_ids"`
}

type RemoveFromSaleResponse struct {
	Updated int64 `json:"updated"`
}

// List витрина токенов, доступных к покупке
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	pg, ok := page(w, r)
	if !ok {
		return
	}
	f, ok := catalogFilter(w, r)
	if !ok {
		return
	}
	list, err := h.TokenService.ListMarket(r.Context(), f, pg)
	if err != nil {
		writeServiceError(w, h.Logger, "List", err)
		return
	}
	writeJSON(w, http.StatusOK, toListDTO(list, toTokenDTO))
}

// Get карточка токена
func (h *TokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.TokenService.GetToken(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "Get", err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenDTO(view))
}

// PlaceBid ставка на аукцион токена
func (h *TokenHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req BidRequest
	if !decodeJSON(w, r, h.Logger, "PlaceBid", &req) {
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	view, err := h.TokenService.PlaceBid(r.Context(), userID, id, service.BidParams{
		AuctionID: req.Auction,
		Value:     req.BidValue,
	})
	if err != nil {
		writeServiceError(w, h.Logger, "PlaceBid", err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenDTO(view))
}

// Purchase мгновенная покупка токена
func (h *TokenHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req PurchaseRequest
	if !decodeJSON(w, r, h.Logger, "Purchase", &req) {
		return
	}

	// Цена приходит строкой или числом; отсутствие цены проверяет сервис.
	var price *decimal.Decimal
	if len(req.Price) > 0 && string(req.Price) != "null" {
		var d decimal.Decimal
		if err := d.UnmarshalJSON(req.Price); err != nil {
			writeFieldError(w, "price", "Invalid value. Please enter a valid number")
			return
		}
		price = &d
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	res, err := h.TokenService.Purchase(r.Context(), userID, id, price)
	if err != nil {
		writeServiceError(w, h.Logger, "Purchase", err)
		return
	}
	resp := PurchaseDTO{OldToken: toTokenDTO(res.Old)}
	if res.New != nil {
		nt := toTokenDTO(res.New)
		resp.NewToken = &nt
	}
	writeJSON(w, http.StatusOK, resp)
}

// Finalize завершение аукциона токена
func (h *TokenHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.TokenService.FinalizeAuction(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "Finalize", err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenDTO(view))
}

// Update перепродажа, снятие с продажи или смена номера токена владельцем
func (h *TokenHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateTokenRequest
	if !decodeJSON(w, r, h.Logger, "Update", &req) {
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	view, err := h.TokenService.UpdateToken(r.Context(), userID, id, service.UpdateParams{
		SaleParams:  req.SaleRequest.params(),
		OnSale:      req.OnSale,
		TokenNumber: req.TokenNumber,
	})
	if err != nil {
		writeServiceError(w, h.Logger, "Update", err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenDTO(view))
}

// Owned токены пользователя
func (h *TokenHandler) Owned(w http.ResponseWriter, r *http.Request) {
	h.listForUser(w, r, "ListOwned", func(ctx context.Context, userID int64, pg service.Page) (*service.Paged[service.TokenView], error) {
		return h.TokenService.ListOwned(ctx, userID, false, pg)
	})
}

// OnSale выставленные на продажу токены пользователя
func (h *TokenHandler) OnSale(w http.ResponseWriter, r *http.Request) {
	h.listForUser(w, r, "ListOnSale", func(ctx context.Context, userID int64, pg service.Page) (*service.Paged[service.TokenView], error) {
		return h.TokenService.ListOwned(ctx, userID, true, pg)
	})
}

// Created токены работ, где пользователь в соавторах
func (h *TokenHandler) Created(w http.ResponseWriter, r *http.Request) {
	h.listForUser(w, r, "ListCreated", h.TokenService.ListCreated)
}

// Liked токены работ, отмеченных пользователем
func (h *TokenHandler) Liked(w http.ResponseWriter, r *http.Request) {
	h.listForUser(w, r, "ListLiked", h.TokenService.ListLiked)
}

type userTokensFunc func(ctx context.Context, userID int64, pg service.Page) (*service.Paged[service.TokenView], error)

func (h *TokenHandler) listForUser(w http.ResponseWriter, r *http.Request, op string, list userTokensFunc) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pg, ok := page(w, r)
	if !ok {
		return
	}
	res, err := list(r.Context(), userID, pg)
	if err != nil {
		writeServiceError(w, h.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toListDTO(res, toTokenDTO))
}

// RemoveFromSale административное снятие токенов с продажи
func (h *TokenHandler) RemoveFromSale(w http.ResponseWriter, r *http.Request) {
	var req RemoveFromSaleRequest
	if !decodeJSON(w, r, h.Logger, "RemoveFromSale", &req) {
		return
	}
	n, err := h.TokenService.RemoveFromSale(r.Context(), req.TokenIDs)
	if err != nil {
		writeServiceError(w, h.Logger, "RemoveFromSale", err)
		return
	}
	writeJSON(w, http.StatusOK, RemoveFromSaleResponse{Updated: n})
}
