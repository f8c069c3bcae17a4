package handlers

import (
	"NFTMarket/internal/model"
	"NFTMarket/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AuctionRequest: параметры аукциона в теле запроса.
type AuctionRequest struct {
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	StartingBiddingPrice decimal.Decimal `json:"starting_bidding_price"`
}

// SaleRequest: общие поля продажи для выпуска и перепродажи.
// Цены принимаются и строкой, и числом.
type SaleRequest struct {
	SellType *int             `json:"sell_type"`
	Price    *decimal.Decimal `json:"price"`
	Auction  *AuctionRequest  `json:"auction"`
}

func (r SaleRequest) params() service.SaleParams {
	p := service.SaleParams{Price: r.Price}
	if r.SellType != nil {
		st := model.SaleType(*r.SellType)
		p.SellType = &st
	}
	if r.Auction != nil {
		p.Auction = &service.AuctionParams{
			StartDate:            r.Auction.StartDate,
			EndDate:              r.Auction.EndDate,
			StartingBiddingPrice: r.Auction.StartingBiddingPrice,
		}
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFieldError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, map[string][]string{field: {message}})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeServiceError переводит ошибки сервиса в HTTP-ответ.
func writeServiceError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		writeFieldError(w, fe.Field, fe.Message)
	case errors.Is(err, service.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, service.ErrConflict):
		logger.Warnw(op+": conflict retries exhausted", "error", err)
		writeDetail(w, http.StatusConflict, "The resource was modified concurrently, please retry.")
	default:
		logger.Errorw(op+": service error", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON читает тело запроса; при ошибке отвечает 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, op string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Warnw(op+": invalid request body", "error", err)
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// pathID разбирает числовой параметр маршрута; на невалидное значение отвечает 404.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

// queryInt читает необязательный целый параметр запроса.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeFieldError(w, name, "A valid integer is required.")
		return 0, false
	}
	return n, true
}

// page читает limit/offset из запроса; значения по умолчанию и границы применяет сервис.
func page(w http.ResponseWriter, r *http.Request) (service.Page, bool) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return service.Page{}, false
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return service.Page{}, false
	}
	return service.Page{Limit: limit, Offset: offset}, true
}

// queryBool читает необязательный флаг: true/1 включают условие, false/0 и пустое значение: нет.
func queryBool(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		writeFieldError(w, name, "Select a valid choice.")
		return false, false
	}
	return v, true
}

// queryIDs читает список id через запятую, например filter=1,3.
func queryIDs(w http.ResponseWriter, r *http.Request, name string) ([]int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			writeFieldError(w, name, "Enter a whole number.")
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// catalogFilter собирает условия каталога: filter (id категорий через запятую), category,
// is_featured, is_topseller, is_super_featured.
func catalogFilter(w http.ResponseWriter, r *http.Request) (service.CatalogFilter, bool) {
	var f service.CatalogFilter
	var ok bool
	if f.CategoryIDs, ok = queryIDs(w, r, "filter"); !ok {
		return f, false
	}
	category, ok := queryIDs(w, r, "category")
	if !ok {
		return f, false
	}
	f.CategoryIDs = append(f.CategoryIDs, category...)
	if f.Featured, ok = queryBool(w, r, "is_featured"); !ok {
		return f, false
	}
	if f.Topseller, ok = queryBool(w, r, "is_topseller"); !ok {
		return f, false
	}
	if f.SuperFeatured, ok = queryBool(w, r, "is_super_featured"); !ok {
		return f, false
	}
	return f, true
}
