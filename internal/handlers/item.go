package handlers

import (
	"NFTMarket/internal/config"
	"NFTMarket/internal/middleware"
	"NFTMarket/internal/service"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ItemHandler обрабатывает каталог работ, выпуск токенов и метаданные.
type ItemHandler struct {
	ItemService *service.ItemService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

// NewItemHandler создаёт хендлер items
func NewItemHandler(itemService *service.ItemService, logger *zap.SugaredLogger, cfg *config.Config) *ItemHandler {
	return &ItemHandler{ItemService: itemService, Logger: logger, Config: cfg}
}

type CollaboratorRequest struct {
	User            *int64          `json:"user"`
	SharePercentage decimal.Decimal `json:"share_percentage"`
	WalletToken     string          `json:"wallet_token"`
}

type CreateItemRequest struct {
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Royalties       decimal.Decimal       `json:"royalties"`
	Category        *int64                `json:"category"`
	TokenAmt        int                   `json:"token_amt"`
	ContractAddress *string               `json:"contract_address"`
	File1           string                `json:"file1"`
	CoverImg        string                `json:"cover_img"`
	Is360Video      bool                  `json:"is_360_video"`
	Collaborators   []CollaboratorRequest `json:"collaborators"`
}

// UpdateItemRequest: частичное изменение работы; отсутствующие поля не меняются.
type UpdateItemRequest struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	Royalties       *decimal.Decimal `json:"royalties"`
	Category        *int64           `json:"category"`
	TokenAmt        *int             `json:"token_amt"`
	ContractAddress *string          `json:"contract_address"`
	File1           *string          `json:"file1"`
	CoverImg        *string          `json:"cover_img"`
	Is360Video      *bool            `json:"is_360_video"`
}

type RangeRequest struct {
	FromID int `json:"from_id"`
	ToID   int `json:"to_id"`
}

type MintRequest struct {
	IDs []RangeRequest `json:"ids"`
	SaleRequest
}

// Categories список категорий
func (h *ItemHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.ItemService.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, h.Logger, "Categories", err)
		return
	}
	out := make([]CategoryDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// Get карточка работы
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())
	view, err := h.ItemService.GetItem(r.Context(), viewerID, id)
	if err != nil {
		writeServiceError(w, h.Logger, "GetItem", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(view))
}

// List каталог работ с фильтрами
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	pg, ok := page(w, r)
	if !ok {
		return
	}
	f, ok := catalogFilter(w, r)
	if !ok {
		return
	}
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())
	list, err := h.ItemService.ListItems(r.Context(), viewerID, f, pg)
	if err != nil {
		writeServiceError(w, h.Logger, "ListItems", err)
		return
	}
	writeJSON(w, http.StatusOK, toListDTO(list, toItemDTO))
}

// ListMine работы текущего пользователя
func (h *ItemHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	pg, ok := page(w, r)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	list, err := h.ItemService.ListMyItems(r.Context(), userID, pg)
	if err != nil {
		writeServiceError(w, h.Logger, "ListMyItems", err)
		return
	}
	writeJSON(w, http.StatusOK, toListDTO(list, toItemDTO))
}

// GetMine работа текущего пользователя
func (h *ItemHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	view, err := h.ItemService.GetMyItem(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.Logger, "GetMyItem", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(view))
}

// UpdateMine частичное изменение работы создателем
func (h *ItemHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateItemRequest
	if !decodeJSON(w, r, h.Logger, "UpdateItem", &req) {
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	view, err := h.ItemService.UpdateItem(r.Context(), userID, id, service.UpdateItemParams{
		Title:           req.Title,
		Description:     req.Description,
		Royalties:       req.Royalties,
		CategoryID:      req.Category,
		TokenAmt:        req.TokenAmt,
		ContractAddress: req.ContractAddress,
		File1:           req.File1,
		CoverImg:        req.CoverImg,
		Is360Video:      req.Is360Video,
	})
	if err != nil {
		writeServiceError(w, h.Logger, "UpdateItem", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(view))
}

// Likers пользователи, отметившие работу
func (h *ItemHandler) Likers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	users, err := h.ItemService.Likers(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "Likers", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(users))
}

// LikeStatus отметил ли текущий пользователь работу; анонимному всегда false
func (h *ItemHandler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	liked, err := h.ItemService.LikeStatus(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.Logger, "LikeStatus", err)
		return
	}
	writeJSON(w, http.StatusOK, LikeDTO{Liked: liked})
}

// ToggleLike переключает отметку; анонимный запрос ничего не меняет и получает false
func (h *ItemHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, authed := middleware.GetUserIDFromContext(r.Context())
	if !authed {
		h.LikeStatus(w, r)
		return
	}
	liked, err := h.ItemService.ToggleLike(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.Logger, "ToggleLike", err)
		return
	}
	writeJSON(w, http.StatusOK, LikeDTO{Liked: liked})
}

// Create новая работа текущего пользователя
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !decodeJSON(w, r, h.Logger, "CreateItem", &req) {
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	p := service.CreateItemParams{
		Title:           req.Title,
		Description:     req.Description,
		Royalties:       req.Royalties,
		CategoryID:      req.Category,
		TokenAmt:        req.TokenAmt,
		ContractAddress: req.ContractAddress,
		File1:           req.File1,
		CoverImg:        req.CoverImg,
		Is360Video:      req.Is360Video,
	}
	for _, c := range req.Collaborators {
		p.Collaborators = append(p.Collaborators, service.CollaboratorParams{
			UserID:          c.User,
			SharePercentage: c.SharePercentage,
			WalletToken:     c.WalletToken,
		})
	}

	view, err := h.ItemService.CreateItem(r.Context(), userID, p)
	if err != nil {
		writeServiceError(w, h.Logger, "CreateItem", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(view))
}

// Mint выпуск токенов по отрезкам номеров
func (h *ItemHandler) Mint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req MintRequest
	if !decodeJSON(w, r, h.Logger, "Mint", &req) {
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	p := service.MintParams{SaleParams: req.SaleRequest.params()}
	for _, rg := range req.IDs {
		p.Ranges = append(p.Ranges, service.Range{From: rg.FromID, To: rg.ToID})
	}

	view, err := h.ItemService.Mint(r.Context(), userID, id, p)
	if err != nil {
		writeServiceError(w, h.Logger, "Mint", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(view))
}

// Metadata публичные метаданные токена
func (h *ItemHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	md, err := h.ItemService.Metadata(r.Context(), chi.URLParam(r, "itemID"), number)
	if err != nil {
		writeServiceError(w, h.Logger, "Metadata", err)
		return
	}
	writeJSON(w, http.StatusOK, toMetadataDTO(md))
}
