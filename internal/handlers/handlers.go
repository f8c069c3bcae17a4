package handlers

import (
	"NFTMarket/internal/config"
	"NFTMarket/internal/middleware"
	"NFTMarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	tokenService *service.TokenService,
	itemService *service.ItemService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	// Handlers
	tokenHandler := NewTokenHandler(tokenService, logger, config)
	itemHandler := NewItemHandler(itemService, logger, config)

	r.Route("/api", func(r chi.Router) {
		// Публичные маршруты
		r.Get("/categories/", itemHandler.Categories)
		r.Get("/tokens/", tokenHandler.List)
		r.Get("/tokens/{id}/", tokenHandler.Get)
		r.Get("/items/", itemHandler.List)
		r.Get("/items/{id}/", itemHandler.Get)
		r.Get("/items/{id}/likes/", itemHandler.Likers)
		r.Get("/items/{id}/like-toggle/", itemHandler.LikeStatus)
		// анонимный POST отвечает {"liked": false}, поэтому без RequireAuth
		r.Post("/items/{id}/like-toggle/", itemHandler.ToggleLike)
		r.Get("/users/{id}/tokens/owned/", tokenHandler.Owned)
		r.Get("/users/{id}/tokens/on-sale/", tokenHandler.OnSale)
		r.Get("/users/{id}/tokens/created/", tokenHandler.Created)
		r.Get("/users/{id}/tokens/likes/", tokenHandler.Liked)
		r.Get("/metadata/{itemID}/{number}/", itemHandler.Metadata)

		// Маршруты для авторизованных пользователей
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/tokens/{id}/place-bid/", tokenHandler.PlaceBid)
			r.Post("/tokens/{id}/purchase/", tokenHandler.Purchase)
			r.Post("/tokens/{id}/finalize-auction/", tokenHandler.Finalize)
			r.Patch("/me/tokens/{id}/", tokenHandler.Update)
			r.Get("/items/me/items/", itemHandler.ListMine)
			r.Post("/items/me/items/", itemHandler.Create)
			r.Get("/items/me/items/{id}/", itemHandler.GetMine)
			r.Patch("/items/me/items/{id}/", itemHandler.UpdateMine)
			r.Post("/items/me/items/{id}/mint/", itemHandler.Mint)
		})

		// Администрирование
		r.With(middleware.RequireAdminKey(config.AdminKeyHash)).
			Post("/admin/tokens/remove-from-sale/", tokenHandler.RemoveFromSale)
	})

	return &Handler{Router: r}
}
