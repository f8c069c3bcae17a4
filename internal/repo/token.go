package repo

import (
	"NFTMarket/internal/model"
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TokenFilter: условия выборки представителей групп токенов.
type TokenFilter struct {
	OwnerID     *int64
	CategoryIDs []int64
	// Признаки витрины работы.
	Featured      bool
	Topseller     bool
	SuperFeatured bool
	// CollaboratorID: работы, в соавторах которых есть пользователь.
	CollaboratorID *int64
	// LikedByID: работы, отмеченные пользователем.
	LikedByID *int64
	// OnSaleOnly оставляет токены в продаже; аукционы: только с открытым на ActiveAt окном.
	OnSaleOnly bool
	ActiveAt   time.Time
	Limit      int
	Offset     int
}

// itemScope: подзапрос id работ по условиям фильтра; nil, если условий нет.
func (r *tokenRepo) itemScope(f TokenFilter) *gorm.DB {
	if len(f.CategoryIDs) == 0 && !f.Featured && !f.Topseller && !f.SuperFeatured && f.CollaboratorID == nil && f.LikedByID == nil {
		return nil
	}
	q := r.sub().Model(&model.Item{}).Select("items.id")
	if len(f.CategoryIDs) > 0 {
		q = q.Where("items.category_id IN ?", f.CategoryIDs)
	}
	if f.Featured {
		q = q.Where("items.is_featured = ?", true)
	}
	if f.Topseller {
		q = q.Where("items.is_topseller = ?", true)
	}
	if f.SuperFeatured {
		q = q.Where("items.is_super_featured = ?", true)
	}
	if f.CollaboratorID != nil {
		q = q.Where("items.id IN (?)",
			r.sub().Model(&model.ItemCollaborator{}).Select("item_id").Where("user_id = ?", *f.CollaboratorID))
	}
	if f.LikedByID != nil {
		q = q.Where("items.id IN (?)",
			r.sub().Model(&model.ItemLike{}).Select("item_id").Where("user_id = ?", *f.LikedByID))
	}
	return q
}

// TokenRepository определяет контракт доступа к Token для слоя сервиса.
type TokenRepository interface {
	// GetByID возвращает токен с работой, владельцем и аукционом.
	GetByID(ctx context.Context, id int64) (*model.Token, error)
	// GetByAuctionID находит токен, к которому привязан аукцион.
	GetByAuctionID(ctx context.Context, auctionID int64) (*model.Token, error)

	// CreateBatch вставляет токены пачками по 1000.
	CreateBatch(ctx context.Context, tokens []model.Token) error

	// UpdateWithVersion обновляет токен, только если версия совпадает с ожидаемой.
	// При несовпадении возвращает gorm.ErrRecordNotFound.
	UpdateWithVersion(ctx context.Context, id, expectedVersion int64, updates map[string]any) (int64, error)

	// FindOnSaleSibling: другой токен той же работы у того же владельца, выставленный на продажу.
	FindOnSaleSibling(ctx context.Context, itemID, ownerID, excludeID int64) (*model.Token, error)

	// Supply: число токенов с той же тройкой (работа, владелец, on_sale).
	Supply(ctx context.Context, itemID, ownerID int64, onSale bool) (int64, error)

	// ListRepresentatives: по одному токену (с минимальным id) на группу (работа, владелец, on_sale).
	ListRepresentatives(ctx context.Context, f TokenFilter) ([]model.Token, error)
	ListByItem(ctx context.Context, itemID int64, unsoldOnly bool) ([]model.Token, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Token, error)
	FindByItemNumber(ctx context.Context, publicItemID string, tokenNumber int) ([]model.Token, error)

	// ClearSale снимает токены с продажи без проверки владельца и отвязывает аукционы.
	ClearSale(ctx context.Context, ids []int64) (int64, error)
}

type tokenRepo struct {
	db *gorm.DB
}

// NewTokenRepository создаёт реализацию репозитория для Token.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepo{db: db}
}

// sub: чистая сессия для подзапросов (в транзакции остаётся на том же соединении).
func (r *tokenRepo) sub() *gorm.DB {
	return r.db.Session(&gorm.Session{NewDB: true})
}

func (r *tokenRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Item").
		Preload("Item.Category").
		Preload("Item.Creator").
		Preload("Owner").
		Preload("Auction")
}

func (r *tokenRepo) GetByID(ctx context.Context, id int64) (*model.Token, error) {
	var t model.Token
	if err := r.preloaded(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) GetByAuctionID(ctx context.Context, auctionID int64) (*model.Token, error) {
	var t model.Token
	if err := r.preloaded(ctx).Where("auction_id = ?", auctionID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) CreateBatch(ctx context.Context, tokens []model.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Omit("Item", "Owner", "Auction").
		CreateInBatches(&tokens, 1000).Error
}

func (r *tokenRepo) UpdateWithVersion(ctx context.Context, id, expectedVersion int64, updates map[string]any) (int64, error) {
	values := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")

	tx := r.db.WithContext(ctx).Model(&model.Token{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(values)
	if tx.Error != nil {
		return 0, tx.Error
	}
	if tx.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return expectedVersion + 1, nil
}

func (r *tokenRepo) FindOnSaleSibling(ctx context.Context, itemID, ownerID, excludeID int64) (*model.Token, error) {
	var t model.Token
	err := r.preloaded(ctx).
		Where("item_id = ? AND owner_id = ? AND on_sale = ? AND id <> ?", itemID, ownerID, true, excludeID).
		Order("token_number").Order("id").
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) Supply(ctx context.Context, itemID, ownerID int64, onSale bool) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Token{}).
		Where("item_id = ? AND owner_id = ? AND on_sale = ?", itemID, ownerID, onSale).
		Count(&n).Error
	return n, err
}

func (r *tokenRepo) ListRepresentatives(ctx context.Context, f TokenFilter) ([]model.Token, error) {
	groups := r.sub().Model(&model.Token{}).Select("MIN(id)").Group("item_id, owner_id, on_sale")

	q := r.preloaded(ctx).Model(&model.Token{}).
		Where("tokens.id IN (?)", groups)
	if f.OwnerID != nil {
		q = q.Where("tokens.owner_id = ?", *f.OwnerID)
	}
	if items := r.itemScope(f); items != nil {
		q = q.Where("tokens.item_id IN (?)", items)
	}
	if f.OnSaleOnly {
		at := f.ActiveAt.UTC()
		open := r.sub().Model(&model.Auction{}).Select("id").
			Where("start_date <= ? AND end_date > ?", at, at)
		q = q.Where("tokens.on_sale = ?", true).
			Where("tokens.sell_type <> ? OR tokens.auction_id IN (?)", model.SaleAuction, open)
	}
	q = q.Order("tokens.item_id").Order("tokens.owner_id").Order("tokens.on_sale").Order("tokens.token_number")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var tokens []model.Token
	if err := q.Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenRepo) ListByItem(ctx context.Context, itemID int64, unsoldOnly bool) ([]model.Token, error) {
	q := r.db.WithContext(ctx).Preload("Auction").Where("item_id = ?", itemID)
	if unsoldOnly {
		q = q.Where("is_sold = ?", false)
	}
	var tokens []model.Token
	if err := q.Order("token_number").Order("id").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Token, error) {
	var tokens []model.Token
	if len(ids) == 0 {
		return tokens, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenRepo) FindByItemNumber(ctx context.Context, publicItemID string, tokenNumber int) ([]model.Token, error) {
	var tokens []model.Token
	err := r.preloaded(ctx).
		Where("token_number = ?", tokenNumber).
		Where("item_id IN (?)", r.sub().Model(&model.Item{}).Select("id").Where("item_id = ?", publicItemID)).
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenRepo) ClearSale(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Model(&model.Token{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"on_sale":    false,
			"sell_type":  model.SaleNone,
			"price":      decimal.Zero,
			"auction_id": nil,
			"version":    gorm.Expr("version + 1"),
		})
	return tx.RowsAffected, tx.Error
}
