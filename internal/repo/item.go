package repo

import (
	"NFTMarket/internal/model"
	"context"

	"gorm.io/gorm"
)

// ItemFilter: условия выборки работ; пустые поля не фильтруют.
type ItemFilter struct {
	CategoryIDs   []int64
	CreatorID     *int64
	Featured      bool
	Topseller     bool
	SuperFeatured bool
	Limit         int
	Offset        int
}

// ItemRepository: доступ к работам, соавторам, отметкам и категориям.
type ItemRepository interface {
	// Create сохраняет работу вместе с соавторами.
	// Повтор contract_address даёт gorm.ErrDuplicatedKey.
	Create(ctx context.Context, it *model.Item) error
	// Update меняет поля работы; повтор contract_address даёт gorm.ErrDuplicatedKey.
	Update(ctx context.Context, id int64, updates map[string]any) error
	// GetByID возвращает работу с создателем, категорией и соавторами.
	GetByID(ctx context.Context, id int64) (*model.Item, error)
	// GetByCreator возвращает работу, только если её создал creatorID.
	GetByCreator(ctx context.Context, creatorID, id int64) (*model.Item, error)
	List(ctx context.Context, f ItemFilter) ([]model.Item, error)
	// SoldCount: число проданных токенов работы.
	SoldCount(ctx context.Context, itemID int64) (int64, error)

	// ToggleLike снимает отметку пользователя, если она есть, иначе ставит. Возвращает новое состояние.
	ToggleLike(ctx context.Context, itemID, userID int64) (bool, error)
	IsLiked(ctx context.Context, itemID, userID int64) (bool, error)
	LikeCount(ctx context.Context, itemID int64) (int64, error)
	// ListLikers: пользователи, отметившие работу, в порядке отметок.
	ListLikers(ctx context.Context, itemID int64) ([]model.User, error)

	CreateCategory(ctx context.Context, c *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository создаёт реализацию репозитория для Item.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) Create(ctx context.Context, it *model.Item) error {
	return duplicated(r.db.WithContext(ctx).Omit("Creator", "Category").Create(it).Error)
}

func (r *itemRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return duplicated(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *itemRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Category").
		Preload("Collaborators", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Collaborators.User")
}

func (r *itemRepo) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	var it model.Item
	if err := r.preloaded(ctx).First(&it, id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) GetByCreator(ctx context.Context, creatorID, id int64) (*model.Item, error) {
	var it model.Item
	err := r.preloaded(ctx).Where("creator_id = ?", creatorID).First(&it, id).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) List(ctx context.Context, f ItemFilter) ([]model.Item, error) {
	q := r.preloaded(ctx).Model(&model.Item{})
	if len(f.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", f.CategoryIDs)
	}
	if f.CreatorID != nil {
		q = q.Where("creator_id = ?", *f.CreatorID)
	}
	if f.Featured {
		q = q.Where("is_featured = ?", true)
	}
	if f.Topseller {
		q = q.Where("is_topseller = ?", true)
	}
	if f.SuperFeatured {
		q = q.Where("is_super_featured = ?", true)
	}
	q = q.Order("id")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var items []model.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepo) SoldCount(ctx context.Context, itemID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Token{}).
		Where("item_id = ? AND is_sold = ?", itemID, true).
		Count(&n).Error
	return n, err
}

func (r *itemRepo) ToggleLike(ctx context.Context, itemID, userID int64) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("item_id = ? AND user_id = ?", itemID, userID).Delete(&model.ItemLike{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected > 0 {
			return nil
		}
		liked = true
		return duplicated(tx.Omit("Item", "User").Create(&model.ItemLike{ItemID: itemID, UserID: userID}).Error)
	})
	return liked, err
}

func (r *itemRepo) IsLiked(ctx context.Context, itemID, userID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ItemLike{}).
		Where("item_id = ? AND user_id = ?", itemID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *itemRepo) LikeCount(ctx context.Context, itemID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ItemLike{}).Where("item_id = ?", itemID).Count(&n).Error
	return n, err
}

func (r *itemRepo) ListLikers(ctx context.Context, itemID int64) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN item_likes ON item_likes.user_id = users.id").
		Where("item_likes.item_id = ?", itemID).
		Order("item_likes.created_at").Order("users.id").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *itemRepo) CreateCategory(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *itemRepo) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *itemRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cs []model.Category
	if err := r.db.WithContext(ctx).Order("id").Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}
