package repo

import (
	"NFTMarket/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuctionRepository: журнал аукционов и ставок.
type AuctionRepository interface {
	Create(ctx context.Context, a *model.Auction) error
	GetByID(ctx context.Context, id int64) (*model.Auction, error)
	// GetForUpdate читает аукцион с блокировкой строки до конца транзакции.
	// SQLite блокировки строк не поддерживает, там сериализация обеспечивается единственным соединением.
	GetForUpdate(ctx context.Context, id int64) (*model.Auction, error)

	// HighestBid: старшая ставка (при равенстве: первая по порядку вставки), nil если ставок нет.
	HighestBid(ctx context.Context, auctionID int64) (*model.Bid, error)
	CreateBid(ctx context.Context, b *model.Bid) error
	ListBids(ctx context.Context, auctionID int64) ([]model.Bid, error)

	// DeleteWithBids удаляет аукционы вместе со ставками.
	DeleteWithBids(ctx context.Context, ids []int64) error
}

type auctionRepo struct {
	db *gorm.DB
}

// NewAuctionRepository создаёт реализацию репозитория аукционов.
func NewAuctionRepository(db *gorm.DB) AuctionRepository {
	return &auctionRepo{db: db}
}

func (r *auctionRepo) Create(ctx context.Context, a *model.Auction) error {
	return r.db.WithContext(ctx).Omit("Bids").Create(a).Error
}

func (r *auctionRepo) GetByID(ctx context.Context, id int64) (*model.Auction, error) {
	var a model.Auction
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *auctionRepo) GetForUpdate(ctx context.Context, id int64) (*model.Auction, error) {
	var a model.Auction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *auctionRepo) HighestBid(ctx context.Context, auctionID int64) (*model.Bid, error) {
	var bids []model.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("bid_value DESC").Order("id ASC").
		Limit(1).Find(&bids).Error
	if err != nil {
		return nil, err
	}
	if len(bids) == 0 {
		return nil, nil
	}
	return &bids[0], nil
}

func (r *auctionRepo) CreateBid(ctx context.Context, b *model.Bid) error {
	return r.db.WithContext(ctx).Omit("Bidder").Create(b).Error
}

func (r *auctionRepo) ListBids(ctx context.Context, auctionID int64) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).Where("auction_id = ?", auctionID).Order("id").Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *auctionRepo) DeleteWithBids(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	// на каскад внешних ключей не полагаемся: в SQLite они выключены по умолчанию
	if err := db.Where("auction_id IN ?", ids).Delete(&model.Bid{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&model.Auction{}).Error
}
