package repo

import (
	"NFTMarket/internal/model"
	"context"

	"gorm.io/gorm"
)

// UserRepository: чтение пользователей (учётные записи ведёт внешний сервис).
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// Create нужен для сидирования и тестов.
	Create(ctx context.Context, u *model.User) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}
