package repo

import (
	"NFTMarket/internal/model"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Models: все модели, которые мигрирует InitDB.
var Models = []any{
	&model.User{},
	&model.Category{},
	&model.Item{},
	&model.ItemCollaborator{},
	&model.ItemLike{},
	&model.Auction{},
	&model.Bid{},
	&model.Token{},
}

// InitDB открывает БД по DSN и выполняет миграции.
// DSN вида "file:..." или "sqlite:..." открывает SQLite (modernc.org/sqlite), остальное: Postgres.
func InitDB(dsn string) (*gorm.DB, error) {
	cfg := NewGormConfig(log.New(os.Stdout, "\r\n", log.LstdFlags))

	var (
		db  *gorm.DB
		err error
	)
	if isSQLite(dsn) {
		dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: strings.TrimPrefix(dsn, "sqlite:")}
		db, err = gorm.Open(dial, cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite допускает одного писателя: транзакции сериализуются через единственное соединение
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	} else {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return db, nil
}

// NewGormConfig: SQL-лог уровня Warn в w без записей об отсутствующих строках,
// ошибки драйвера переводятся в ошибки gorm.
func NewGormConfig(w logger.Writer) *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(w, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	}
}

// duplicated сводит нарушение уникальности к gorm.ErrDuplicatedKey.
// Драйвер modernc.org/sqlite ошибки не переводит, поэтому проверяется текст.
func duplicated(err error) error {
	if err == nil || errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", gorm.ErrDuplicatedKey, err)
	}
	return err
}

func isSQLite(dsn string) bool {
	return dsn == "" || strings.HasPrefix(dsn, "file:") || strings.HasPrefix(dsn, "sqlite:")
}

// Repositories: доступ ко всем репозиториям и транзакциям поверх них.
type Repositories interface {
	Tokens() TokenRepository
	Auctions() AuctionRepository
	Items() ItemRepository
	Users() UserRepository

	// Transaction выполняет fn в одной транзакции; репозитории внутри fn работают через неё.
	Transaction(ctx context.Context, fn func(tx Repositories) error) error
}

type repositories struct {
	db *gorm.DB
}

// NewRepositories создаёт набор репозиториев поверх gorm.
func NewRepositories(db *gorm.DB) Repositories {
	return &repositories{db: db}
}

func (r *repositories) Tokens() TokenRepository     { return NewTokenRepository(r.db) }
func (r *repositories) Auctions() AuctionRepository { return NewAuctionRepository(r.db) }
func (r *repositories) Items() ItemRepository       { return NewItemRepository(r.db) }
func (r *repositories) Users() UserRepository       { return NewUserRepository(r.db) }

func (r *repositories) Transaction(ctx context.Context, fn func(tx Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repositories{db: tx})
	})
}
