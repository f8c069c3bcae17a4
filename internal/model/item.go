package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category: рубрика коллекционных работ.
type Category struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:32;not null"`
}

// Item: коллекционная работа, из которой выпускаются токены.
type Item struct {
	ID              int64   `gorm:"primaryKey"`
	ItemID          string  `gorm:"size:9;not null;index"` // публичный идентификатор
	ContractAddress *string `gorm:"size:64;uniqueIndex"`

	Title       string          `gorm:"size:64;not null;default:''"`
	Description string          `gorm:"type:text;not null;default:''"`
	Royalties   decimal.Decimal `gorm:"type:numeric(5,2);not null"`

	CreatorID int64 `gorm:"not null;index"`
	Creator   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	TokenAmt   int       `gorm:"not null;default:1"`
	CategoryID *int64    `gorm:"index"`
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`

	// Ссылки на файлы в внешнем хранилище, сервис их не интерпретирует.
	File1    string `gorm:"not null;default:''"`
	CoverImg string `gorm:"not null;default:''"`

	Is360Video      bool `gorm:"not null;default:false"`
	IsSuperFeatured bool `gorm:"not null;default:false"`
	IsFeatured      bool `gorm:"not null;default:false"`
	IsTopseller     bool `gorm:"not null;default:false"`

	Collaborators []ItemCollaborator `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ItemCollaborator: запись о разделе выручки между соавторами работы.
type ItemCollaborator struct {
	ID              int64           `gorm:"primaryKey"`
	ItemID          int64           `gorm:"not null;index"`
	UserID          int64           `gorm:"not null;index"`
	User            *User           `gorm:"constraint:OnDelete:CASCADE"`
	SharePercentage decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	WalletToken     string          `gorm:"size:64;not null;default:''"`
}

// ItemLike: отметка «нравится» пользователя на работе; не больше одной на пару.
type ItemLike struct {
	ItemID    int64     `gorm:"primaryKey;autoIncrement:false"`
	UserID    int64     `gorm:"primaryKey;autoIncrement:false;index"`
	Item      *Item     `gorm:"constraint:OnDelete:CASCADE"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
