package model

import "time"

// User: владелец токенов и участник торгов.
// Учётными записями управляет внешний сервис, здесь модель только читается.
type User struct {
	ID          int64  `gorm:"primaryKey"`
	Username    string `gorm:"not null;uniqueIndex"`
	FirstName   string
	LastName    string
	WalletToken string

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// DisplayName возвращает имя для показа: username, если имя не заполнено.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FirstName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}

// FullName: "имя фамилия" без подстановки username.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return u.FirstName + " " + u.LastName
}
