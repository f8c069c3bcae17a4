package handlers

import (
	"NFTMarket/internal/model"
	"NFTMarket/internal/service"
	"time"

	"github.com/shopspring/decimal"
)

// Деньги отдаются строкой с двумя знаками после запятой, время: в RFC 3339.

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

type AuctionDTO struct {
	ID                   int64  `json:"id"`
	StartDate            string `json:"start_date"`
	EndDate              string `json:"end_date"`
	StartingBiddingPrice string `json:"starting_bidding_price"`
	CurrentBiddingPrice  string `json:"current_bidding_price"`
	HighestBidderID      *int64 `json:"highest_bidder_id"`
}

type TokenItemDTO struct {
	ID              int64   `json:"id"`
	ItemID          string  `json:"item_id"`
	ContractAddress *string `json:"contract_address"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	File1           string  `json:"file1"`
	CoverImg        string  `json:"cover_img"`
	TokenAmt        int     `json:"token_amt"`
	Creator         int64   `json:"creator"`
	CreatorName     string  `json:"creator_name"`
	Royalties       string  `json:"royalties"`
	Category        *int64  `json:"category"`
	Is360Video      bool    `json:"is_360_video"`
}

type TokenDTO struct {
	ID           int64         `json:"id"`
	Collectible  *TokenItemDTO `json:"collectible"`
	MintID       int           `json:"mint_id"`
	Owner        int64         `json:"owner"`
	OwnerName    string        `json:"owner_name"`
	Supply       int64         `json:"supply"`
	Auction      *AuctionDTO   `json:"auction"`
	TokenNumber  int           `json:"token_number"`
	OnSale       bool          `json:"on_sale"`
	IsSold       bool          `json:"is_sold"`
	Price        string        `json:"price"`
	SellType     int           `json:"sell_type"`
	CurrentPrice string        `json:"current_price"`
	Likes        int64         `json:"likes"`
}

type ListDTO[T any] struct {
	Results []T `json:"results"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
}

func toListDTO[V, T any](p *service.Paged[V], conv func(*V) T) ListDTO[T] {
	out := ListDTO[T]{Results: make([]T, 0, len(p.Results)), Limit: p.Limit, Offset: p.Offset}
	for i := range p.Results {
		out.Results = append(out.Results, conv(&p.Results[i]))
	}
	return out
}

type PurchaseDTO struct {
	OldToken TokenDTO  `json:"old_token"`
	NewToken *TokenDTO `json:"new_token,omitempty"`
}

type CollaboratorDTO struct {
	ID              int64  `json:"id"`
	Item            int64  `json:"item"`
	User            int64  `json:"user"`
	SharePercentage string `json:"share_percentage"`
	WalletToken     string `json:"wallet_token"`
}

type ItemTokenDTO struct {
	ID       int64       `json:"id"`
	OnSale   bool        `json:"on_sale"`
	Price    string      `json:"price"`
	SellType int         `json:"sell_type"`
	Auction  *AuctionDTO `json:"auction"`
}

type ItemDTO struct {
	ID              int64             `json:"id"`
	ItemID          string            `json:"item_id"`
	ContractAddress *string           `json:"contract_address"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Creator         int64             `json:"creator"`
	CreatorName     string            `json:"creator_name"`
	Royalties       string            `json:"royalties"`
	Category        *int64            `json:"category"`
	TokenAmt        int               `json:"token_amt"`
	TokenSold       int64             `json:"token_sold"`
	File1           string            `json:"file1"`
	CoverImg        string            `json:"cover_img"`
	Is360Video      bool              `json:"is_360_video"`
	IsFeatured      bool              `json:"is_featured"`
	IsTopseller     bool              `json:"is_topseller"`
	IsSuperFeatured bool              `json:"is_super_featured"`
	Likes           int64             `json:"likes"`
	Liked           bool              `json:"liked"`
	Collaborators   []CollaboratorDTO `json:"collaborators"`
	Tokens          []ItemTokenDTO    `json:"tokens"`
}

type LikeDTO struct {
	Liked bool `json:"liked"`
}

type UserDTO struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	WalletToken string `json:"wallet_token"`
}

type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MetadataDTO struct {
	TokenNumber int      `json:"token_number"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    *string  `json:"category"`
	File1       *string  `json:"file1"`
	Files       []string `json:"files"`
	Creator     string   `json:"creator"`
	Owner       string   `json:"owner"`
	Is360Video  bool     `json:"is_360_video"`
}

func toAuctionDTO(v *service.AuctionView) *AuctionDTO {
	if v == nil || v.Auction == nil {
		return nil
	}
	a := v.Auction
	return &AuctionDTO{
		ID:                   a.ID,
		StartDate:            timestamp(a.StartDate),
		EndDate:              timestamp(a.EndDate),
		StartingBiddingPrice: money(a.StartingBiddingPrice),
		CurrentBiddingPrice:  money(v.CurrentBiddingPrice),
		HighestBidderID:      v.HighestBidderID,
	}
}

func toTokenItemDTO(it *model.Item) *TokenItemDTO {
	if it == nil {
		return nil
	}
	return &TokenItemDTO{
		ID:              it.ID,
		ItemID:          it.ItemID,
		ContractAddress: it.ContractAddress,
		Title:           it.Title,
		Description:     it.Description,
		File1:           it.File1,
		CoverImg:        it.CoverImg,
		TokenAmt:        it.TokenAmt,
		Creator:         it.CreatorID,
		CreatorName:     it.Creator.FullName(),
		Royalties:       money(it.Royalties),
		Category:        it.CategoryID,
		Is360Video:      it.Is360Video,
	}
}

func toTokenDTO(v *service.TokenView) TokenDTO {
	t := v.Token
	return TokenDTO{
		ID:           t.ID,
		Collectible:  toTokenItemDTO(t.Item),
		MintID:       t.MintID,
		Owner:        t.OwnerID,
		OwnerName:    t.OwnerName(),
		Supply:       v.Supply,
		Auction:      toAuctionDTO(v.Auction),
		TokenNumber:  t.TokenNumber,
		OnSale:       t.OnSale,
		IsSold:       t.IsSold,
		Price:        money(t.Price),
		SellType:     int(t.SaleType),
		CurrentPrice: money(v.CurrentPrice()),
		Likes:        v.Likes,
	}
}

func toItemDTO(v *service.ItemView) ItemDTO {
	it := v.Item
	dto := ItemDTO{
		ID:              it.ID,
		ItemID:          it.ItemID,
		ContractAddress: it.ContractAddress,
		Title:           it.Title,
		Description:     it.Description,
		Creator:         it.CreatorID,
		CreatorName:     it.Creator.FullName(),
		Royalties:       money(it.Royalties),
		Category:        it.CategoryID,
		TokenAmt:        it.TokenAmt,
		TokenSold:       v.TokenSold,
		File1:           it.File1,
		CoverImg:        it.CoverImg,
		Is360Video:      it.Is360Video,
		IsFeatured:      it.IsFeatured,
		IsTopseller:     it.IsTopseller,
		IsSuperFeatured: it.IsSuperFeatured,
		Likes:           v.Likes,
		Liked:           v.Liked,
		Collaborators:   make([]CollaboratorDTO, 0, len(it.Collaborators)),
		Tokens:          make([]ItemTokenDTO, 0, len(v.Tokens)),
	}
	for _, c := range it.Collaborators {
		dto.Collaborators = append(dto.Collaborators, CollaboratorDTO{
			ID:              c.ID,
			Item:            c.ItemID,
			User:            c.UserID,
			SharePercentage: money(c.SharePercentage),
			WalletToken:     c.WalletToken,
		})
	}
	for _, tv := range v.Tokens {
		dto.Tokens = append(dto.Tokens, ItemTokenDTO{
			ID:       tv.Token.ID,
			OnSale:   tv.Token.OnSale,
			Price:    money(tv.Token.Price),
			SellType: int(tv.Token.SaleType),
			Auction:  toAuctionDTO(tv.Auction),
		})
	}
	return dto
}

func toUserDTOs(users []model.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, UserDTO{
			ID:          u.ID,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			DisplayName: u.DisplayName(),
			WalletToken: u.WalletToken,
		})
	}
	return out
}

func toMetadataDTO(md *service.TokenMetadata) MetadataDTO {
	return MetadataDTO{
		TokenNumber: md.TokenNumber,
		Name:        md.Name,
		Description: md.Description,
		Category:    md.Category,
		File1:       md.File1,
		Files:       []string{},
		Creator:     md.Creator,
		Owner:       md.Owner,
		Is360Video:  md.Is360Video,
	}
}
