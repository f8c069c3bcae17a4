package service

import (
	"NFTMarket/internal/events"
	"NFTMarket/internal/model"
	"NFTMarket/internal/repo"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	itemIDLen   = 9
	maxTitleLen = 64
)

var hundred = decimal.NewFromInt(100)

// ItemService инкапсулирует бизнес-логику каталога работ и выпуска токенов.
type ItemService struct {
	deps
}

func NewItemService(r repo.Repositories, p events.Publisher, logger *zap.SugaredLogger, opts ...Option) *ItemService {
	return &ItemService{deps: newDeps(r, p, logger, opts)}
}

// CollaboratorParams: соавтор из запроса.
type CollaboratorParams struct {
	UserID          *int64
	SharePercentage decimal.Decimal
	WalletToken     string
}

// CreateItemParams: поля новой работы.
type CreateItemParams struct {
	Title           string
	Description     string
	Royalties       decimal.Decimal
	CategoryID      *int64
	TokenAmt        int
	ContractAddress *string
	File1           string
	CoverImg        string
	Is360Video      bool
	Collaborators   []CollaboratorParams
}

// TokenMetadata: публичное описание токена по номеру внутри работы.
type TokenMetadata struct {
	TokenNumber int
	Name        string
	Description string
	Category    *string
	File1       *string
	Creator     string
	Owner       string
	Is360Video  bool
}

// CreateItem создаёт работу создателя creatorID вместе с соавторами.
// Без соавторов создаётся одна запись: сам создатель со 100%.
func (s *ItemService) CreateItem(ctx context.Context, creatorID int64, p CreateItemParams) (*ItemView, error) {
	creator, err := s.repos.Users().GetByID(ctx, creatorID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.validateItem(ctx, &p); err != nil {
		return nil, err
	}

	it := &model.Item{
		ItemID:          newPublicItemID(),
		ContractAddress: p.ContractAddress,
		Title:           p.Title,
		Description:     p.Description,
		Royalties:       p.Royalties,
		CreatorID:       creator.ID,
		TokenAmt:        p.TokenAmt,
		CategoryID:      p.CategoryID,
		File1:           p.File1,
		CoverImg:        p.CoverImg,
		Is360Video:      p.Is360Video,
	}
	if len(p.Collaborators) == 0 {
		it.Collaborators = []model.ItemCollaborator{{
			UserID:          creator.ID,
			SharePercentage: hundred,
			WalletToken:     creator.WalletToken,
		}}
	}
	for _, c := range p.Collaborators {
		it.Collaborators = append(it.Collaborators, model.ItemCollaborator{
			UserID:          *c.UserID,
			SharePercentage: c.SharePercentage,
			WalletToken:     c.WalletToken,
		})
	}

	if err := s.repos.Items().Create(ctx, it); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errContractTaken()
		}
		return nil, fmt.Errorf("create item: %w", err)
	}
	s.logger.Infow("item created", "item_id", it.ID, "public_id", it.ItemID, "creator_id", creatorID)
	return s.GetItem(ctx, creatorID, it.ID)
}

func errContractTaken() error {
	return fieldErr("contract_address", ErrInvalidField, "item with this contract address already exists.")
}

// normalizeContract: пустой адрес хранится как NULL, иначе работы без адреса конфликтуют по уникальности.
func normalizeContract(addr *string) *string {
	if addr == nil {
		return nil
	}
	v := strings.TrimSpace(*addr)
	if v == "" {
		return nil
	}
	return &v
}

func (s *ItemService) validateItem(ctx context.Context, p *CreateItemParams) error {
	var err error
	if p.Title, err = validTitle(p.Title); err != nil {
		return err
	}
	if err := validRoyalties(p.Royalties); err != nil {
		return err
	}
	switch {
	case p.TokenAmt == 0:
		p.TokenAmt = 1
	case p.TokenAmt < 0:
		return errTokenAmt()
	}
	if p.CategoryID != nil {
		if err := s.categoryExists(ctx, *p.CategoryID); err != nil {
			return err
		}
	}
	p.ContractAddress = normalizeContract(p.ContractAddress)
	return s.validateCollaborators(ctx, p.Collaborators)
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fieldErr("title", ErrRequiredField, "This field is required.")
	}
	if len([]rune(title)) > maxTitleLen {
		return "", fieldErr("title", ErrInvalidField, "Ensure this field has no more than %d characters.", maxTitleLen)
	}
	return title, nil
}

func validRoyalties(r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(hundred) || !r.Equal(r.Truncate(2)) {
		return fieldErr("royalties", ErrInvalidField, "Ensure this value is between 0 and 100 with no more than 2 decimal places.")
	}
	return nil
}

func errTokenAmt() error {
	return fieldErr("token_amt", ErrInvalidField, "Ensure this value is greater than or equal to 1.")
}

func (s *ItemService) categoryExists(ctx context.Context, id int64) error {
	if _, err := s.repos.Items().GetCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fieldErr("category", ErrInvalidField, "Invalid pk \"%d\" - object does not exist.", id)
		}
		return fmt.Errorf("get category: %w", err)
	}
	return nil
}

// validateCollaborators: у каждого соавтора есть пользователь, доли в сумме дают ровно 100.
func (s *ItemService) validateCollaborators(ctx context.Context, cs []CollaboratorParams) error {
	if len(cs) == 0 {
		return nil
	}
	total := decimal.Zero
	for _, c := range cs {
		if c.UserID == nil {
			return fieldErr("collaborator", ErrInvalidCollaborators, "Please select a user for all co-creators")
		}
		if _, err := s.repos.Users().GetByID(ctx, *c.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fieldErr("collaborator", ErrInvalidCollaborators, "Invalid pk \"%d\" - object does not exist.", *c.UserID)
			}
			return fmt.Errorf("get collaborator: %w", err)
		}
		total = total.Add(c.SharePercentage)
	}
	if !total.Equal(hundred) {
		return fieldErr("collaborator", ErrInvalidCollaborators, "Creator splits must add up to 100%%")
	}
	return nil
}

func newPublicItemID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:itemIDLen]
}

// GetItem возвращает работу с непроданными токенами и числом проданных.
// viewerID = 0: анонимный зритель, Liked всегда false.
func (s *ItemService) GetItem(ctx context.Context, viewerID, id int64) (*ItemView, error) {
	it, err := s.repos.Items().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return itemView(ctx, s.repos, it, viewerID)
}

// GetMyItem возвращает работу, только если её создал creatorID.
func (s *ItemService) GetMyItem(ctx context.Context, creatorID, id int64) (*ItemView, error) {
	it, err := s.repos.Items().GetByCreator(ctx, creatorID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return itemView(ctx, s.repos, it, creatorID)
}

// ListItems: каталог работ по условиям f.
func (s *ItemService) ListItems(ctx context.Context, viewerID int64, f CatalogFilter, p Page) (*Paged[ItemView], error) {
	return s.listItems(ctx, "list items", viewerID, repo.ItemFilter{
		CategoryIDs:   f.CategoryIDs,
		Featured:      f.Featured,
		Topseller:     f.Topseller,
		SuperFeatured: f.SuperFeatured,
	}, p)
}

// ListMyItems: работы, созданные creatorID.
func (s *ItemService) ListMyItems(ctx context.Context, creatorID int64, p Page) (*Paged[ItemView], error) {
	return s.listItems(ctx, "list my items", creatorID, repo.ItemFilter{CreatorID: &creatorID}, p)
}

func (s *ItemService) listItems(ctx context.Context, op string, viewerID int64, f repo.ItemFilter, p Page) (*Paged[ItemView], error) {
	p = s.page(p)
	f.Limit, f.Offset = p.Limit, p.Offset
	items, err := s.repos.Items().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	views := make([]ItemView, 0, len(items))
	for i := range items {
		v, err := itemView(ctx, s.repos, &items[i], viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return &Paged[ItemView]{Results: views, Limit: p.Limit, Offset: p.Offset}, nil
}

func itemView(ctx context.Context, r repo.Repositories, it *model.Item, viewerID int64) (*ItemView, error) {
	sold, err := r.Items().SoldCount(ctx, it.ID)
	if err != nil {
		return nil, fmt.Errorf("sold count: %w", err)
	}
	likes, err := r.Items().LikeCount(ctx, it.ID)
	if err != nil {
		return nil, fmt.Errorf("like count: %w", err)
	}
	var liked bool
	if viewerID > 0 {
		if liked, err = r.Items().IsLiked(ctx, it.ID, viewerID); err != nil {
			return nil, fmt.Errorf("is liked: %w", err)
		}
	}
	tokens, err := r.Tokens().ListByItem(ctx, it.ID, true)
	if err != nil {
		return nil, fmt.Errorf("item tokens: %w", err)
	}
	views := make([]TokenView, 0, len(tokens))
	for i := range tokens {
		av, err := auctionView(ctx, r, tokens[i].Auction)
		if err != nil {
			return nil, err
		}
		views = append(views, TokenView{Token: &tokens[i], Auction: av, Likes: likes})
	}
	return &ItemView{Item: it, TokenSold: sold, Tokens: views, Likes: likes, Liked: liked}, nil
}

// UpdateItemParams: изменения работы создателем; nil означает, что поле не передано.
// Соавторы и публичный идентификатор не меняются.
type UpdateItemParams struct {
	Title           *string
	Description     *string
	Royalties       *decimal.Decimal
	CategoryID      *int64
	TokenAmt        *int
	ContractAddress *string
	File1           *string
	CoverImg        *string
	Is360Video      *bool
}

// UpdateItem частично меняет описание работы её создателя.
func (s *ItemService) UpdateItem(ctx context.Context, creatorID, id int64, p UpdateItemParams) (*ItemView, error) {
	if _, err := s.repos.Items().GetByCreator(ctx, creatorID, id); err != nil {
		return nil, notFound(err)
	}

	updates := map[string]any{}
	if p.Title != nil {
		title, err := validTitle(*p.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Royalties != nil {
		if err := validRoyalties(*p.Royalties); err != nil {
			return nil, err
		}
		updates["royalties"] = *p.Royalties
	}
	if p.TokenAmt != nil {
		if *p.TokenAmt < 1 {
			return nil, errTokenAmt()
		}
		updates["token_amt"] = *p.TokenAmt
	}
	if p.CategoryID != nil {
		if err := s.categoryExists(ctx, *p.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *p.CategoryID
	}
	if p.ContractAddress != nil {
		updates["contract_address"] = normalizeContract(p.ContractAddress)
	}
	if p.File1 != nil {
		updates["file1"] = *p.File1
	}
	if p.CoverImg != nil {
		updates["cover_img"] = *p.CoverImg
	}
	if p.Is360Video != nil {
		updates["Is360Video"] = *p.Is360Video
	}

	if err := s.repos.Items().Update(ctx, id, updates); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, errContractTaken()
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	if len(updates) > 0 {
		s.logger.Infow("item updated", "item_id", id, "creator_id", creatorID, "fields", len(updates))
	}
	return s.GetMyItem(ctx, creatorID, id)
}

// ToggleLike переключает отметку пользователя на работе и возвращает новое состояние.
func (s *ItemService) ToggleLike(ctx context.Context, userID, itemID int64) (bool, error) {
	if _, err := s.repos.Items().GetByID(ctx, itemID); err != nil {
		return false, notFound(err)
	}
	liked, err := s.repos.Items().ToggleLike(ctx, itemID, userID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// параллельный запрос уже поставил отметку
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}
	s.logger.Infow("item like toggled", "item_id", itemID, "user_id", userID, "liked", liked)
	return liked, nil
}

// LikeStatus: отметил ли пользователь работу; для анонимного (userID = 0) всегда false.
func (s *ItemService) LikeStatus(ctx context.Context, userID, itemID int64) (bool, error) {
	if _, err := s.repos.Items().GetByID(ctx, itemID); err != nil {
		return false, notFound(err)
	}
	if userID <= 0 {
		return false, nil
	}
	liked, err := s.repos.Items().IsLiked(ctx, itemID, userID)
	if err != nil {
		return false, fmt.Errorf("is liked: %w", err)
	}
	return liked, nil
}

// Likers: пользователи, отметившие работу.
func (s *ItemService) Likers(ctx context.Context, itemID int64) ([]model.User, error) {
	if _, err := s.repos.Items().GetByID(ctx, itemID); err != nil {
		return nil, notFound(err)
	}
	users, err := s.repos.Items().ListLikers(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	return users, nil
}

// Metadata ищет токен по публичному идентификатору работы и номеру.
// Найдено должно быть ровно одно совпадение, иначе ErrNotFound.
func (s *ItemService) Metadata(ctx context.Context, publicItemID string, tokenNumber int) (*TokenMetadata, error) {
	tokens, err := s.repos.Tokens().FindByItemNumber(ctx, publicItemID, tokenNumber)
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	if len(tokens) != 1 {
		return nil, ErrNotFound
	}
	t := tokens[0]
	md := &TokenMetadata{
		TokenNumber: t.TokenNumber,
		Owner:       t.OwnerName(),
	}
	if it := t.Item; it != nil {
		md.Name = it.Title
		md.Description = it.Description
		md.Creator = it.Creator.DisplayName()
		md.Is360Video = it.Is360Video
		if it.Category != nil {
			md.Category = &it.Category.Name
		}
		if it.File1 != "" {
			md.File1 = &it.File1
		}
	}
	return md, nil
}

func (s *ItemService) ListCategories(ctx context.Context) ([]model.Category, error) {
	cs, err := s.repos.Items().ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cs, nil
}
