package repo

import (
	"NFTMarket/internal/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestItemRepository_CreateDuplicateContract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addr := "0xdead"

	first := &model.Item{ItemID: "contract1", Title: "A", Royalties: dec("0"), CreatorID: f.creator.ID, ContractAddress: &addr}
	require.NoError(t, f.repos.Items().Create(ctx, first))
	second := &model.Item{ItemID: "contract2", Title: "B", Royalties: dec("0"), CreatorID: f.creator.ID, ContractAddress: &addr}
	assert.ErrorIs(t, f.repos.Items().Create(ctx, second), gorm.ErrDuplicatedKey)

	third := &model.Item{ItemID: "contract3", Title: "C", Royalties: dec("0"), CreatorID: f.creator.ID}
	require.NoError(t, f.repos.Items().Create(ctx, third))
	assert.ErrorIs(t, f.repos.Items().Update(ctx, third.ID, map[string]any{"contract_address": addr}), gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, f.repos.Items().Update(ctx, 404, map[string]any{"title": "x"}), gorm.ErrRecordNotFound)
}

func TestItemRepository_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	art := &model.Category{Name: "Art"}
	require.NoError(t, f.repos.Items().CreateCategory(ctx, art))

	featured := &model.Item{ItemID: "featured1", Title: "F", Royalties: dec("0"), CreatorID: f.buyer.ID, IsFeatured: true, CategoryID: &art.ID}
	require.NoError(t, f.repos.Items().Create(ctx, featured))

	all, err := f.repos.Items().List(ctx, ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCat, err := f.repos.Items().List(ctx, ItemFilter{CategoryIDs: []int64{art.ID, 99}})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, featured.ID, byCat[0].ID)
	require.NotNil(t, byCat[0].Category)

	onlyFeatured, err := f.repos.Items().List(ctx, ItemFilter{Featured: true, CreatorID: &f.buyer.ID})
	require.NoError(t, err)
	assert.Len(t, onlyFeatured, 1)

	none, err := f.repos.Items().List(ctx, ItemFilter{Topseller: true})
	require.NoError(t, err)
	assert.Empty(t, none)

	paged, err := f.repos.Items().List(ctx, ItemFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, featured.ID, paged[0].ID)
}

func TestItemRepository_Likes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := f.repos.Items()

	liked, err := items.ToggleLike(ctx, f.item.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = items.ToggleLike(ctx, f.item.ID, f.creator.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	n, err := items.LikeCount(ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	ok, err := items.IsLiked(ctx, f.item.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	users, err := items.ListLikers(ctx, f.item.ID)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	liked, err = items.ToggleLike(ctx, f.item.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	ok, err = items.IsLiked(ctx, f.item.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	n, err = items.LikeCount(ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
