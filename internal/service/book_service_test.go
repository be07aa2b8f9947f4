package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/repository"
	"github.com/qs3c/bookstore_go_server/internal/testutil"
)

func setupBookService(t *testing.T) (*BookService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Catalog.DefaultPageSize = 10
	cfg.Catalog.CacheTTLSeconds = 60

	service := NewBookService(
		repository.NewBookRepository(db),
		repository.NewCategoryRepository(db),
		client,
		nil, // OSS 不参与本组测试
		cfg,
	)
	return service, db
}

func TestBookService_Create(t *testing.T) {
	service, db := setupBookService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	category := testutil.TestCategory(t, db)

	book, err := service.Create(ctx, user.ID, &dto.CreateBookRequest{
		Name:       "The Go Programming Language",
		Price:      30,
		Quantity:   5,
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, book.UserID)

	// 重名拒绝
	_, err = service.Create(ctx, user.ID, &dto.CreateBookRequest{
		Name:       "The Go Programming Language",
		Price:      25,
		Quantity:   1,
		CategoryID: category.ID,
	})
	assert.ErrorIs(t, err, ErrBookNameExists)

	// 分类不存在拒绝
	_, err = service.Create(ctx, user.ID, &dto.CreateBookRequest{
		Name:       "Another Book",
		Price:      10,
		Quantity:   1,
		CategoryID: 9999,
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestBookService_List(t *testing.T) {
	service, db := setupBookService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	fiction := testutil.TestCategory(t, db)
	tech := testutil.TestCategory(t, db)

	testutil.TestBook(t, db, user.ID, fiction.ID, testutil.WithBookName("Dune"), testutil.WithPrice(12))
	testutil.TestBook(t, db, user.ID, tech.ID, testutil.WithBookName("SICP"), testutil.WithPrice(40))
	testutil.TestBook(t, db, user.ID, tech.ID, testutil.WithBookName("TAPL"), testutil.WithPrice(55))

	result, err := service.List(ctx, &dto.ListBooksRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.Len(t, result.Books, 3)

	// 分类过滤
	result, err = service.List(ctx, &dto.ListBooksRequest{CategoryID: tech.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)

	// 关键字过滤
	result, err = service.List(ctx, &dto.ListBooksRequest{Keyword: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)

	// 价格升序
	result, err = service.List(ctx, &dto.ListBooksRequest{SortBy: "price", OrderBy: "asc"})
	require.NoError(t, err)
	require.Len(t, result.Books, 3)
	assert.Equal(t, "Dune", result.Books[0].Name)
	assert.Equal(t, "TAPL", result.Books[2].Name)
}

func TestBookService_List_CacheInvalidation(t *testing.T) {
	service, db := setupBookService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	category := testutil.TestCategory(t, db)
	testutil.TestBook(t, db, user.ID, category.ID, testutil.WithBookName("First"))

	result, err := service.List(ctx, &dto.ListBooksRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)

	// 命中缓存：绕过 service 直接插表不会反映在结果里
	testutil.TestBook(t, db, user.ID, category.ID, testutil.WithBookName("Sneaky"))
	result, err = service.List(ctx, &dto.ListBooksRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)

	// 经 service 写入会提升缓存版本，之后能看到全部三本
	_, err = service.Create(ctx, user.ID, &dto.CreateBookRequest{
		Name:       "Third",
		Price:      10,
		Quantity:   1,
		CategoryID: category.ID,
	})
	require.NoError(t, err)

	result, err = service.List(ctx, &dto.ListBooksRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
}

func TestBookService_UpdateAndDelete_Permission(t *testing.T) {
	service, db := setupBookService(t)
	ctx := context.Background()

	owner := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	category := testutil.TestCategory(t, db)
	book := testutil.TestBook(t, db, owner.ID, category.ID)

	newPrice := int64(99)
	_, err := service.Update(ctx, other.ID, book.ID, &dto.UpdateBookRequest{Price: &newPrice})
	assert.ErrorIs(t, err, ErrBookPermission)

	updated, err := service.Update(ctx, owner.ID, book.ID, &dto.UpdateBookRequest{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(99), updated.Price)

	assert.ErrorIs(t, service.Delete(ctx, other.ID, book.ID), ErrBookPermission)
	require.NoError(t, service.Delete(ctx, owner.ID, book.ID))

	var count int64
	db.Model(&model.Book{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
