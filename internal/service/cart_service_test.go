package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/repository"
	"github.com/qs3c/bookstore_go_server/internal/testutil"
)

func setupCartService(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cartRepo := repository.NewCartRepository(db)
	bookRepo := repository.NewBookRepository(db)
	return NewCartService(cartRepo, bookRepo), db
}

func TestCartService_Add(t *testing.T) {
	service, db := setupCartService(t)

	user := testutil.TestUser(t, db)
	seller := testutil.TestUser(t, db)
	category := testutil.TestCategory(t, db)
	book := testutil.TestBook(t, db, seller.ID, category.ID, testutil.WithQuantity(5))

	item, err := service.Add(user.ID, &dto.AddCartRequest{BookID: book.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	// 同一本书再次加入时叠加数量
	item, err = service.Add(user.ID, &dto.AddCartRequest{BookID: book.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	items, err := service.List(user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartService_Add_ExceedsStock(t *testing.T) {
	service, db := setupCartService(t)

	user := testutil.TestUser(t, db)
	category := testutil.TestCategory(t, db)
	book := testutil.TestBook(t, db, user.ID, category.ID, testutil.WithQuantity(3))

	_, err := service.Add(user.ID, &dto.AddCartRequest{BookID: book.ID, Quantity: 4})
	assert.ErrorIs(t, err, ErrStockExceeded)

	// 叠加后超库存同样拒绝
	_, err = service.Add(user.ID, &dto.AddCartRequest{BookID: book.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = service.Add(user.ID, &dto.AddCartRequest{BookID: book.ID, Quantity: 2})
	assert.ErrorIs(t, err, ErrStockExceeded)
}

func TestCartService_Add_BookNotFound(t *testing.T) {
	service, db := setupCartService(t)
	user := testutil.TestUser(t, db)

	_, err := service.Add(user.ID, &dto.AddCartRequest{BookID: 9999, Quantity: 1})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	service, db := setupCartService(t)

	user := testutil.TestUser(t, db)
	category := testutil.TestCategory(t, db)
	book := testutil.TestBook(t, db, user.ID, category.ID, testutil.WithQuantity(10))
	testutil.TestCartItem(t, db, user.ID, book.ID, 1)

	item, err := service.UpdateQuantity(user.ID, &dto.UpdateCartRequest{BookID: book.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	_, err = service.UpdateQuantity(user.ID, &dto.UpdateCartRequest{BookID: book.ID, Quantity: 11})
	assert.ErrorIs(t, err, ErrStockExceeded)
}

func TestCartService_Remove(t *testing.T) {
	service, db := setupCartService(t)

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	category := testutil.TestCategory(t, db)
	book := testutil.TestBook(t, db, user.ID, category.ID)
	item := testutil.TestCartItem(t, db, user.ID, book.ID, 1)

	// 他人无权移除
	assert.ErrorIs(t, service.Remove(other.ID, item.ID), ErrCartPermission)

	require.NoError(t, service.Remove(user.ID, item.ID))

	items, err := service.List(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartService_Clear(t *testing.T) {
	service, db := setupCartService(t)

	user := testutil.TestUser(t, db)
	category := testutil.TestCategory(t, db)
	book1 := testutil.TestBook(t, db, user.ID, category.ID)
	book2 := testutil.TestBook(t, db, user.ID, category.ID)
	testutil.TestCartItem(t, db, user.ID, book1.ID, 1)
	testutil.TestCartItem(t, db, user.ID, book2.ID, 2)

	require.NoError(t, service.Clear(user.ID))

	items, err := service.List(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
