package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/pkg/queue"
	"github.com/qs3c/bookstore_go_server/internal/repository"
	"github.com/qs3c/bookstore_go_server/internal/testutil"
)

func setupOrderService(t *testing.T) (*OrderService, *gorm.DB, *testutil.FakeGateway, *queue.Queue) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mailQueue := queue.NewQueue(client, "test_mail")

	gw := testutil.NewFakeGateway()
	service := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewCartRepository(db),
		repository.NewUserRepository(db),
		repository.NewPaymentRepository(db),
		gw,
		mailQueue,
	)
	return service, db, gw, mailQueue
}

// billingUser 建一个已绑定支付方式的用户
func billingUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	user := testutil.TestUser(t, db, testutil.WithStripeCustomer("cus_test"))
	payment := &model.Payment{
		UserID:           user.ID,
		PaymentMethodID:  "pm_test",
		StripeCustomerID: "cus_test",
	}
	require.NoError(t, db.Create(payment).Error)
	return user
}

func TestOrderService_PlaceOrder(t *testing.T) {
	service, db, _, mailQueue := setupOrderService(t)
	ctx := context.Background()

	user := billingUser(t, db)
	category := testutil.TestCategory(t, db)
	book1 := testutil.TestBook(t, db, user.ID, category.ID, testutil.WithPrice(15), testutil.WithQuantity(5))
	book2 := testutil.TestBook(t, db, user.ID, category.ID, testutil.WithPrice(20), testutil.WithQuantity(2))
	testutil.TestCartItem(t, db, user.ID, book1.ID, 2)
	testutil.TestCartItem(t, db, user.ID, book2.ID, 1)

	resp, err := service.PlaceOrder(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(50), resp.TotalAmount)
	assert.NotEmpty(t, resp.PaymentIntentID)

	// 库存扣减
	var b1, b2 model.Book
	require.NoError(t, db.First(&b1, book1.ID).Error)
	require.NoError(t, db.First(&b2, book2.ID).Error)
	assert.Equal(t, 3, b1.Quantity)
	assert.Equal(t, 1, b2.Quantity)

	// 购物车条目标记已下单
	var placed int64
	db.Model(&model.Cart{}).Where("user_id = ? AND is_placed = ?", user.ID, true).Count(&placed)
	assert.Equal(t, int64(2), placed)

	// 回执邮件入队
	msg, err := mailQueue.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, queue.MailOrderReceipt, msg.Kind)
	assert.Equal(t, resp.OrderID, msg.OrderID)
	assert.Equal(t, int64(50), msg.TotalAmount)
	assert.Equal(t, 3, msg.ItemCount)
}

func TestOrderService_PlaceOrder_EmptyCart(t *testing.T) {
	service, db, _, _ := setupOrderService(t)
	user := billingUser(t, db)

	_, err := service.PlaceOrder(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestOrderService_PlaceOrder_NoPaymentProfile(t *testing.T) {
	service, db, _, _ := setupOrderService(t)

	user := testutil.TestUser(t, db)
	category := testutil.TestCategory(t, db)
	book := testutil.TestBook(t, db, user.ID, category.ID)
	testutil.TestCartItem(t, db, user.ID, book.ID, 1)

	_, err := service.PlaceOrder(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNoPaymentProfile)
}

func TestOrderService_PlaceOrder_OutOfStock(t *testing.T) {
	service, db, _, _ := setupOrderService(t)

	user := billingUser(t, db)
	category := testutil.TestCategory(t, db)
	book := testutil.TestBook(t, db, user.ID, category.ID, testutil.WithQuantity(1))

	// 加购时库存够，下单时已被别人买走
	testutil.TestCartItem(t, db, user.ID, book.ID, 1)
	require.NoError(t, db.Model(&model.Book{}).Where("id = ?", book.ID).Update("quantity", 0).Error)

	_, err := service.PlaceOrder(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrOutOfStock)

	// 事务回滚：订单不存在，购物车条目保持未下单
	var orders int64
	db.Model(&model.Order{}).Count(&orders)
	assert.Equal(t, int64(0), orders)

	var placed int64
	db.Model(&model.Cart{}).Where("is_placed = ?", true).Count(&placed)
	assert.Equal(t, int64(0), placed)
}

func TestOrderService_GetAndList(t *testing.T) {
	service, db, _, _ := setupOrderService(t)

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	order := &model.Order{UserID: user.ID, TotalAmount: 42, PaymentIntentID: "pi_1"}
	require.NoError(t, db.Create(order).Error)

	got, err := service.Get(user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.TotalAmount)

	_, err = service.Get(other.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderPermission)

	orders, err := service.List(user.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
