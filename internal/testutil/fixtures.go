package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	user := &model.User{
		FirstName:    "Test",
		LastName:     "Reader",
		Email:        fmt.Sprintf("test_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		Role:         "customer",
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// WithStripeCustomer 绑定网关客户 ID
func WithStripeCustomer(customerID string) func(*model.User) {
	return func(u *model.User) {
		u.StripeCustomerID = &customerID
	}
}

// TestCategory 创建测试分类
func TestCategory(t *testing.T, db *gorm.DB, opts ...func(*model.Category)) *model.Category {
	t.Helper()

	category := &model.Category{
		Name: fmt.Sprintf("Category %d", time.Now().UnixNano()%100000),
	}

	for _, opt := range opts {
		opt(category)
	}

	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}

	return category
}

// WithCategoryName 设置分类名
func WithCategoryName(name string) func(*model.Category) {
	return func(c *model.Category) {
		c.Name = name
	}
}

// TestBook 创建测试图书
func TestBook(t *testing.T, db *gorm.DB, userID, categoryID int64, opts ...func(*model.Book)) *model.Book {
	t.Helper()

	book := &model.Book{
		UserID:     userID,
		CategoryID: categoryID,
		Name:       fmt.Sprintf("Test Book %d", time.Now().UnixNano()%100000),
		Price:      20,
		Quantity:   10,
	}

	for _, opt := range opts {
		opt(book)
	}

	if err := db.Create(book).Error; err != nil {
		t.Fatalf("Failed to create test book: %v", err)
	}

	return book
}

// WithBookName 设置书名
func WithBookName(name string) func(*model.Book) {
	return func(b *model.Book) {
		b.Name = name
	}
}

// WithPrice 设置单价
func WithPrice(price int64) func(*model.Book) {
	return func(b *model.Book) {
		b.Price = price
	}
}

// WithQuantity 设置库存
func WithQuantity(quantity int) func(*model.Book) {
	return func(b *model.Book) {
		b.Quantity = quantity
	}
}

// TestPlan 创建测试套餐
func TestPlan(t *testing.T, db *gorm.DB, name string, price int64, opts ...func(*model.Plan)) *model.Plan {
	t.Helper()

	plan := &model.Plan{
		Name:          name,
		Price:         price,
		StripePlanID:  fmt.Sprintf("plan_%s_%d", name, time.Now().UnixNano()%100000),
		StripePriceID: fmt.Sprintf("price_%s_%d", name, time.Now().UnixNano()%100000),
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// WithTrialEligible 设置试用资格
func WithTrialEligible(eligible bool) func(*model.Plan) {
	return func(p *model.Plan) {
		p.TrialEligible = eligible
	}
}

// TestSubscription 创建测试订阅记录
func TestSubscription(t *testing.T, db *gorm.DB, userID, planID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	sub := &model.Subscription{
		UserID:               userID,
		PlanID:               planID,
		StripeSubscriptionID: fmt.Sprintf("sub_%d", time.Now().UnixNano()),
		AutoRenew:            true,
		Status:               model.SubscriptionActive,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithStripeSubscriptionID 设置网关订阅 ID
func WithStripeSubscriptionID(id string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.StripeSubscriptionID = id
	}
}

// WithAutoRenew 设置自动续费标记
func WithAutoRenew(autoRenew bool) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.AutoRenew = autoRenew
	}
}

// WithSubscriptionStatus 设置订阅状态
func WithSubscriptionStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// TestDiscount 创建测试折扣码
func TestDiscount(t *testing.T, db *gorm.DB, opts ...func(*model.Discount)) *model.Discount {
	t.Helper()

	discount := &model.Discount{
		Code:           fmt.Sprintf("SAVE%d", time.Now().UnixNano()%100000),
		StripeCouponID: fmt.Sprintf("coupon_%d", time.Now().UnixNano()%100000),
		Percentage:     10,
		MinPrice:       0,
		IsActive:       true,
	}

	for _, opt := range opts {
		opt(discount)
	}

	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("Failed to create test discount: %v", err)
	}

	return discount
}

// WithCode 设置折扣码
func WithCode(code string) func(*model.Discount) {
	return func(d *model.Discount) {
		d.Code = code
	}
}

// WithPercentage 设置折扣比例
func WithPercentage(percentage float64) func(*model.Discount) {
	return func(d *model.Discount) {
		d.Percentage = percentage
	}
}

// WithMinPrice 设置适用的最低套餐价
func WithMinPrice(minPrice int64) func(*model.Discount) {
	return func(d *model.Discount) {
		d.MinPrice = minPrice
	}
}

// WithMaxPercentage 设置折扣上限
func WithMaxPercentage(maxPercentage float64) func(*model.Discount) {
	return func(d *model.Discount) {
		d.MaxPercentage = maxPercentage
	}
}

// TestTaxRate 创建测试税率
func TestTaxRate(t *testing.T, db *gorm.DB, opts ...func(*model.TaxRate)) *model.TaxRate {
	t.Helper()

	taxRate := &model.TaxRate{
		StripeTaxRateID: fmt.Sprintf("txr_%d", time.Now().UnixNano()%100000),
		DisplayName:     fmt.Sprintf("VAT %d", time.Now().UnixNano()%100000),
		Percentage:      20,
		Inclusive:       false,
	}

	for _, opt := range opts {
		opt(taxRate)
	}

	if err := db.Create(taxRate).Error; err != nil {
		t.Fatalf("Failed to create test tax rate: %v", err)
	}

	return taxRate
}

// TestCartItem 创建测试购物车条目
func TestCartItem(t *testing.T, db *gorm.DB, userID, bookID int64, quantity int) *model.Cart {
	t.Helper()

	item := &model.Cart{
		UserID:   userID,
		BookID:   bookID,
		Quantity: quantity,
	}

	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to create test cart item: %v", err)
	}

	return item
}
