package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/testutil"
)

func TestSubscriptionRepository_GetActiveByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Silver", 10)

	// 待替换的旧订阅不应被当成生效订阅
	testutil.TestSubscription(t, db, user.ID, plan.ID, testutil.WithAutoRenew(false))

	_, err := repo.GetActiveByUser(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	active := testutil.TestSubscription(t, db, user.ID, plan.ID)

	got, err := repo.GetActiveByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)
}

func TestSubscriptionRepository_UpdateExternalID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Gold", 20)
	sub := testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStripeSubscriptionID("sub_sched_9"))

	require.NoError(t, repo.UpdateExternalID(sub.ID, "sub_real_9"))

	got, err := repo.GetByStripeID("sub_real_9")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	_, err = repo.GetByStripeID("sub_sched_9")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubscriptionRepository_DeleteNonRenewingByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Silver", 10)

	testutil.TestSubscription(t, db, user.ID, plan.ID, testutil.WithAutoRenew(false))
	testutil.TestSubscription(t, db, user.ID, plan.ID)
	testutil.TestSubscription(t, db, other.ID, plan.ID, testutil.WithAutoRenew(false))

	deleted, err := repo.DeleteNonRenewingByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// 本人的生效订阅和他人的记录不受影响
	var count int64
	db.Model(&model.Subscription{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestSubscriptionRepository_DeleteByStripeID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, "Silver", 10)
	testutil.TestSubscription(t, db, user.ID, plan.ID,
		testutil.WithStripeSubscriptionID("sub_gone"))

	deleted, err := repo.DeleteByStripeID("sub_gone")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// 再删一次返回 0 行，调用方据此识别重放
	deleted, err = repo.DeleteByStripeID("sub_gone")
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
