package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) GetByID(id int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) GetByStripeID(stripeID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("stripe_subscription_id = ?", stripeID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveByUser 获取用户当前生效的循环订阅
func (r *SubscriptionRepository) GetActiveByUser(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ? AND auto_renew = ? AND status = ?",
		userID, true, model.SubscriptionActive).
		Order("id DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetPendingByUser 获取用户降级流程中待接替的旧订阅（autoRenew=false）
func (r *SubscriptionRepository) GetPendingByUser(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ? AND auto_renew = ?", userID, false).
		Order("id DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) ListByUser(userID int64) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) Update(sub *model.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *SubscriptionRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Subscription{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateExternalID 将本地记录换绑到新的网关订阅
func (r *SubscriptionRepository) UpdateExternalID(id int64, stripeID string) error {
	return r.db.Model(&model.Subscription{}).Where("id = ?", id).
		Update("stripe_subscription_id", stripeID).Error
}

func (r *SubscriptionRepository) Delete(id int64) error {
	return r.db.Delete(&model.Subscription{}, id).Error
}

func (r *SubscriptionRepository) DeleteByStripeID(stripeID string) (int64, error) {
	result := r.db.Where("stripe_subscription_id = ?", stripeID).
		Delete(&model.Subscription{})
	return result.RowsAffected, result.Error
}

// DeleteNonRenewingByUser 清除用户所有待替换的旧订阅记录
func (r *SubscriptionRepository) DeleteNonRenewingByUser(userID int64) (int64, error) {
	result := r.db.Where("user_id = ? AND auto_renew = ?", userID, false).
		Delete(&model.Subscription{})
	return result.RowsAffected, result.Error
}

func (r *SubscriptionRepository) CountByUser(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Subscription{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
