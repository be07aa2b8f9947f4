package model

import (
	"errors"
	"time"
)

type Plan struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:50;uniqueIndex;not null" json:"name"` // Silver, Gold, Platinum
	Price         int64     `gorm:"not null" json:"price"`                    // 月费（主货币单位）
	StripePlanID  string    `gorm:"column:stripe_plan_id;size:100;not null" json:"-"`
	StripePriceID string    `gorm:"column:stripe_price_id;size:100;not null" json:"-"`
	TrialEligible bool      `gorm:"default:false" json:"trial_eligible"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// PlanTier 套餐档位，档位间为严格全序
type PlanTier int

const (
	TierSilver PlanTier = iota + 1
	TierGold
	TierPlatinum
)

var planTiers = map[string]PlanTier{
	"Silver":   TierSilver,
	"Gold":     TierGold,
	"Platinum": TierPlatinum,
}

var ErrUnknownPlanTier = errors.New("未知的套餐档位")

// ParsePlanTier 解析套餐名，未知名称直接报错而不是静默比较失败
func ParsePlanTier(name string) (PlanTier, error) {
	tier, ok := planTiers[name]
	if !ok {
		return 0, ErrUnknownPlanTier
	}
	return tier, nil
}

// IsUpgrade 判断目标套餐是否严格高于当前套餐
func IsUpgrade(currentName, targetName string) (bool, error) {
	current, err := ParsePlanTier(currentName)
	if err != nil {
		return false, err
	}
	target, err := ParsePlanTier(targetName)
	if err != nil {
		return false, err
	}
	return target > current, nil
}
