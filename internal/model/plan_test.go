package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlanTier(t *testing.T) {
	silver, err := ParsePlanTier("Silver")
	require.NoError(t, err)
	gold, err := ParsePlanTier("Gold")
	require.NoError(t, err)
	platinum, err := ParsePlanTier("Platinum")
	require.NoError(t, err)

	// 严格全序
	assert.True(t, silver < gold)
	assert.True(t, gold < platinum)

	_, err = ParsePlanTier("Diamond")
	assert.ErrorIs(t, err, ErrUnknownPlanTier)

	// 大小写敏感，未知名称一律拒绝
	_, err = ParsePlanTier("silver")
	assert.ErrorIs(t, err, ErrUnknownPlanTier)

	_, err = ParsePlanTier("")
	assert.ErrorIs(t, err, ErrUnknownPlanTier)
}

func TestIsUpgrade(t *testing.T) {
	up, err := IsUpgrade("Silver", "Gold")
	require.NoError(t, err)
	assert.True(t, up)

	up, err = IsUpgrade("Platinum", "Gold")
	require.NoError(t, err)
	assert.False(t, up)

	// 同档位不算升级
	up, err = IsUpgrade("Gold", "Gold")
	require.NoError(t, err)
	assert.False(t, up)

	// 任一侧未知都报错，不落入降级分支
	_, err = IsUpgrade("Diamond", "Gold")
	assert.ErrorIs(t, err, ErrUnknownPlanTier)
	_, err = IsUpgrade("Gold", "Diamond")
	assert.ErrorIs(t, err, ErrUnknownPlanTier)
}

func TestDiscount_EffectivePercentage(t *testing.T) {
	d := &Discount{Percentage: 25, MaxPercentage: 20}
	assert.Equal(t, float64(20), d.EffectivePercentage())

	d = &Discount{Percentage: 15, MaxPercentage: 20}
	assert.Equal(t, float64(15), d.EffectivePercentage())

	// 0 表示不设上限
	d = &Discount{Percentage: 90, MaxPercentage: 0}
	assert.Equal(t, float64(90), d.EffectivePercentage())
}
