package proration

import (
	"math"
	"time"
)

// DefaultCommissionRate 升级退款默认抽佣比例
const DefaultCommissionRate = 0.05

// CalculateRefund 计算提前取消订阅应退金额（最小货币单位）。
// periodAmount 为本计费期已收的金额，按剩余天数折算退款并扣除佣金。
// 取消时间在计费期结束之后（或计费期本身非法）时退款为 0，结果不会为负，
// 也不会超过本期收款。
func CalculateRefund(periodStart, periodEnd time.Time, periodAmount int64, cancelAt time.Time, commissionRate float64) int64 {
	daysInPeriod := periodEnd.Sub(periodStart).Hours() / 24
	remainingDays := periodEnd.Sub(cancelAt).Hours() / 24

	if remainingDays <= 0 || daysInPeriod <= 0 {
		return 0
	}

	dailyRate := float64(periodAmount) / daysInPeriod
	refund := dailyRate * remainingDays
	commission := refund * commissionRate
	refund -= commission

	if refund <= 0 {
		return 0
	}

	rounded := int64(math.Round(refund))
	if rounded > periodAmount {
		return periodAmount
	}
	return rounded
}
