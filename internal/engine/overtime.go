package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/shopspring/decimal"
)

// ResolvePolicy picks the single effective policy for a day. Candidates are
// tried from the most specific scope outwards: the shift's policy, then the
// department's, then the default policies effective on the date. Among
// defaults the latest EffectiveFrom wins; an exact tie is a configuration
// error and resolves to nothing.
func ResolvePolicy(policies []overtime.Policy, shiftPolicyID, departmentPolicyID *string, date time.Time) (*overtime.Policy, error) {
	for _, ref := range []*string{shiftPolicyID, departmentPolicyID} {
		if ref == nil {
			continue
		}
		for _, p := range policies {
			if p.ID == *ref && p.EffectiveOn(date) {
				policy := p
				return &policy, nil
			}
		}
	}

	var defaults []overtime.Policy
	for _, p := range policies {
		if p.IsDefault && p.EffectiveOn(date) {
			defaults = append(defaults, p)
		}
	}
	if len(defaults) == 0 {
		return nil, overtime.ErrNoPolicy
	}

	sort.Slice(defaults, func(i, j int) bool {
		return defaults[i].EffectiveFrom.After(defaults[j].EffectiveFrom)
	})
	if len(defaults) > 1 && defaults[0].EffectiveFrom.Equal(defaults[1].EffectiveFrom) {
		return nil, fmt.Errorf("%w: %s and %s both effective from %s", overtime.ErrConflictingDefaultPolicies,
			defaults[0].ID, defaults[1].ID, defaults[0].EffectiveFrom.Format("2006-01-02"))
	}

	policy := defaults[0]
	return &policy, nil
}

type Category string

const (
	CategoryNone    Category = "NONE"
	CategoryPlain   Category = "PLAIN"
	CategoryWeekend Category = "WEEKEND"
	CategoryHoliday Category = "HOLIDAY"
)

// DayKind is the calendar metadata overtime classification depends on.
type DayKind struct {
	IsWeekend bool
	IsHoliday bool
}

// OvertimeResult is the daily overtime of one day. Minutes are paid minutes in
// exactly one category; CappedMinutes were worked above the cap and are not paid.
type OvertimeResult struct {
	Category         Category
	PlainMinutes     int
	WeekendMinutes   int
	HolidayMinutes   int
	CappedMinutes    int
	DiscardedMinutes int
}

func (r OvertimeResult) PaidMinutes() int {
	return r.PlainMinutes + r.WeekendMinutes + r.HolidayMinutes
}

func (r OvertimeResult) Capped() bool {
	return r.CappedMinutes > 0
}

// ComputeOvertime applies one policy to a day's net worked minutes.
// requiredMinutes stands in for the daily threshold when the policy has none.
func ComputeOvertime(netMinutes, requiredMinutes int, policy overtime.Policy, day DayKind) OvertimeResult {
	category := CategoryPlain
	switch {
	case day.IsHoliday && policy.ApplyHolidayRule:
		category = CategoryHoliday
	case day.IsWeekend && policy.ApplyWeekendRule:
		category = CategoryWeekend
	}

	threshold := policy.DailyThresholdMinutes
	if threshold <= 0 {
		threshold = requiredMinutes
	}

	excess := netMinutes - threshold
	if category != CategoryPlain && !policy.RestDayThresholdApplies {
		excess = netMinutes
	}
	if excess < 0 {
		excess = 0
	}

	result := OvertimeResult{Category: CategoryNone}

	// The minimum is a floor, not a rounding step: short excess is dropped whole.
	if excess < policy.MinimumOvertimeMinutes {
		result.DiscardedMinutes = excess
		return result
	}
	if excess == 0 {
		return result
	}

	if policy.MaxDailyOvertimeMinutes > 0 && excess > policy.MaxDailyOvertimeMinutes {
		result.CappedMinutes = excess - policy.MaxDailyOvertimeMinutes
		excess = policy.MaxDailyOvertimeMinutes
	}

	result.Category = category
	switch category {
	case CategoryHoliday:
		result.HolidayMinutes = excess
	case CategoryWeekend:
		result.WeekendMinutes = excess
	default:
		result.PlainMinutes = excess
	}
	return result
}

// WeightedHours values a record's paid overtime in payroll hours. dailyPolicy
// prices the daily categories and weeklyPolicy prices weekly minutes; either
// may be nil, in which case those minutes are priced at 1.
func WeightedHours(r attendance.Record, dailyPolicy, weeklyPolicy *overtime.Policy) decimal.Decimal {
	one := decimal.NewFromInt(1)
	plain, weekend, holiday, weekly := one, one, one, one
	if dailyPolicy != nil {
		plain = multiplierOrOne(dailyPolicy.DailyMultiplier)
		weekend = multiplierOrOne(dailyPolicy.WeekendMultiplier)
		holiday = multiplierOrOne(dailyPolicy.HolidayMultiplier)
	}
	if weeklyPolicy != nil {
		weekly = multiplierOrOne(weeklyPolicy.WeeklyMultiplier)
	}

	total := hours(r.OvertimeMinutes).Mul(plain).
		Add(hours(r.WeekendOvertimeMinutes).Mul(weekend)).
		Add(hours(r.HolidayOvertimeMinutes).Mul(holiday)).
		Add(hours(r.WeeklyOvertimeMinutes).Mul(weekly))
	return total.Round(2)
}

// ApprovalFor classifies paid overtime against the policy's auto-approval threshold.
func ApprovalFor(paidMinutes int, policy *overtime.Policy) attendance.OvertimeApproval {
	if paidMinutes <= 0 {
		return attendance.OvertimeApprovalNone
	}
	if policy != nil && paidMinutes <= policy.AutoApprovalThresholdMinutes {
		return attendance.OvertimeApprovalAutoApproved
	}
	return attendance.OvertimeApprovalRequiresApproval
}

func multiplierOrOne(m decimal.Decimal) decimal.Decimal {
	if m.IsZero() {
		return decimal.NewFromInt(1)
	}
	return m
}

func hours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
}
