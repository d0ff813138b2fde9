package overtime

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scope says where a policy is attached. Resolution prefers the most specific scope.
type Scope string

const (
	ScopeShift      Scope = "SHIFT"
	ScopeDepartment Scope = "DEPARTMENT"
	ScopeDefault    Scope = "DEFAULT"
)

type Policy struct {
	ID        string
	CompanyID string
	Name      string
	Scope     Scope

	DailyThresholdMinutes int
	DailyMultiplier       decimal.Decimal

	ApplyWeeklyRule        bool
	WeeklyThresholdMinutes int
	WeeklyMultiplier       decimal.Decimal

	ApplyWeekendRule  bool
	WeekendMultiplier decimal.Decimal

	ApplyHolidayRule  bool
	HolidayMultiplier decimal.Decimal

	// RestDayThresholdApplies keeps the daily threshold on weekends and holidays.
	// When false the entire worked time of such a day is overtime.
	RestDayThresholdApplies bool

	MaxDailyOvertimeMinutes      int // 0 means uncapped
	MinimumOvertimeMinutes       int
	AutoApprovalThresholdMinutes int

	IsDefault     bool
	IsActive      bool
	EffectiveFrom time.Time
	EffectiveTo   *time.Time // inclusive, nil means open ended

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveOn reports whether the policy is active and its date range covers date.
func (p Policy) EffectiveOn(date time.Time) bool {
	if !p.IsActive {
		return false
	}
	d := dateOnly(date)
	if d.Before(dateOnly(p.EffectiveFrom)) {
		return false
	}
	return p.EffectiveTo == nil || !d.After(dateOnly(*p.EffectiveTo))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
