package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type policyRepository struct {
	db *database.DB
}

// ListActive implements overtime.PolicyRepository. Multipliers are read as
// text so no precision is lost on the way into decimal.
func (r *policyRepository) ListActive(ctx context.Context) ([]overtime.Policy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, scope,
			   daily_threshold_minutes, daily_multiplier::text,
			   apply_weekly_rule, weekly_threshold_minutes, weekly_multiplier::text,
			   apply_weekend_rule, weekend_multiplier::text,
			   apply_holiday_rule, holiday_multiplier::text,
			   rest_day_threshold_applies, max_daily_overtime_minutes, minimum_overtime_minutes,
			   auto_approval_threshold_minutes, is_default, is_active, effective_from, effective_to,
			   created_at, updated_at
		FROM overtime_policies
		WHERE is_active
		ORDER BY effective_from, id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list overtime policies: %w", err)
	}
	defer rows.Close()

	var policies []overtime.Policy
	for rows.Next() {
		var (
			p                              overtime.Policy
			daily, weekly, weekend, holiday string
		)
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.Name, &p.Scope,
			&p.DailyThresholdMinutes, &daily,
			&p.ApplyWeeklyRule, &p.WeeklyThresholdMinutes, &weekly,
			&p.ApplyWeekendRule, &weekend,
			&p.ApplyHolidayRule, &holiday,
			&p.RestDayThresholdApplies, &p.MaxDailyOvertimeMinutes, &p.MinimumOvertimeMinutes,
			&p.AutoApprovalThresholdMinutes, &p.IsDefault, &p.IsActive, &p.EffectiveFrom, &p.EffectiveTo,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan overtime policy: %w", err)
		}

		for _, m := range []struct {
			raw string
			dst *decimal.Decimal
		}{
			{daily, &p.DailyMultiplier},
			{weekly, &p.WeeklyMultiplier},
			{weekend, &p.WeekendMultiplier},
			{holiday, &p.HolidayMultiplier},
		} {
			if *m.dst, err = decimal.NewFromString(m.raw); err != nil {
				return nil, fmt.Errorf("policy %s: invalid multiplier %q: %w", p.ID, m.raw, err)
			}
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overtime policies: %w", err)
	}
	return policies, nil
}

// Create implements overtime.PolicyRepository.
func (r *policyRepository) Create(ctx context.Context, p overtime.Policy) (overtime.Policy, error) {
	q := GetQuerier(ctx, r.db)
	if p.ID == "" {
		p.ID = newID()
	}

	query := `
		INSERT INTO overtime_policies (
			id, company_id, name, scope,
			daily_threshold_minutes, daily_multiplier,
			apply_weekly_rule, weekly_threshold_minutes, weekly_multiplier,
			apply_weekend_rule, weekend_multiplier,
			apply_holiday_rule, holiday_multiplier,
			rest_day_threshold_applies, max_daily_overtime_minutes, minimum_overtime_minutes,
			auto_approval_threshold_minutes, is_default, is_active, effective_from, effective_to
		) VALUES (
			$1, $2, $3, $4, $5, $6::numeric, $7, $8, $9::numeric, $10, $11::numeric, $12, $13::numeric,
			$14, $15, $16, $17, $18, $19, $20, $21
		)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		p.ID, p.CompanyID, p.Name, string(p.Scope),
		p.DailyThresholdMinutes, multiplierText(p.DailyMultiplier),
		p.ApplyWeeklyRule, p.WeeklyThresholdMinutes, multiplierText(p.WeeklyMultiplier),
		p.ApplyWeekendRule, multiplierText(p.WeekendMultiplier),
		p.ApplyHolidayRule, multiplierText(p.HolidayMultiplier),
		p.RestDayThresholdApplies, p.MaxDailyOvertimeMinutes, p.MinimumOvertimeMinutes,
		p.AutoApprovalThresholdMinutes, p.IsDefault, p.IsActive, dateUTC(p.EffectiveFrom), p.EffectiveTo,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return overtime.Policy{}, fmt.Errorf("failed to create overtime policy: %w", err)
	}
	return p, nil
}

// multiplierText stores an unset multiplier as 1.
func multiplierText(m decimal.Decimal) string {
	if m.IsZero() {
		return "1"
	}
	return m.String()
}

func NewPolicyRepository(db *database.DB) overtime.PolicyRepository {
	return &policyRepository{db: db}
}
