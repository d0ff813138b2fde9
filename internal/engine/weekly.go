package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// WeekInput is one staff week as seen by the weekly pass.
type WeekInput struct {
	Key     attendance.WeekKey
	Records []attendance.Record
	// Policies indexed by ID; used to price records and find the weekly rule.
	Policies map[string]overtime.Policy
	// ScheduledDates are the dates the staff member was expected to work.
	ScheduledDates []time.Time
	// Closed means no more punches are expected for the week.
	Closed bool
}

type WeekResult struct {
	Records          []attendance.Record
	WeeklyPolicy     *overtime.Policy
	ConvertedMinutes int
}

// ReconcileWeek applies the weekly threshold over records produced by the
// daily pass. Weekly minutes from an earlier run are folded back into regular
// time first, so running it twice on its own output changes nothing.
//
// Regular minutes of PRESENT days are accumulated in date order; minutes past
// the threshold become weekly overtime, limited by the room left under the
// daily cap. Minutes that do not fit stay regular and the day is flagged
// OVERTIME_CAPPED.
//
// An open week with a scheduled date lacking a record returns ErrWeekIncomplete.
func ReconcileWeek(in WeekInput) (WeekResult, error) {
	records := make([]attendance.Record, len(in.Records))
	copy(records, in.Records)
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })

	if !in.Closed {
		have := make(map[string]struct{}, len(records))
		for _, r := range records {
			have[r.Date.Format("2006-01-02")] = struct{}{}
		}
		for _, d := range in.ScheduledDates {
			if _, ok := have[schedule.DateOnly(d).Format("2006-01-02")]; !ok {
				return WeekResult{}, fmt.Errorf("%w: %s missing %s", attendance.ErrWeekIncomplete,
					in.Key, d.Format("2006-01-02"))
			}
		}
	}

	for i := range records {
		resetWeekly(&records[i])
	}

	weekly := weeklyPolicy(records, in.Policies)
	result := WeekResult{WeeklyPolicy: weekly}

	if weekly != nil {
		cumulative := 0
		for i := range records {
			r := &records[i]
			if r.Presence != attendance.PresencePresent || r.RegularMinutes <= 0 {
				continue
			}
			before := cumulative
			cumulative += r.RegularMinutes

			over := cumulative - max(before, weekly.WeeklyThresholdMinutes)
			if over <= 0 {
				continue
			}

			convert := over
			if limit := weekly.MaxDailyOvertimeMinutes; limit > 0 {
				room := max(0, limit-r.PaidOvertimeMinutes())
				if convert > room {
					convert = room
					r.Anomalies = attendance.SortAnomalies(append(r.Anomalies, attendance.AnomalyOvertimeCapped))
				}
			}

			r.WeeklyOvertimeMinutes = convert
			r.RegularMinutes -= convert
			result.ConvertedMinutes += convert
		}
	}

	for i := range records {
		r := &records[i]
		daily := policyFor(r.OvertimePolicyID, in.Policies)
		r.WeightedOvertimeHours = WeightedHours(*r, daily, weekly)
		approvalPolicy := daily
		if approvalPolicy == nil {
			approvalPolicy = weekly
		}
		r.OvertimeApproval = ApprovalFor(r.PaidOvertimeMinutes(), approvalPolicy)
		r.Stage = attendance.StageFinal
		r.Fingerprint = Fingerprint(*r)
	}

	result.Records = records
	return result, nil
}

// resetWeekly undoes a previous weekly conversion. A capped flag survives only
// when the daily pass capped the day itself.
func resetWeekly(r *attendance.Record) {
	r.RegularMinutes += r.WeeklyOvertimeMinutes
	r.WeeklyOvertimeMinutes = 0

	if r.CappedMinutes == 0 && r.HasAnomaly(attendance.AnomalyOvertimeCapped) {
		kept := make([]attendance.Anomaly, 0, len(r.Anomalies))
		for _, a := range r.Anomalies {
			if a != attendance.AnomalyOvertimeCapped {
				kept = append(kept, a)
			}
		}
		r.Anomalies = kept
	}
}

// weeklyPolicy takes the policy of the latest-dated record whose policy
// applies the weekly rule.
func weeklyPolicy(records []attendance.Record, policies map[string]overtime.Policy) *overtime.Policy {
	for i := len(records) - 1; i >= 0; i-- {
		p := policyFor(records[i].OvertimePolicyID, policies)
		if p != nil && p.ApplyWeeklyRule && p.WeeklyThresholdMinutes > 0 {
			return p
		}
	}
	return nil
}

func policyFor(id *string, policies map[string]overtime.Policy) *overtime.Policy {
	if id == nil {
		return nil
	}
	p, ok := policies[*id]
	if !ok {
		return nil
	}
	return &p
}
