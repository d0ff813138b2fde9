package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

type eventRepository struct {
	s *Store
}

func sortEvents(events []punch.Event) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.DeviceID != b.DeviceID {
			return a.DeviceID < b.DeviceID
		}
		return a.ID < b.ID
	})
}

// ListByEmployeeBetween implements punch.EventRepository.
func (r *eventRepository) ListByEmployeeBetween(_ context.Context, employeeID string, from, to time.Time) ([]punch.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []punch.Event
	for _, e := range r.s.events {
		if e.EmployeeID == employeeID && !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

// ListUnprocessed implements punch.EventRepository.
func (r *eventRepository) ListUnprocessed(_ context.Context, limit int) ([]punch.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []punch.Event
	for _, e := range r.s.events {
		if e.ProcessedAt == nil {
			out = append(out, e)
		}
	}
	sortEvents(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkProcessed implements punch.EventRepository.
func (r *eventRepository) MarkProcessed(_ context.Context, ids []string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range ids {
		e, ok := r.s.events[id]
		if !ok {
			continue
		}
		t := at
		e.ProcessedAt = &t
		r.s.events[id] = e
	}
	return nil
}

// Create implements punch.EventRepository.
func (r *eventRepository) Create(_ context.Context, e punch.Event) (punch.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e.ID == "" {
		e.ID = newID()
	}
	e.Timestamp = e.Timestamp.UTC()
	e.CreatedAt = r.s.now()
	r.s.events[e.ID] = e
	return e, nil
}

type shiftRepository struct {
	s *Store
}

// GetByIDs implements schedule.ShiftRepository.
func (r *shiftRepository) GetByIDs(_ context.Context, ids []string) (map[string]schedule.Shift, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]schedule.Shift, len(ids))
	for _, id := range ids {
		if s, ok := r.s.shifts[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

// Create implements schedule.ShiftRepository.
func (r *shiftRepository) Create(_ context.Context, s schedule.Shift) (schedule.Shift, error) {
	if s.StartTime == s.EndTime {
		return schedule.Shift{}, schedule.ErrInvalidShiftTimes
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if s.ID == "" {
		s.ID = newID()
	}
	now := r.s.now()
	s.CreatedAt, s.UpdatedAt = now, now
	r.s.shifts[s.ID] = s
	return s, nil
}

type assignmentRepository struct {
	s *Store
}

// ListByEmployee implements schedule.ShiftAssignmentRepository.
func (r *assignmentRepository) ListByEmployee(_ context.Context, employeeID string) ([]schedule.ShiftAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []schedule.ShiftAssignment
	for _, a := range r.s.assignments {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create implements schedule.ShiftAssignmentRepository.
func (r *assignmentRepository) Create(_ context.Context, a schedule.ShiftAssignment) (schedule.ShiftAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a.ID == "" {
		a.ID = newID()
	}
	a.EffectiveFrom = dateUTC(a.EffectiveFrom)
	a.CreatedAt = r.s.now()
	r.s.assignments[a.ID] = a
	return a, nil
}

type policyRepository struct {
	s *Store
}

// ListActive implements overtime.PolicyRepository.
func (r *policyRepository) ListActive(_ context.Context) ([]overtime.Policy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []overtime.Policy
	for _, p := range r.s.policies {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create implements overtime.PolicyRepository.
func (r *policyRepository) Create(_ context.Context, p overtime.Policy) (overtime.Policy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID == "" {
		p.ID = newID()
	}
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.policies[p.ID] = p
	return p, nil
}

type staffRepository struct {
	s *Store
}

// GetByID implements employee.StaffRepository.
func (r *staffRepository) GetByID(_ context.Context, id string) (employee.Staff, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.staff[id]
	if !ok {
		return employee.Staff{}, employee.ErrEmployeeNotFound
	}
	return s, nil
}

// Create implements employee.StaffRepository.
func (r *staffRepository) Create(_ context.Context, s employee.Staff) (employee.Staff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if s.ID == "" {
		s.ID = newID()
	}
	now := r.s.now()
	s.CreatedAt, s.UpdatedAt = now, now
	r.s.staff[s.ID] = s
	return s, nil
}

// ListIDs implements employee.StaffRepository.
func (r *staffRepository) ListIDs(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]string, 0, len(r.s.staff))
	for id := range r.s.staff {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type leaveRequestRepository struct {
	s *Store
}

// ListApprovedOverlapping implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) ListApprovedOverlapping(_ context.Context, employeeID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	from, to = dateUTC(from), dateUTC(to)
	var out []leave.LeaveRequest
	for _, l := range r.s.leaves {
		if l.EmployeeID != employeeID || l.Status != leave.LeaveRequestStatusApproved {
			continue
		}
		if dateUTC(l.StartDate).After(to) || dateUTC(l.EndDate).Before(from) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) Create(_ context.Context, l leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if l.ID == "" {
		l.ID = newID()
	}
	now := r.s.now()
	l.CreatedAt, l.UpdatedAt = now, now
	r.s.leaves[l.ID] = l
	return l, nil
}

type holidayRepository struct {
	s *Store
}

// ListBetween implements leave.HolidayRepository.
func (r *holidayRepository) ListBetween(_ context.Context, locationID *string, from, to time.Time) ([]leave.Holiday, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	from, to = dateUTC(from), dateUTC(to)
	var out []leave.Holiday
	for _, h := range r.s.holidays {
		d := dateUTC(h.Date)
		if d.Before(from) || d.After(to) || !h.AppliesTo(locationID) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create implements leave.HolidayRepository.
func (r *holidayRepository) Create(_ context.Context, h leave.Holiday) (leave.Holiday, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if h.ID == "" {
		h.ID = newID()
	}
	h.Date = dateUTC(h.Date)
	h.CreatedAt = r.s.now()
	r.s.holidays[h.ID] = h
	return h, nil
}
