package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

type recordRepository struct {
	s *Store
}

// GetByEmployeeAndDate implements attendance.RecordRepository.
func (r *recordRepository) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.records[recordKey{EmployeeID: employeeID, Date: dateKey(date)}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// GetByID implements attendance.RecordRepository.
func (r *recordRepository) GetByID(_ context.Context, id string) (attendance.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rec := range r.s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrAttendanceNotFound
}

// ListByEmployeeBetween implements attendance.RecordRepository.
func (r *recordRepository) ListByEmployeeBetween(_ context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	from, to = dateUTC(from), dateUTC(to)
	var out []attendance.Record
	for k, rec := range r.s.records {
		if k.EmployeeID != employeeID || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Upsert implements attendance.RecordRepository with the same rules as the
// SQL upsert: the ID and CreatedAt of an existing row are kept and the
// version only moves when the fingerprint changes.
func (r *recordRepository) Upsert(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	rec.Date = dateUTC(rec.Date)
	key := recordKey{EmployeeID: rec.EmployeeID, Date: dateKey(rec.Date)}

	existing, ok := r.s.records[key]
	if !ok {
		if rec.ID == "" {
			rec.ID = newID()
		}
		rec.Version = 1
		rec.CreatedAt, rec.UpdatedAt = now, now
		r.s.records[key] = rec
		return rec, nil
	}

	if existing.Fingerprint == rec.Fingerprint {
		return existing, nil
	}

	rec.ID = existing.ID
	rec.Version = existing.Version + 1
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = now
	r.s.records[key] = rec
	return rec, nil
}

// ListProvisionalWeeks implements attendance.RecordRepository.
func (r *recordRepository) ListProvisionalWeeks(_ context.Context, since time.Time) ([]attendance.WeekKey, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	since = dateUTC(since)
	seen := make(map[string]struct{})
	var keys []attendance.WeekKey
	for _, rec := range r.s.records {
		if rec.Stage != attendance.StageProvisional || rec.Date.Before(since) {
			continue
		}
		k := attendance.WeekKey{EmployeeID: rec.EmployeeID, WeekStart: attendance.WeekOf(rec.Date)}
		if _, dup := seen[k.String()]; dup {
			continue
		}
		seen[k.String()] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].WeekStart.Equal(keys[j].WeekStart) {
			return keys[i].WeekStart.Before(keys[j].WeekStart)
		}
		return keys[i].EmployeeID < keys[j].EmployeeID
	})
	return keys, nil
}

// LockWeek implements attendance.RecordRepository. Transactions are already
// serialized, so holding one is enough.
func (r *recordRepository) LockWeek(ctx context.Context, _ attendance.WeekKey) error {
	if !inTransaction(ctx) {
		return ErrNoTransaction
	}
	return nil
}

type correctionRepository struct {
	s *Store
}

// Create implements attendance.CorrectionRepository.
func (r *correctionRepository) Create(_ context.Context, c attendance.Correction) (attendance.Correction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.corrections {
		if existing.RecordID == c.RecordID && existing.Status == attendance.CorrectionStatusPending {
			return attendance.Correction{}, attendance.ErrCorrectionPending
		}
	}

	if c.ID == "" {
		c.ID = newID()
	}
	now := r.s.now()
	c.Date = dateUTC(c.Date)
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.corrections[c.ID] = c
	return c, nil
}

// GetByID implements attendance.CorrectionRepository.
func (r *correctionRepository) GetByID(_ context.Context, id string) (attendance.Correction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.corrections[id]
	if !ok {
		return attendance.Correction{}, attendance.ErrCorrectionNotFound
	}
	return c, nil
}

// GetPendingByRecord implements attendance.CorrectionRepository.
func (r *correctionRepository) GetPendingByRecord(_ context.Context, recordID string) (*attendance.Correction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.corrections {
		if c.RecordID == recordID && c.Status == attendance.CorrectionStatusPending {
			return &c, nil
		}
	}
	return nil, nil
}

// GetLatestApprovedByRecord implements attendance.CorrectionRepository.
func (r *correctionRepository) GetLatestApprovedByRecord(_ context.Context, recordID string) (*attendance.Correction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *attendance.Correction
	for _, c := range r.s.corrections {
		if c.RecordID != recordID || c.Status != attendance.CorrectionStatusApproved || c.ReviewedAt == nil {
			continue
		}
		if latest == nil || c.ReviewedAt.After(*latest.ReviewedAt) ||
			(c.ReviewedAt.Equal(*latest.ReviewedAt) && c.ID > latest.ID) {
			c := c
			latest = &c
		}
	}
	return latest, nil
}

// UpdateReview implements attendance.CorrectionRepository.
func (r *correctionRepository) UpdateReview(_ context.Context, c attendance.Correction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.corrections[c.ID]
	if !ok {
		return attendance.ErrCorrectionNotFound
	}
	if existing.Status != attendance.CorrectionStatusPending {
		return attendance.ErrCorrectionAlreadyReviewed
	}

	existing.Status = c.Status
	existing.ReviewedBy = c.ReviewedBy
	existing.ReviewNote = c.ReviewNote
	existing.ReviewedAt = c.ReviewedAt
	existing.UpdatedAt = r.s.now()
	r.s.corrections[c.ID] = existing
	return nil
}
