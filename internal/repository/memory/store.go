// Package memory keeps every repository in process memory. It backs the
// STORAGE=memory mode and the service tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/google/uuid"
)

var ErrNoTransaction = errors.New("memory: no transaction on context")

type recordKey struct {
	EmployeeID string
	Date       string
}

// Store holds all tables behind one RWMutex. Transactions are serialized by
// txMu and roll back by restoring the snapshot taken when they began.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	records     map[recordKey]attendance.Record
	corrections map[string]attendance.Correction
	events      map[string]punch.Event
	shifts      map[string]schedule.Shift
	assignments map[string]schedule.ShiftAssignment
	policies    map[string]overtime.Policy
	staff       map[string]employee.Staff
	leaves      map[string]leave.LeaveRequest
	holidays    map[string]leave.Holiday

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		records:     make(map[recordKey]attendance.Record),
		corrections: make(map[string]attendance.Correction),
		events:      make(map[string]punch.Event),
		shifts:      make(map[string]schedule.Shift),
		assignments: make(map[string]schedule.ShiftAssignment),
		policies:    make(map[string]overtime.Policy),
		staff:       make(map[string]employee.Staff),
		leaves:      make(map[string]leave.LeaveRequest),
		holidays:    make(map[string]leave.Holiday),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func dateUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type txKey struct{}

func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*snapshot)
	return ok
}

// snapshot copies the tables a transaction may write.
type snapshot struct {
	records     map[recordKey]attendance.Record
	corrections map[string]attendance.Correction
	events      map[string]punch.Event
}

func (s *Store) takeSnapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &snapshot{
		records:     make(map[recordKey]attendance.Record, len(s.records)),
		corrections: make(map[string]attendance.Correction, len(s.corrections)),
		events:      make(map[string]punch.Event, len(s.events)),
	}
	for k, v := range s.records {
		snap.records[k] = v
	}
	for k, v := range s.corrections {
		snap.corrections[k] = v
	}
	for k, v := range s.events {
		snap.events[k] = v
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = snap.records
	s.corrections = snap.corrections
	s.events = snap.events
}

// WithinTransaction implements attendance.Transactor. A ctx that already
// carries a transaction is reused.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTransaction(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.takeSnapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, snap)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) Records() attendance.RecordRepository { return &recordRepository{s: s} }
func (s *Store) Corrections() attendance.CorrectionRepository { return &correctionRepository{s: s} }
func (s *Store) Events() punch.EventRepository { return &eventRepository{s: s} }
func (s *Store) Shifts() schedule.ShiftRepository { return &shiftRepository{s: s} }
func (s *Store) Assignments() schedule.ShiftAssignmentRepository { return &assignmentRepository{s: s} }
func (s *Store) Policies() overtime.PolicyRepository { return &policyRepository{s: s} }
func (s *Store) Staff() employee.StaffRepository { return &staffRepository{s: s} }
func (s *Store) LeaveRequests() leave.LeaveRequestRepository { return &leaveRequestRepository{s: s} }
func (s *Store) Holidays() leave.HolidayRepository { return &holidayRepository{s: s} }
