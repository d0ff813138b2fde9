package employee

import (
	"time"
)

// Staff is the slice of an employee record attendance processing needs.
type Staff struct {
	ID           string
	CompanyID    string
	FullName     string
	DepartmentID *string
	// DepartmentPolicyID is the overtime policy attached to the staff's department, if any.
	DepartmentPolicyID *string
	LocationID         *string
	Timezone           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Location loads the staff timezone, falling back to UTC when it is unknown.
func (s Staff) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
