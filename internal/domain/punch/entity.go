package punch

import "time"

// Kind is the punch type declared by the device. It is advisory only: devices
// mislabel, so ordering and pairing are derived from timestamps.
type Kind string

const (
	KindIn         Kind = "IN"
	KindOut        Kind = "OUT"
	KindBreakStart Kind = "BREAK_START"
	KindBreakEnd   Kind = "BREAK_END"
)

type VerificationMethod string

const (
	VerificationFingerprint VerificationMethod = "FINGERPRINT"
	VerificationFace        VerificationMethod = "FACE"
	VerificationCard        VerificationMethod = "CARD"
	VerificationPIN         VerificationMethod = "PIN"
	VerificationManual      VerificationMethod = "MANUAL"
)

// Event is a raw reading from a biometric terminal. Events are never mutated
// by the engine; ProcessedAt is bookkeeping owned by the batch trigger.
type Event struct {
	ID                 string
	EmployeeID         string
	DeviceID           string
	Timestamp          time.Time // UTC
	DeclaredKind       Kind
	VerificationMethod VerificationMethod
	ProcessedAt        *time.Time
	CreatedAt          time.Time
}
