package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. No ordering is enforced between them; the clinic
// corrects mistakes by editing.
const (
	StatusScheduled   = "scheduled"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
	StatusRescheduled = "rescheduled"
)

var validStatuses = map[string]bool{
	StatusScheduled:   true,
	StatusCompleted:   true,
	StatusCancelled:   true,
	StatusRescheduled: true,
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool { return validStatuses[s] }

// Appointment maps to the appointments table. The booked interval is
// half-open: [StartTime, EndTime).
type Appointment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID `db:"doctor_id" json:"doctor_id"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	Status       string    `db:"status" json:"status"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	ReminderSent bool      `db:"reminder_sent" json:"reminder_sent"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CreateInput carries a booking request.
type CreateInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     *string   `json:"notes"`
}

// UpdateInput carries a partial appointment edit. Nil fields are left
// unchanged; supplying either bound makes the call a time edit.
type UpdateInput struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    *string    `json:"status"`
	Notes     *string    `json:"notes"`
}

// SearchFilter narrows an appointment listing.
type SearchFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
}

// CalendarEntry is the flattened shape calendar UIs consume.
type CalendarEntry struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	DoctorName string    `json:"doctor_name"`
	Status     string    `json:"status"`
	Notes      *string   `json:"notes,omitempty"`
}

// ReminderCandidate is one appointment due for a reminder, joined with the
// names and address the notice needs.
type ReminderCandidate struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	StartTime     time.Time `json:"start_time"`
	PatientName   string    `json:"patient_name"`
	PatientEmail  *string   `json:"patient_email,omitempty"`
	DoctorName    string    `json:"doctor_name"`
}
