package treatment

import (
	"time"

	"github.com/google/uuid"
)

// Treatment is a clinical procedure performed on a patient, priced for
// billing. Invoices snapshot the cost at issue time, so later cost edits
// never rewrite an issued invoice.
type Treatment struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	TreatmentType string     `db:"treatment_type" json:"treatment_type"`
	Description   *string    `db:"description" json:"description,omitempty"`
	Cost          float64    `db:"cost" json:"cost"`
	TreatmentDate time.Time  `db:"treatment_date" json:"treatment_date"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateInput carries the fields accepted when recording a treatment.
type CreateInput struct {
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	TreatmentType string     `json:"treatment_type"`
	Description   *string    `json:"description"`
	Cost          float64    `json:"cost"`
	TreatmentDate time.Time  `json:"treatment_date"`
}

// UpdateInput carries a partial treatment edit. Nil fields are left unchanged.
type UpdateInput struct {
	TreatmentType *string    `json:"treatment_type"`
	Description   *string    `json:"description"`
	Cost          *float64   `json:"cost"`
	TreatmentDate *time.Time `json:"treatment_date"`
}

// SearchFilter narrows a treatment listing.
type SearchFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Type      string
	From      *time.Time
	To        *time.Time
}
