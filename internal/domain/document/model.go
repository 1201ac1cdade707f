package document

import (
	"time"

	"github.com/google/uuid"
)

// FileRecord is the metadata of a patient file. The bytes live in external
// object storage; StorageKey is the pointer into it, and nothing in this API
// ever streams content.
type FileRecord struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	FileName    string     `db:"file_name" json:"file_name"`
	ContentType *string    `db:"content_type" json:"content_type,omitempty"`
	SizeBytes   *int64     `db:"size_bytes" json:"size_bytes,omitempty"`
	StorageKey  string     `db:"storage_key" json:"storage_key"`
	UploadedBy  *uuid.UUID `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateInput carries the fields accepted when registering a file.
// UploadedBy is taken from the caller, never from the request.
type CreateInput struct {
	PatientID   uuid.UUID `json:"patient_id"`
	FileName    string    `json:"file_name"`
	ContentType *string   `json:"content_type"`
	SizeBytes   *int64    `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
}

// SearchFilter narrows a file listing.
type SearchFilter struct {
	PatientID *uuid.UUID
}
