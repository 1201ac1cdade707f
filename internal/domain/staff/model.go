package staff

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the staff_users table. One row per member of the clinic's
// staff; the role string matches the roles carried in auth tokens.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UpdateInput carries a partial admin update. Nil fields are left unchanged.
type UpdateInput struct {
	Email     *string `json:"email"`
	Name      *string `json:"name"`
	Role      *string `json:"role"`
	Phone     *string `json:"phone"`
	Specialty *string `json:"specialty"`
	Active    *bool   `json:"active"`
}

// ProfileInput carries a self-service profile update. Only name and phone are
// editable on this path.
type ProfileInput struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// SearchFilter narrows a staff listing.
type SearchFilter struct {
	Role   string
	Active *bool
	Query  string
}
