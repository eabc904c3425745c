package contactrepo

import (
	"context"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/contact-manager/internal/domain"
)

// Record is the wire-format contact as the remote service returns it.
//
// Phone is nil when the service has no phone on record. Version is the
// service's opaque revision marker; clients must not interpret it.
type Record struct {
	ID domain.ContactID

	Name  string
	Email string
	Phone *string
	Group string

	CreatedAt time.Time
	UpdatedAt time.Time

	Version int
}

// Filter carries the optional list parameters forwarded to the service.
// Implementations may apply them; callers must not depend on it.
type Filter struct {
	Search string
	Group  string
}

// NewContact is the create payload. The service assigns ID and timestamps.
type NewContact struct {
	Name  string
	Email string
	Phone *string
	Group string
}

// Patch is a partial update. Unspecified fields are left untouched.
// Only Phone may be explicitly null, which clears it.
type Patch struct {
	Name  nullable.Nullable[string]
	Email nullable.Nullable[string]
	Phone nullable.Nullable[string]
	Group nullable.Nullable[string]
}

// IsEmpty reports whether the patch specifies no field at all.
func (p Patch) IsEmpty() bool {
	return !p.Name.IsSpecified() && !p.Email.IsSpecified() && !p.Phone.IsSpecified() && !p.Group.IsSpecified()
}

// Repository provides CRUD access to contacts.
//
// Result ordering expectations:
// - List returns records ordered by CreatedAt ascending, ties broken by ID.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Record, error)
	GetByID(ctx context.Context, id domain.ContactID) (Record, error)

	Create(ctx context.Context, in NewContact) (Record, error)
	Update(ctx context.Context, id domain.ContactID, p Patch) (Record, error)
	Delete(ctx context.Context, id domain.ContactID) error
}
