// Package wire holds the JSON shapes of the contacts REST contract. Both the
// REST repository (client side) and the reference HTTP server encode through
// these types so the two cannot drift apart.
package wire

import (
	"encoding/json"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

// Contact is a contact record as served by GET/POST/PATCH.
// The identifier travels as "_id" and the revision marker as "__v".
type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Group     string    `json:"group"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   Revision  `json:"__v"`
}

// Revision is the "__v" marker. Clients treat it as opaque: a value that is
// not an integer decodes as zero instead of failing the whole body.
type Revision int

func (v *Revision) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		*v = 0
		return nil
	}
	*v = Revision(n)
	return nil
}

// CreateContactRequest is the POST /contacts body.
type CreateContactRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
	Group string  `json:"group"`
}

// UpdateContactRequest is the PATCH /contacts/{id} body. Unspecified fields
// are omitted from the JSON entirely; an explicit null is kept.
type UpdateContactRequest struct {
	Name  nullable.Nullable[string] `json:"name,omitempty"`
	Email nullable.Nullable[string] `json:"email,omitempty"`
	Phone nullable.Nullable[string] `json:"phone,omitempty"`
	Group nullable.Nullable[string] `json:"group,omitempty"`
}

// ErrorResponse is the structured error envelope returned on 4xx/5xx.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func ContactFromRecord(r contactrepo.Record) Contact {
	return Contact{
		ID:        string(r.ID),
		Name:      r.Name,
		Email:     r.Email,
		Phone:     cloneStringPtr(r.Phone),
		Group:     r.Group,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Version:   Revision(r.Version),
	}
}

func (c Contact) Record() contactrepo.Record {
	return contactrepo.Record{
		ID:        domain.ContactID(c.ID),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     cloneStringPtr(c.Phone),
		Group:     c.Group,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Version:   int(c.Version),
	}
}

func CreateRequestFromNewContact(in contactrepo.NewContact) CreateContactRequest {
	return CreateContactRequest{
		Name:  in.Name,
		Email: in.Email,
		Phone: cloneStringPtr(in.Phone),
		Group: in.Group,
	}
}

func UpdateRequestFromPatch(p contactrepo.Patch) UpdateContactRequest {
	return UpdateContactRequest{
		Name:  p.Name,
		Email: p.Email,
		Phone: p.Phone,
		Group: p.Group,
	}
}

func (u UpdateContactRequest) Patch() contactrepo.Patch {
	return contactrepo.Patch{
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Group: u.Group,
	}
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
