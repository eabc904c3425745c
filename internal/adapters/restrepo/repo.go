// Package restrepo implements contactrepo.Repository against the remote
// contacts REST service. It is a pure pass-through: one request per call, a
// fixed method/path per operation, no validation and no caching.
package restrepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Overland-East-Bay/contact-manager/internal/adapters/transport"
	"github.com/Overland-East-Bay/contact-manager/internal/adapters/wire"
	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

const contactsPath = "/contacts"

// Doer is the part of *transport.Client the repository needs.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body any, out any) error
}

type Repo struct {
	t Doer
}

func NewRepo(t Doer) *Repo {
	return &Repo{t: t}
}

func (r *Repo) List(ctx context.Context, f contactrepo.Filter) ([]contactrepo.Record, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Group != "" {
		q.Set("group", f.Group)
	}
	var body []wire.Contact
	if err := r.t.Do(ctx, http.MethodGet, contactsPath, q, nil, &body); err != nil {
		return nil, err
	}
	out := make([]contactrepo.Record, 0, len(body))
	for _, c := range body {
		out = append(out, c.Record())
	}
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ContactID) (contactrepo.Record, error) {
	var body wire.Contact
	if err := r.t.Do(ctx, http.MethodGet, contactPath(id), nil, nil, &body); err != nil {
		return contactrepo.Record{}, mapNotFound(err)
	}
	return body.Record(), nil
}

func (r *Repo) Create(ctx context.Context, in contactrepo.NewContact) (contactrepo.Record, error) {
	var body wire.Contact
	if err := r.t.Do(ctx, http.MethodPost, contactsPath, nil, wire.CreateRequestFromNewContact(in), &body); err != nil {
		return contactrepo.Record{}, err
	}
	return body.Record(), nil
}

func (r *Repo) Update(ctx context.Context, id domain.ContactID, p contactrepo.Patch) (contactrepo.Record, error) {
	var body wire.Contact
	if err := r.t.Do(ctx, http.MethodPatch, contactPath(id), nil, wire.UpdateRequestFromPatch(p), &body); err != nil {
		return contactrepo.Record{}, mapNotFound(err)
	}
	return body.Record(), nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ContactID) error {
	if err := r.t.Do(ctx, http.MethodDelete, contactPath(id), nil, nil, nil); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func contactPath(id domain.ContactID) string {
	return contactsPath + "/" + url.PathEscape(string(id))
}

// mapNotFound tags a 404 with contactrepo.ErrNotFound while keeping the
// *transport.TransportError reachable through errors.As.
func mapNotFound(err error) error {
	te := (*transport.TransportError)(nil)
	if errors.As(err, &te) && te.NotFound() {
		return fmt.Errorf("%w: %w", contactrepo.ErrNotFound, te)
	}
	return err
}
