package contactrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	clockport "github.com/Overland-East-Bay/contact-manager/internal/ports/out/clock"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

// Repo is an in-memory implementation of contactrepo.Repository.
// It plays the server's role: it assigns IDs, timestamps and versions.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	clk  clockport.Clock
	byID map[domain.ContactID]contactrepo.Record

	newID func() domain.ContactID
}

func NewRepo(clk clockport.Clock) *Repo {
	return &Repo{
		clk:  clk,
		byID: make(map[domain.ContactID]contactrepo.Record),
		newID: func() domain.ContactID {
			return domain.ContactID(uuid.NewString())
		},
	}
}

func (r *Repo) List(ctx context.Context, f contactrepo.Filter) ([]contactrepo.Record, error) {
	_ = ctx
	search := strings.ToLower(strings.TrimSpace(f.Search))

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contactrepo.Record, 0, len(r.byID))
	for _, c := range r.byID {
		if search != "" && !matchesSearch(c, search) {
			continue
		}
		if f.Group != "" && f.Group != domain.AllGroups && c.Group != f.Group {
			continue
		}
		out = append(out, cloneRecord(c))
	}
	sortByCreatedAt(out)
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ContactID) (contactrepo.Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return contactrepo.Record{}, contactrepo.ErrNotFound
	}
	return cloneRecord(c), nil
}

func (r *Repo) Create(ctx context.Context, in contactrepo.NewContact) (contactrepo.Record, error) {
	_ = ctx
	now := r.clk.Now()
	c := contactrepo.Record{
		ID:        r.newID(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     cloneStringPtr(in.Phone),
		Group:     in.Group,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = c
	return cloneRecord(c), nil
}

func (r *Repo) Update(ctx context.Context, id domain.ContactID, p contactrepo.Patch) (contactrepo.Record, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return contactrepo.Record{}, contactrepo.ErrNotFound
	}
	updated, err := contactrepo.ApplyPatch(c, p)
	if err != nil {
		return contactrepo.Record{}, err
	}
	updated.UpdatedAt = r.clk.Now()
	updated.Version = c.Version + 1

	r.byID[id] = updated
	return cloneRecord(updated), nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ContactID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return contactrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func matchesSearch(c contactrepo.Record, lowered string) bool {
	if strings.Contains(strings.ToLower(c.Name), lowered) || strings.Contains(strings.ToLower(c.Email), lowered) {
		return true
	}
	return c.Phone != nil && strings.Contains(strings.ToLower(*c.Phone), lowered)
}

func cloneRecord(c contactrepo.Record) contactrepo.Record {
	out := c
	out.Phone = cloneStringPtr(c.Phone)
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sortByCreatedAt(cs []contactrepo.Record) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return string(cs[i].ID) < string(cs[j].ID)
		}
		return cs[i].CreatedAt.Before(cs[j].CreatedAt)
	})
}
