package contacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	"github.com/Overland-East-Bay/contact-manager/internal/platform/querycache"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

var (
	keyAll     = querycache.KeyOf("contacts")
	keyLists   = querycache.KeyOf("contacts", "list")
	keyDetails = querycache.KeyOf("contacts", "detail")
)

func detailKey(id domain.ContactID) querycache.Key {
	return querycache.KeyOf(string(keyDetails), string(id))
}

// Service is the query and mutation layer over a contact repository.
//
// Reads go through the session cache: the whole collection is cached under
// one key and every list view is derived from it locally, so results do not
// depend on whether the service honors search or group parameters. Single
// contacts are cached per id. Successful mutations invalidate; they never
// patch cached data.
type Service struct {
	repo  contactrepo.Repository
	cache *querycache.Store
	log   *zap.Logger

	// ListStaleTime bounds how long the cached collection is served without refetching.
	ListStaleTime time.Duration
	// DetailStaleTime does the same for single contacts.
	DetailStaleTime time.Duration

	Deriver Deriver
}

func NewService(repo contactrepo.Repository, cache *querycache.Store) *Service {
	return &Service{
		repo:            repo,
		cache:           cache,
		log:             zap.NewNop(),
		ListStaleTime:   5 * time.Minute,
		DetailStaleTime: time.Minute,
		Deriver:         NewDeriver(),
	}
}

// SetLogger replaces the no-op default logger.
func (s *Service) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// SetCollation parses a BCP 47 tag (e.g. "vi") for name/email ordering.
func (s *Service) SetCollation(locale string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	s.Deriver.Collation = tag
	return nil
}

// List returns one page of the contacts matching q.
func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	all, err := s.all(ctx)
	if err != nil {
		return Page{}, err
	}
	return s.Deriver.Derive(all, q), nil
}

// Get returns a single contact. It is fetched and cached on its own; the list
// cache is never consulted.
func (s *Service) Get(ctx context.Context, id domain.ContactID) (domain.Contact, error) {
	if strings.TrimSpace(string(id)) == "" {
		return domain.Contact{}, contactrepo.ErrNotFound
	}
	return querycache.Fetch(ctx, s.cache, detailKey(id), s.DetailStaleTime, func(ctx context.Context) (domain.Contact, error) {
		r, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return domain.Contact{}, err
		}
		return Normalize(r), nil
	})
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Contact, error) {
	if err := ValidateCreate(in); err != nil {
		return domain.Contact{}, err
	}
	nc := contactrepo.NewContact{
		Name:  domain.NormalizeHumanName(in.Name),
		Email: strings.TrimSpace(in.Email),
		Group: in.Group,
	}
	if phone := domain.NormalizePhone(in.Phone); phone != "" {
		nc.Phone = &phone
	}

	r, err := s.repo.Create(ctx, nc)
	if err != nil {
		s.log.Warn("create contact failed", zap.Error(err))
		return domain.Contact{}, err
	}
	s.cache.Invalidate(keyLists)
	return Normalize(r), nil
}

// Update sends only the fields p specifies.
func (s *Service) Update(ctx context.Context, id domain.ContactID, p contactrepo.Patch) (domain.Contact, error) {
	if err := ValidatePatch(p); err != nil {
		return domain.Contact{}, err
	}
	r, err := s.repo.Update(ctx, id, normalizePatch(p))
	if err != nil {
		s.log.Warn("update contact failed", zap.String("id", string(id)), zap.Error(err))
		return domain.Contact{}, err
	}
	s.cache.Invalidate(keyLists)
	s.cache.Invalidate(detailKey(id))
	return Normalize(r), nil
}

// normalizePatch applies the same cleanup Create does to the fields p
// specifies. A phone that normalizes to nothing clears the stored one.
func normalizePatch(p contactrepo.Patch) contactrepo.Patch {
	if v, err := p.Name.Get(); err == nil {
		p.Name = nullable.NewNullableWithValue(domain.NormalizeHumanName(v))
	}
	if v, err := p.Email.Get(); err == nil {
		p.Email = nullable.NewNullableWithValue(strings.TrimSpace(v))
	}
	if v, err := p.Phone.Get(); err == nil {
		if phone := domain.NormalizePhone(v); phone != "" {
			p.Phone = nullable.NewNullableWithValue(phone)
		} else {
			p.Phone = nullable.NewNullNullable[string]()
		}
	}
	return p
}

func (s *Service) Delete(ctx context.Context, id domain.ContactID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Warn("delete contact failed", zap.String("id", string(id)), zap.Error(err))
		return err
	}
	s.cache.Invalidate(keyLists)
	s.cache.Invalidate(detailKey(id))
	return nil
}

// Refetch discards the cached collection and loads it again. It is the manual
// recovery path after a failed read.
func (s *Service) Refetch(ctx context.Context) error {
	s.cache.Invalidate(keyLists)
	_, err := s.all(ctx)
	return err
}

// Reset forgets everything cached for contacts, as on logout.
func (s *Service) Reset() {
	s.cache.Invalidate(keyAll)
}

func (s *Service) all(ctx context.Context) ([]domain.Contact, error) {
	return querycache.Fetch(ctx, s.cache, keyLists, s.ListStaleTime, func(ctx context.Context) ([]domain.Contact, error) {
		// Always unfiltered: the one cached collection serves every query.
		rs, err := s.repo.List(ctx, contactrepo.Filter{})
		if err != nil {
			return nil, err
		}
		s.log.Debug("fetched contacts", zap.Int("count", len(rs)))
		return normalizeAll(rs), nil
	})
}
