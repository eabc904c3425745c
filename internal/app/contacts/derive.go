package contacts

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Overland-East-Bay/contact-manager/internal/domain"
)

// DefaultPageSize is used when neither the query nor the session sets a limit.
const DefaultPageSize = 10

// Deriver turns the cached collection into query views: search, then group,
// then sort, then paginate. Derive is a pure function of its inputs.
type Deriver struct {
	// Collation is the language whose collation orders name and email sorts.
	Collation language.Tag
	// PageSize is the limit used when a query leaves Limit unset.
	PageSize int
}

func NewDeriver() Deriver {
	return Deriver{Collation: language.Vietnamese, PageSize: DefaultPageSize}
}

func (d Deriver) Derive(all []domain.Contact, q Query) Page {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = d.PageSize
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	matched := make([]domain.Contact, 0, len(all))
	term := strings.ToLower(q.Search)
	for _, c := range all {
		if term != "" && !matchesSearch(c, term) {
			continue
		}
		if q.Group != "" && q.Group != domain.AllGroups && c.Group != q.Group {
			continue
		}
		matched = append(matched, c)
	}

	d.sort(matched, q.SortBy, q.SortOrder)

	total := len(matched)
	start := total
	if page-1 < pageCount(total, limit) {
		start = (page - 1) * limit
	}
	end := total
	if limit < total-start {
		end = start + limit
	}

	return Page{
		Data:       slices.Clone(matched[start:end]),
		Total:      total,
		TotalPages: pageCount(total, limit),
		Page:       page,
		Limit:      limit,
	}
}

func pageCount(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total-1)/limit + 1
}

func matchesSearch(c domain.Contact, term string) bool {
	if strings.Contains(strings.ToLower(c.Name), term) || strings.Contains(strings.ToLower(c.Email), term) {
		return true
	}
	return c.Phone != "" && strings.Contains(strings.ToLower(c.Phone), term)
}

// sort orders cs in place and keeps equal elements in their incoming order.
func (d Deriver) sort(cs []domain.Contact, by SortField, order SortOrder) {
	var cmp func(a, b domain.Contact) int
	switch by {
	case SortByName, SortByEmail:
		// Collators keep scratch buffers and are not shared across goroutines.
		col := collate.New(d.Collation)
		field := func(c domain.Contact) string { return c.Name }
		if by == SortByEmail {
			field = func(c domain.Contact) string { return c.Email }
		}
		cmp = func(a, b domain.Contact) int { return col.CompareString(field(a), field(b)) }
	case SortByCreated:
		cmp = func(a, b domain.Contact) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return
	}
	if order == Descending {
		asc := cmp
		cmp = func(a, b domain.Contact) int { return -asc(a, b) }
	}
	slices.SortStableFunc(cs, cmp)
}
