package contacts

import (
	"strings"

	"github.com/Overland-East-Bay/contact-manager/internal/domain"
)

// SortField names the contact field a list is ordered by.
type SortField string

const (
	SortNone      SortField = ""
	SortByName    SortField = "name"
	SortByEmail   SortField = "email"
	SortByCreated SortField = "createdAt"
)

// ParseSortField accepts the wire names ("name", "email", "createdAt"),
// case-insensitively. "" means unsorted.
func ParseSortField(s string) (SortField, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SortNone, true
	case "name":
		return SortByName, true
	case "email":
		return SortByEmail, true
	case "createdat", "created_at", "created":
		return SortByCreated, true
	default:
		return SortNone, false
	}
}

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Ascending, true
	case "desc":
		return Descending, true
	default:
		return Ascending, false
	}
}

// Query selects a view of the contact list. Zero values mean: no search, all
// groups, original order, first page, the session's page size.
type Query struct {
	Search    string
	Group     string
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Page is one page of a derived contact view.
// Total counts matches before pagination.
type Page struct {
	Data       []domain.Contact
	Total      int
	TotalPages int
	Page       int
	Limit      int
}

// CreateInput is a new-contact form. An empty Phone is sent as "no phone".
type CreateInput struct {
	Name  string
	Email string
	Phone string
	Group string
}
