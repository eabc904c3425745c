package domain

import "time"

// Contact is the canonical, normalized contact used by everything above the
// repository layer. Phone is always a string; "" means no phone on record.
type Contact struct {
	ID ContactID

	Name  string
	Email string
	Phone string
	Group string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllGroups is the group selector value meaning "do not filter by group".
const AllGroups = "Tất cả"

// ContactGroups are the groups offered when creating or editing a contact.
// Records may carry other values; those are kept as-is.
var ContactGroups = []string{
	"Friends",
	"Work",
	"Family",
	"Khách hàng",
	"Đối tác",
}

// IsKnownGroup reports whether g is one of ContactGroups.
func IsKnownGroup(g string) bool {
	for _, known := range ContactGroups {
		if known == g {
			return true
		}
	}
	return false
}
