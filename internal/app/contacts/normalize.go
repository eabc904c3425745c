package contacts

import (
	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

// Normalize maps a wire record to the canonical contact. It is total: a
// missing phone becomes "", and the service's version marker is dropped.
func Normalize(r contactrepo.Record) domain.Contact {
	phone := ""
	if r.Phone != nil {
		phone = *r.Phone
	}
	return domain.Contact{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     phone,
		Group:     r.Group,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func normalizeAll(rs []contactrepo.Record) []domain.Contact {
	out := make([]domain.Contact, 0, len(rs))
	for _, r := range rs {
		out = append(out, Normalize(r))
	}
	return out
}
