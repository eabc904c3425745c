package contactrepo

import (
	"fmt"

	"github.com/oapi-codegen/nullable"
)

// ApplyPatch returns r with the specified fields of p applied.
// Name, Email and Group cannot be null; a null or empty Phone clears it.
// ID, timestamps and Version are left for the store to manage.
func ApplyPatch(r Record, p Patch) (Record, error) {
	out := r
	if r.Phone != nil {
		v := *r.Phone
		out.Phone = &v
	}

	set := func(field string, dst *string, v nullable.Nullable[string]) error {
		if !v.IsSpecified() {
			return nil
		}
		if v.IsNull() {
			return fmt.Errorf("%w: %s cannot be null", ErrInvalidInput, field)
		}
		s, err := v.Get()
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}
	if err := set("name", &out.Name, p.Name); err != nil {
		return Record{}, err
	}
	if err := set("email", &out.Email, p.Email); err != nil {
		return Record{}, err
	}
	if err := set("group", &out.Group, p.Group); err != nil {
		return Record{}, err
	}

	if p.Phone.IsSpecified() {
		if p.Phone.IsNull() {
			out.Phone = nil
		} else if v, err := p.Phone.Get(); err == nil && v != "" {
			out.Phone = &v
		} else {
			out.Phone = nil
		}
	}
	return out, nil
}
