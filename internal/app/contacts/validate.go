package contacts

import (
	"regexp"
	"strings"

	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	msgNameRequired  = "Tên là bắt buộc"
	msgEmailRequired = "Email là bắt buộc"
	msgEmailInvalid  = "Email không đúng định dạng"
)

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateCreate checks a create form. Name and email are required; phone and
// group are not checked.
func ValidateCreate(in CreateInput) error {
	fields := map[string]string{}
	checkName(fields, in.Name)
	checkEmail(fields, in.Email)
	return validationResult(fields)
}

// ValidatePatch checks only the fields p specifies.
func ValidatePatch(p contactrepo.Patch) error {
	fields := map[string]string{}
	if p.Name.IsSpecified() {
		checkName(fields, valueOrEmpty(p.Name))
	}
	if p.Email.IsSpecified() {
		checkEmail(fields, valueOrEmpty(p.Email))
	}
	return validationResult(fields)
}

func checkName(fields map[string]string, name string) {
	if strings.TrimSpace(name) == "" {
		fields[FieldName] = msgNameRequired
	}
}

func checkEmail(fields map[string]string, email string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		fields[FieldEmail] = msgEmailRequired
	case !ValidEmail(email):
		fields[FieldEmail] = msgEmailInvalid
	}
}

func validationResult(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func valueOrEmpty(n nullable.Nullable[string]) string {
	if n.IsNull() {
		return ""
	}
	v, err := n.Get()
	if err != nil {
		return ""
	}
	return v
}
