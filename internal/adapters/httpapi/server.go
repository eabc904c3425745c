package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"

	"github.com/Overland-East-Bay/contact-manager/internal/adapters/wire"
	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

// maxBody bounds request bodies.
const maxBody = 1 << 20

// Server serves the contacts REST contract over a contact store.
type Server struct {
	Contacts contactrepo.Repository
}

func NewServer(repo contactrepo.Repository) *Server {
	return &Server{Contacts: repo}
}

// createContactBody is the server's view of POST /contacts. Email decoding
// rejects malformed addresses.
type createContactBody struct {
	Name  string              `json:"name"`
	Email openapi_types.Email `json:"email"`
	Phone *string             `json:"phone,omitempty"`
	Group string              `json:"group"`
}

type updateContactBody struct {
	Name  nullable.Nullable[string]              `json:"name,omitempty"`
	Email nullable.Nullable[openapi_types.Email] `json:"email,omitempty"`
	Phone nullable.Nullable[string]              `json:"phone,omitempty"`
	Group nullable.Nullable[string]              `json:"group,omitempty"`
}

func (s *Server) ListContacts(w http.ResponseWriter, r *http.Request) {
	f := contactrepo.Filter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Group:  r.URL.Query().Get("group"),
	}
	rs, err := s.Contacts.List(r.Context(), f)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]wire.Contact, 0, len(rs))
	for _, c := range rs {
		out = append(out, wire.ContactFromRecord(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := contactIDParam(w, r)
	if !ok {
		return
	}
	c, err := s.Contacts.GetByID(r.Context(), id)
	if err != nil {
		s.repoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.ContactFromRecord(c))
}

func (s *Server) CreateContact(w http.ResponseWriter, r *http.Request) {
	var body createContactBody
	if !decodeBody(w, r, &body) {
		return
	}

	details := map[string]any{}
	name := domain.NormalizeHumanName(body.Name)
	if name == "" {
		details["name"] = "name is required"
	}
	if body.Email == "" {
		details["email"] = "email is required"
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, CodeValidation, "invalid contact", details)
		return
	}

	nc := contactrepo.NewContact{
		Name:  name,
		Email: strings.TrimSpace(string(body.Email)),
		Group: body.Group,
	}
	if body.Phone != nil {
		if p := domain.NormalizePhone(*body.Phone); p != "" {
			nc.Phone = &p
		}
	}

	c, err := s.Contacts.Create(r.Context(), nc)
	if err != nil {
		s.repoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wire.ContactFromRecord(c))
}

func (s *Server) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := contactIDParam(w, r)
	if !ok {
		return
	}
	var body updateContactBody
	if !decodeBody(w, r, &body) {
		return
	}

	p := contactrepo.Patch{Phone: body.Phone, Group: body.Group}
	details := map[string]any{}
	if body.Name.IsSpecified() {
		name := ""
		if v, err := body.Name.Get(); err == nil {
			name = domain.NormalizeHumanName(v)
		}
		if name == "" {
			details["name"] = "name is required"
		} else {
			p.Name = nullable.NewNullableWithValue(name)
		}
	}
	if body.Email.IsSpecified() {
		v, err := body.Email.Get()
		if err != nil || v == "" {
			details["email"] = "email is required"
		} else {
			p.Email = nullable.NewNullableWithValue(string(v))
		}
	}
	if body.Group.IsNull() {
		details["group"] = "group cannot be null"
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, CodeValidation, "invalid contact", details)
		return
	}

	c, err := s.Contacts.Update(r.Context(), id, p)
	if err != nil {
		s.repoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.ContactFromRecord(c))
}

func (s *Server) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := contactIDParam(w, r)
	if !ok {
		return
	}
	if err := s.Contacts.Delete(r.Context(), id); err != nil {
		s.repoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// contactIDParam reads {id}. Store ids are UUIDs, so anything else cannot
// name an existing contact.
func contactIDParam(w http.ResponseWriter, r *http.Request) (domain.ContactID, bool) {
	raw := chi.URLParam(r, "id")
	if _, err := uuid.Parse(raw); err != nil {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "contact not found", nil)
		return "", false
	}
	return domain.ContactID(raw), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			writeError(w, r, http.StatusUnprocessableEntity, CodeValidation, "missing request body", nil)
		case errors.Is(err, openapi_types.ErrValidationEmail):
			writeError(w, r, http.StatusUnprocessableEntity, CodeValidation, "invalid contact", map[string]any{"email": "email is not valid"})
		default:
			writeError(w, r, http.StatusBadRequest, CodeBadRequest, "malformed JSON body", nil)
		}
		return false
	}
	return true
}

func (s *Server) repoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contactrepo.ErrNotFound):
		writeError(w, r, http.StatusNotFound, CodeNotFound, "contact not found", nil)
	case errors.Is(err, contactrepo.ErrInvalidInput):
		writeError(w, r, http.StatusUnprocessableEntity, CodeValidation, err.Error(), nil)
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	LoggerFromContext(r.Context()).Error("contacts request failed", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal error", nil)
}
