package restrepo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/contact-manager/internal/adapters/transport"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

type seenRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func newTestRepo(t *testing.T, status int, respBody string) (*Repo, func() []seenRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []seenRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, seenRequest{Method: r.Method, Path: r.URL.EscapedPath(), Query: r.URL.RawQuery, Body: string(b)})
		mu.Unlock()
		if respBody != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)

	tc, err := transport.New(srv.URL, transport.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}
	return NewRepo(tc), func() []seenRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]seenRequest(nil), seen...)
	}
}

func TestRepo_ListSendsFilters(t *testing.T) {
	t.Parallel()

	repo, seen := newTestRepo(t, http.StatusOK, `[{"_id":"1","name":"A","email":"a@x.com","group":"Work","__v":2},{"_id":"2","name":"B","email":"b@x.com","phone":"09"}]`)
	got, err := repo.List(context.Background(), contactrepo.Filter{Search: "a b", Group: "Work"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []seenRequest{{Method: http.MethodGet, Path: "/contacts", Query: "group=Work&search=a+b"}}
	if diff := cmp.Diff(want, seen()); diff != "" {
		t.Fatalf("requests (-want +got):\n%s", diff)
	}
	if len(got) != 2 || got[0].Version != 2 || got[0].Phone != nil || got[1].Phone == nil || *got[1].Phone != "09" {
		t.Fatalf("records=%+v", got)
	}
}

func TestRepo_UpdateSendsOnlySpecifiedFields(t *testing.T) {
	t.Parallel()

	repo, seen := newTestRepo(t, http.StatusOK, `{"_id":"42","name":"X","email":"x@x.com"}`)
	_, err := repo.Update(context.Background(), "42", contactrepo.Patch{
		Name:  nullable.NewNullableWithValue("X"),
		Phone: nullable.NewNullNullable[string](),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	req := seen()[0]
	if req.Method != http.MethodPatch || req.Path != "/contacts/42" {
		t.Fatalf("request=%+v", req)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		t.Fatalf("body %q: %v", req.Body, err)
	}
	if diff := cmp.Diff(map[string]any{"name": "X", "phone": nil}, body); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
}

func TestRepo_NotFoundKeepsTransportError(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t, http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"contact not found"}}`)
	err := repo.Delete(context.Background(), "gone")
	if !errors.Is(err, contactrepo.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	te := (*transport.TransportError)(nil)
	if !errors.As(err, &te) || te.Status != http.StatusNotFound || te.Message != "contact not found" {
		t.Fatalf("transport error=%+v", te)
	}
}

func TestRepo_CreateFailurePassesThrough(t *testing.T) {
	t.Parallel()

	repo, seen := newTestRepo(t, http.StatusUnprocessableEntity, `{"error":{"code":"VALIDATION_ERROR","message":"invalid contact"}}`)
	_, err := repo.Create(context.Background(), contactrepo.NewContact{Name: "A", Email: "bad"})
	if errors.Is(err, contactrepo.ErrNotFound) {
		t.Fatalf("422 mapped to not found")
	}
	te := (*transport.TransportError)(nil)
	if !errors.As(err, &te) || te.Status != http.StatusUnprocessableEntity {
		t.Fatalf("err=%v", err)
	}
	if req := seen()[0]; req.Method != http.MethodPost || req.Path != "/contacts" {
		t.Fatalf("request=%+v", req)
	}
}

func TestRepo_ListIgnoresOpaqueVersionMarker(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t, http.StatusOK, `[{"_id":"1","name":"A","email":"a@x.com","group":"Work","__v":"3-abc"},{"_id":"2","name":"B","email":"b@x.com","__v":{"rev":1}}]`)
	got, err := repo.List(context.Background(), contactrepo.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Name != "A" || got[0].Version != 0 || got[1].Email != "b@x.com" {
		t.Fatalf("records=%+v", got)
	}
}

func TestRepo_EscapesContactID(t *testing.T) {
	t.Parallel()

	repo, seen := newTestRepo(t, http.StatusOK, `{"_id":"../x","name":"A","email":"a@x.com"}`)
	if _, err := repo.GetByID(context.Background(), "../x"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got := seen()[0].Path; got != "/contacts/..%2Fx" {
		t.Fatalf("path=%q want=%q", got, "/contacts/..%2Fx")
	}
}
