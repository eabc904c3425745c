package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Overland-East-Bay/contact-manager/internal/adapters/httpapi"
	memclock "github.com/Overland-East-Bay/contact-manager/internal/adapters/memory/clock"
	memcontactrepo "github.com/Overland-East-Bay/contact-manager/internal/adapters/memory/contactrepo"
	pgcontactrepo "github.com/Overland-East-Bay/contact-manager/internal/adapters/postgres/contactrepo"
	postgres_testutil "github.com/Overland-East-Bay/contact-manager/internal/adapters/postgres/testutil"
	"github.com/Overland-East-Bay/contact-manager/internal/adapters/restrepo"
	"github.com/Overland-East-Bay/contact-manager/internal/adapters/sqlite"
	sqlitecontactrepo "github.com/Overland-East-Bay/contact-manager/internal/adapters/sqlite/contactrepo"
	"github.com/Overland-East-Bay/contact-manager/internal/adapters/transport"
	"github.com/Overland-East-Bay/contact-manager/internal/app/contacts"
	"github.com/Overland-East-Bay/contact-manager/internal/platform/querycache"
	contactrepoport "github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendSQLite   backend = "sqlite"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "sqlite":
		return []backend{backendSQLite}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendSQLite, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|sqlite|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	clk     *memclock.ManualClock
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var store contactrepoport.Repository
	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		store = pgcontactrepo.NewRepo(pool, clk)
	case backendSQLite:
		db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "contacts.db"))
		if err != nil {
			t.Fatalf("sqlite.Open: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		store = sqlitecontactrepo.NewRepo(db, clk)
	case backendMemory:
		store = memcontactrepo.NewRepo(clk)
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	handler := httpapi.NewRouter(httpapi.NewServer(store), httpapi.RouterOptions{Logger: zaptest.NewLogger(t)})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		clk:     clk,
	}
}

// repo returns the REST repository pointed at the test server.
func (s *testServer) repo(t *testing.T) *restrepo.Repo {
	t.Helper()
	tc, err := transport.New(s.baseURL, transport.WithHTTPClient(s.client), transport.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}
	return restrepo.NewRepo(tc)
}

// service returns a client-side contacts service with its own session cache.
func (s *testServer) service(t *testing.T) *contacts.Service {
	t.Helper()
	return contacts.NewService(s.repo(t), querycache.NewStore(s.clk))
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}
