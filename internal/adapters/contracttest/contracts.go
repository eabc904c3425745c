package contracttest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	contactrepoport "github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

type CleanupFunc = func()

type ContactRepoFactory func(t *testing.T) (contactrepoport.Repository, CleanupFunc)

// RunContactRepo exercises the behavior every contactrepo.Repository must share,
// whether it is a local store or the REST client talking to one.
func RunContactRepo(t *testing.T, newRepo ContactRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	phone := "0901234567"
	a, err := repo.Create(ctx, contactrepoport.NewContact{
		Name:  "Nguyễn Văn An",
		Email: "an@example.com",
		Phone: &phone,
		Group: "Friends",
	})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if a.ID == "" || a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Fatalf("server-assigned fields missing: %+v", a)
	}
	if a.Name != "Nguyễn Văn An" || a.Email != "an@example.com" || a.Group != "Friends" || a.Phone == nil || *a.Phone != phone {
		t.Fatalf("created record mismatch: %+v", a)
	}

	b, err := repo.Create(ctx, contactrepoport.NewContact{
		Name:  "Bùi Thu H",
		Email: "buithuh@email.com",
		Group: "Đối tác",
	})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	if b.Phone != nil {
		t.Fatalf("expected nil phone, got %q", *b.Phone)
	}
	if b.ID == a.ID {
		t.Fatalf("ids must be unique: %s", a.ID)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != a.ID || got.Name != a.Name || got.Email != a.Email {
		t.Fatalf("GetByID=%+v want=%+v", got, a)
	}

	if _, err := repo.GetByID(ctx, domain.ContactID(uuid.NewString())); !errors.Is(err, contactrepoport.ErrNotFound) {
		t.Fatalf("GetByID unknown err=%v, want ErrNotFound", err)
	}

	all, err := repo.List(ctx, contactrepoport.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !containsID(all, a.ID) || !containsID(all, b.ID) || len(all) != 2 {
		t.Fatalf("List=%+v, want a and b", all)
	}

	// Partial update: only name changes.
	upd, err := repo.Update(ctx, a.ID, contactrepoport.Patch{Name: nullable.NewNullableWithValue("Nguyễn Văn Anh")})
	if err != nil {
		t.Fatalf("Update name: %v", err)
	}
	if upd.Name != "Nguyễn Văn Anh" || upd.Email != a.Email || upd.Group != a.Group || upd.Phone == nil || *upd.Phone != phone {
		t.Fatalf("partial update changed other fields: %+v", upd)
	}
	if upd.Version == a.Version {
		t.Fatalf("expected version to move on update, stayed %d", upd.Version)
	}
	if upd.UpdatedAt.Before(a.UpdatedAt) {
		t.Fatalf("updatedAt went backwards: %v < %v", upd.UpdatedAt, a.UpdatedAt)
	}

	cleared, err := repo.Update(ctx, a.ID, contactrepoport.Patch{Phone: nullable.NewNullNullable[string]()})
	if err != nil {
		t.Fatalf("Update clear phone: %v", err)
	}
	if cleared.Phone != nil || cleared.Name != "Nguyễn Văn Anh" {
		t.Fatalf("clear phone: %+v", cleared)
	}

	if _, err := repo.Update(ctx, domain.ContactID(uuid.NewString()), contactrepoport.Patch{Name: nullable.NewNullableWithValue("x")}); !errors.Is(err, contactrepoport.ErrNotFound) {
		t.Fatalf("Update unknown err=%v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, b.ID); !errors.Is(err, contactrepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete err=%v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, b.ID); !errors.Is(err, contactrepoport.ErrNotFound) {
		t.Fatalf("second Delete err=%v, want ErrNotFound", err)
	}

	all, err = repo.List(ctx, contactrepoport.Filter{})
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(all) != 1 || all[0].ID != a.ID {
		t.Fatalf("List after delete=%+v", all)
	}
}

// RunContactRepoFilters checks the best-effort list filters of stores that
// implement them. ASCII-only terms keep it valid for stores whose lower() is ASCII-only.
func RunContactRepoFilters(t *testing.T, newRepo ContactRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	phone := "0978901234"
	seed := []contactrepoport.NewContact{
		{Name: "Tran Thi B", Email: "tranthib@email.com", Group: "Work"},
		{Name: "Le Minh C", Email: "leminhc@email.com", Group: "Family", Phone: &phone},
		{Name: "Hoang Van E", Email: "HOANGVANE@email.com", Group: "Work"},
	}
	for _, in := range seed {
		if _, err := repo.Create(ctx, in); err != nil {
			t.Fatalf("Create %q: %v", in.Name, err)
		}
	}

	bySearch, err := repo.List(ctx, contactrepoport.Filter{Search: "hoangvane"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].Name != "Hoang Van E" {
		t.Fatalf("search=%+v", bySearch)
	}

	byPhone, err := repo.List(ctx, contactrepoport.Filter{Search: "78901"})
	if err != nil {
		t.Fatalf("List phone search: %v", err)
	}
	if len(byPhone) != 1 || byPhone[0].Name != "Le Minh C" {
		t.Fatalf("phone search=%+v", byPhone)
	}

	byGroup, err := repo.List(ctx, contactrepoport.Filter{Group: "Work"})
	if err != nil {
		t.Fatalf("List group: %v", err)
	}
	if len(byGroup) != 2 {
		t.Fatalf("group=%+v", byGroup)
	}

	everyone, err := repo.List(ctx, contactrepoport.Filter{Group: domain.AllGroups})
	if err != nil {
		t.Fatalf("List all groups: %v", err)
	}
	if len(everyone) != 3 {
		t.Fatalf("all groups=%+v", everyone)
	}
}

func containsID(rs []contactrepoport.Record, id domain.ContactID) bool {
	for _, r := range rs {
		if r.ID == id {
			return true
		}
	}
	return false
}
