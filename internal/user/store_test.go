package user

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"ProductHub/internal/storage"
)

func newSeededStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	s := NewStore(storage.NewFileCollection(path, DefaultUsers()))

	// Materialize the seed so tests can compare file bytes.
	if _, err := s.List(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s, path
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func TestSeededDefaults(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	users, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 seeded users, got %d", len(users))
	}

	admin, ok, err := s.GetByUsername(ctx, "admin")
	if err != nil || !ok {
		t.Fatalf("admin not seeded: ok=%v err=%v", ok, err)
	}
	if admin.Role != RoleAdmin || !admin.Active {
		t.Fatalf("unexpected admin record: %#v", admin)
	}
	if admin.LastLogin != nil {
		t.Fatalf("fresh seed has lastLogin set: %v", admin.LastLogin)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin123")); err != nil {
		t.Fatalf("seeded admin hash does not match admin123: %v", err)
	}
}

func TestCreateHashesPassword(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	u, err := s.Create(ctx, CreateInput{
		Name:     "Carlos Lima",
		Username: "carlos",
		Password: "segredo789",
		Role:     RoleUser,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("system fields not assigned: %#v", u)
	}
	if u.Password == "segredo789" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("segredo789")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestCreateDuplicateUsernameLeavesStoreUntouched(t *testing.T) {
	s, path := newSeededStore(t)
	ctx := context.Background()

	before := readFile(t, path)

	_, err := s.Create(ctx, CreateInput{Name: "Impostor", Username: "admin", Password: "x", Role: RoleUser, Active: true})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	after := readFile(t, path)
	if string(before) != string(after) {
		t.Fatal("failed create modified the stored collection")
	}

	users, _ := s.List(ctx)
	if len(users) != 3 {
		t.Fatalf("collection length changed: %d", len(users))
	}
}

func TestUpdateUsernameConflictExcludesSelf(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	joao, _, _ := s.GetByUsername(ctx, "joao")

	// Renaming joao to maria's username must fail.
	if _, err := s.Update(ctx, joao.ID, UpdateInput{Username: strptr("maria")}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// Re-asserting his own username is not a conflict.
	u, err := s.Update(ctx, joao.ID, UpdateInput{Username: strptr("joao"), Name: strptr("João S.")})
	if err != nil {
		t.Fatalf("self-rename: %v", err)
	}
	if u.Name != "João S." || u.Username != "joao" {
		t.Fatalf("merge result wrong: %#v", u)
	}
}

func TestUpdatePreservesUntouchedFields(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	maria, _, _ := s.GetByUsername(ctx, "maria")

	u, err := s.Update(ctx, maria.ID, UpdateInput{Active: boolptr(false)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Active {
		t.Fatal("active not updated")
	}
	if u.ID != maria.ID || u.Username != maria.Username || u.Name != maria.Name ||
		u.Role != maria.Role || u.CreatedAt != maria.CreatedAt || u.Password != maria.Password {
		t.Fatalf("untouched fields changed:\n got %#v\nwas %#v", u, maria)
	}
}

func TestDeleteAdminIsProtected(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	admin, _, _ := s.GetByUsername(ctx, "admin")

	if err := s.Delete(ctx, admin.ID); !errors.Is(err, ErrProtected) {
		t.Fatalf("expected ErrProtected, got %v", err)
	}

	if _, ok, _ := s.GetByID(ctx, admin.ID); !ok {
		t.Fatal("protected admin was removed")
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	joao, _, _ := s.GetByUsername(ctx, "joao")

	if err := s.Delete(ctx, joao.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	users, _ := s.List(ctx)
	if len(users) != 2 {
		t.Fatalf("expected 2 users after delete, got %d", len(users))
	}
	if _, ok, _ := s.GetByID(ctx, joao.ID); ok {
		t.Fatal("deleted user still present")
	}

	if err := s.Delete(ctx, joao.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	users, _ = s.List(ctx)
	if len(users) != 2 {
		t.Fatalf("failed delete changed the collection: %d", len(users))
	}
}

func TestToggleActiveFlipsAndProtectsAdmin(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	maria, _, _ := s.GetByUsername(ctx, "maria")

	u, err := s.ToggleActive(ctx, maria.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if u.Active {
		t.Fatal("expected active=false after first toggle")
	}

	u, err = s.ToggleActive(ctx, maria.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if !u.Active {
		t.Fatal("expected active=true after second toggle")
	}

	admin, _, _ := s.GetByUsername(ctx, "admin")
	if _, err := s.ToggleActive(ctx, admin.ID); !errors.Is(err, ErrProtected) {
		t.Fatalf("expected ErrProtected for admin, got %v", err)
	}
}

func TestSetPasswordKeysOnUsername(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	if err := s.SetPassword(ctx, "joao", "nova-senha"); err != nil {
		t.Fatalf("set password: %v", err)
	}

	joao, _, _ := s.GetByUsername(ctx, "joao")
	if err := bcrypt.CompareHashAndPassword([]byte(joao.Password), []byte("nova-senha")); err != nil {
		t.Fatalf("new password does not verify: %v", err)
	}

	if err := s.SetPassword(ctx, "ghost", "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedactOmitsPassword(t *testing.T) {
	u := User{ID: "1", Name: "N", Username: "u", Password: "hash", Role: RoleUser, Active: true}

	r := u.Redact()
	if r.ID != u.ID || r.Username != u.Username || r.Role != u.Role {
		t.Fatalf("projection lost fields: %#v", r)
	}

	all := RedactAll([]User{u})
	if len(all) != 1 {
		t.Fatalf("expected 1 projection, got %d", len(all))
	}
}

func TestFoldUsernamesFlag(t *testing.T) {
	s, _ := newSeededStore(t)
	ctx := context.Background()

	// Exact matching is the default: ADMIN is a different name.
	if _, ok, _ := s.GetByUsername(ctx, "ADMIN"); ok {
		t.Fatal("case-sensitive lookup matched a folded username")
	}

	s.FoldUsernames = true
	if _, ok, _ := s.GetByUsername(ctx, "ADMIN"); !ok {
		t.Fatal("folded lookup did not match")
	}

	if _, err := s.Create(ctx, CreateInput{Username: "Admin", Password: "x"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("folded create: expected ErrUsernameTaken, got %v", err)
	}
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }
