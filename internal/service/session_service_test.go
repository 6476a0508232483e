package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"organico/internal/domain"
	"organico/internal/repository"
)

const (
	adminEmail    = "admin@organico.com"
	adminPassword = "admin"
)

func setupSS(t *testing.T) (*SessionService, *repository.Records) {
	t.Helper()
	records := repository.NewRecords(repository.NewMemoryBlobs())
	ss, err := NewSessionService(records, SessionConfig{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		HashCost:      bcrypt.MinCost,
	}, nil)
	if err != nil {
		t.Fatalf("new session service: %v", err)
	}
	return ss, records
}

func TestAuthenticate_Admin(t *testing.T) {
	ctx := context.Background()
	ss, records := setupSS(t)

	// a persisted user with the same email must not shadow the admin
	_ = records.AppendUser(ctx, domain.User{ID: "imposter", Email: adminEmail, Password: "x", Role: domain.RoleCustomer})

	u, err := ss.Authenticate(ctx, "c1", adminEmail, adminPassword)
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if u.Role != domain.RoleAdmin || u.ID != "admin" {
		t.Fatalf("expected admin identity, got %+v", u)
	}
	cur, _ := ss.Current(ctx, "c1")
	if cur == nil || !cur.IsAdmin() {
		t.Fatalf("session not admin: %+v", cur)
	}
}

func TestAuthenticate_AdminDisabled(t *testing.T) {
	ctx := context.Background()
	records := repository.NewRecords(repository.NewMemoryBlobs())
	ss, err := NewSessionService(records, SessionConfig{HashCost: bcrypt.MinCost}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ss.Authenticate(ctx, "c1", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	ss, records := setupSS(t)

	u, err := ss.Register(ctx, "c1", "Maria", "maria@x.com", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != domain.RoleCustomer || u.Password != "" {
		t.Fatalf("unexpected registered user: %+v", u)
	}
	// registration opens the session
	cur, _ := ss.Current(ctx, "c1")
	if cur == nil || cur.ID != u.ID {
		t.Fatalf("expected session after register")
	}

	// stored password is a hash, not plaintext
	users, _ := records.Users(ctx)
	if len(users) != 1 || users[0].Password == "pw1" || users[0].Password == "" {
		t.Fatalf("password not hashed: %+v", users)
	}

	got, err := ss.Authenticate(ctx, "c2", "maria@x.com", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != u.ID || got.Password != "" {
		t.Fatalf("unexpected login user: %+v", got)
	}
}

func TestAuthenticate_FailuresLookTheSame(t *testing.T) {
	ctx := context.Background()
	ss, _ := setupSS(t)
	if _, err := ss.Register(ctx, "c1", "Maria", "maria@x.com", "pw1"); err != nil {
		t.Fatal(err)
	}
	_, errWrongPw := ss.Authenticate(ctx, "c2", "maria@x.com", "nope")
	_, errUnknown := ss.Authenticate(ctx, "c2", "ghost@x.com", "pw1")
	if !errors.Is(errWrongPw, ErrInvalidCredentials) || !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials: %v / %v", errWrongPw, errUnknown)
	}
	if cur, _ := ss.Current(ctx, "c2"); cur != nil {
		t.Fatalf("failed login must not open a session")
	}
}

func TestAuthenticate_DuplicateEmailFirstMatchWins(t *testing.T) {
	ctx := context.Background()
	ss, _ := setupSS(t)
	first, _ := ss.Register(ctx, "c1", "First", "dup@x.com", "same")
	if _, err := ss.Register(ctx, "c1", "Second", "dup@x.com", "same"); err != nil {
		t.Fatal(err)
	}
	got, err := ss.Authenticate(ctx, "c9", "dup@x.com", "same")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != first.ID {
		t.Fatalf("expected first registered user to win")
	}
}

func TestRegister_Invalid(t *testing.T) {
	ctx := context.Background()
	ss, records := setupSS(t)
	if _, err := ss.Register(ctx, "c1", "", "a@b", "pw"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := ss.Register(ctx, "c1", "A", "a@b", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	users, _ := records.Users(ctx)
	if len(users) != 0 {
		t.Fatalf("invalid registration persisted")
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	ss, _ := setupSS(t)
	if _, err := ss.Authenticate(ctx, "c1", adminEmail, adminPassword); err != nil {
		t.Fatal(err)
	}
	if err := ss.Logout(ctx, "c1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if cur, _ := ss.Current(ctx, "c1"); cur != nil {
		t.Fatalf("session still present after logout")
	}
}
