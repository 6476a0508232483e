package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"organico/internal/domain"
	"organico/internal/repository"
)

// ErrInvalidCredentials одинаково для неизвестного email и неверного пароля
var ErrInvalidCredentials = errors.New("invalid credentials")

// SessionConfig учётная запись администратора и стоимость bcrypt
type SessionConfig struct {
	AdminEmail    string
	AdminPassword string
	HashCost      int
}

// SessionService регистрация, вход и слот текущей сессии клиента
type SessionService struct {
	records    *repository.Records
	log        *slog.Logger
	adminEmail string
	adminHash  []byte
	cost       int
}

// NewSessionService хэширует пароль администратора один раз при старте.
// Пустой AdminEmail отключает вход администратора.
func NewSessionService(records *repository.Records, cfg SessionConfig, log *slog.Logger) (*SessionService, error) {
	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	s := &SessionService{records: records, log: log, adminEmail: cfg.AdminEmail, cost: cost}
	if cfg.AdminEmail != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), cost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		s.adminHash = hash
	}
	return s, nil
}

// Register добавляет покупателя (email не проверяется на уникальность) и сразу открывает сессию
func (s *SessionService) Register(ctx context.Context, client domain.ClientID, name, email, password string) (*domain.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     domain.RoleCustomer,
	}
	if err := s.records.AppendUser(ctx, u); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return s.open(ctx, client, u)
}

// Authenticate сначала учётка администратора, затем первый пользователь с совпавшими email и паролем
func (s *SessionService) Authenticate(ctx context.Context, client domain.ClientID, email, password string) (*domain.User, error) {
	if s.isAdmin(email, password) {
		admin := domain.User{ID: "admin", Name: "Administrador", Email: email, Role: domain.RoleAdmin}
		return s.open(ctx, client, admin)
	}

	users, out := s.records.Users(ctx)
	logOutcome(ctx, s.log, "users", out)
	for _, u := range users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil {
			return s.open(ctx, client, u)
		}
	}
	return nil, ErrInvalidCredentials
}

func (s *SessionService) isAdmin(email, password string) bool {
	if s.adminEmail == "" || email != s.adminEmail {
		return false
	}
	return bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)) == nil
}

func (s *SessionService) open(ctx context.Context, client domain.ClientID, u domain.User) (*domain.User, error) {
	safe := u.Stripped()
	if err := s.records.SetCurrentUser(ctx, client, safe); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if s.log != nil {
		s.log.InfoContext(ctx, "session opened",
			slog.String("client", string(client)),
			slog.String("user", safe.ID),
			slog.String("role", string(safe.Role)),
		)
	}
	return &safe, nil
}

func (s *SessionService) Logout(ctx context.Context, client domain.ClientID) error {
	return s.records.ClearCurrentUser(ctx, client)
}

// Current пользователь текущей сессии клиента или nil
func (s *SessionService) Current(ctx context.Context, client domain.ClientID) (*domain.User, repository.Outcome) {
	u, out := s.records.CurrentUser(ctx, client)
	logOutcome(ctx, s.log, "current_user", out)
	return u, out
}
