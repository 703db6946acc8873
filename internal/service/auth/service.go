package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

const minPasswordLength = 6

type Config struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         *models.User `json:"user"`
}

type Service struct {
	users      repository.Users
	refresh    repository.RefreshTokens
	tokens     *Tokens
	refreshTTL time.Duration
	cost       int
	logger     *slog.Logger
}

func NewService(users repository.Users, refresh repository.RefreshTokens, cfg Config, logger *slog.Logger) *Service {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		refresh:    refresh,
		tokens:     NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL),
		refreshTTL: cfg.RefreshTokenTTL,
		cost:       cost,
		logger:     logger.With("component", "auth"),
	}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account and returns an access token for it.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, apperr.E(apperr.Required, "name, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.E(apperr.Invalid, "email is invalid")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.E(apperr.Invalid, "password must be at least %d characters", minPasswordLength)
	}

	user, err := s.createUser(ctx, name, email, password, models.RoleUser)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", "userId", user.ID.Hex())
	return &Session{AccessToken: access, ExpiresIn: int64(s.tokens.TTL().Seconds()), User: user}, nil
}

func (s *Service) createUser(ctx context.Context, name, email, password, role string) (*models.User, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.E(apperr.Conflict, "email already registered")
	} else if !apperr.IsKind(err, apperr.NotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, apperr.E(apperr.Required, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if apperr.IsKind(err, apperr.NotFound) {
		return nil, apperr.E(apperr.Unauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login failed", "userId", user.ID.Hex())
		return nil, apperr.E(apperr.Unauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, apperr.E(apperr.Forbidden, "user is inactive")
	}

	session, _, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user logged in", "userId", user.ID.Hex(), "role", user.Role)
	return session, nil
}

// Refresh rotates a refresh token: the presented one is revoked and points at
// its replacement.
func (s *Service) Refresh(ctx context.Context, plain string) (*Session, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, apperr.E(apperr.Required, "refreshToken is required")
	}

	token, err := s.refresh.FindActiveByHash(ctx, hashToken(plain))
	if apperr.IsKind(err, apperr.NotFound) {
		return nil, apperr.E(apperr.Unauthorized, "invalid refresh token")
	}
	if err != nil {
		return nil, err
	}
	if token.Expired(time.Now()) {
		if err := s.refresh.Revoke(ctx, token.ID, nil); err != nil {
			s.logger.WarnContext(ctx, "failed to revoke expired refresh token", "error", err)
		}
		return nil, apperr.E(apperr.Unauthorized, "refresh token expired")
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if apperr.IsKind(err, apperr.NotFound) {
		return nil, apperr.E(apperr.Unauthorized, "user not found")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.E(apperr.Forbidden, "user is inactive")
	}

	session, replacement, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.refresh.Revoke(ctx, token.ID, &replacement); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) Logout(ctx context.Context, plain string) error {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return apperr.E(apperr.Required, "refreshToken is required")
	}
	revoked, err := s.refresh.RevokeByHash(ctx, hashToken(plain))
	if err != nil {
		return err
	}
	if !revoked {
		return apperr.E(apperr.Unauthorized, "invalid refresh token")
	}
	return nil
}

func (s *Service) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.users.FindByID(ctx, actor.UserID)
}

// EnsureAdmin seeds an administrator when none exists yet.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.logger.InfoContext(ctx, "admin seeding skipped, ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	exists, err := s.users.ExistsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	user, err := s.createUser(ctx, "Administrator", email, password, models.RoleAdmin)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "admin account created", "userId", user.ID.Hex(), "email", email)
	return nil
}

func (s *Service) issueSession(ctx context.Context, user *models.User) (*Session, primitive.ObjectID, error) {
	access, err := s.tokens.Issue(user)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}

	plain, err := generateRefreshString()
	if err != nil {
		return nil, primitive.NilObjectID, errors.Join(errors.New("could not generate refresh token"), err)
	}

	now := time.Now()
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.refresh.Insert(ctx, refresh); err != nil {
		return nil, primitive.NilObjectID, err
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: plain,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
		User:         user,
	}, refresh.ID, nil
}
