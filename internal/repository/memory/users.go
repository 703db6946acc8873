package memory

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
)

type UserStore struct{ s *Store }

func (r *UserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "user not found")
	}
	return &user, nil
}

func (r *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.E(apperr.NotFound, "user not found")
}

func (r *UserStore) ExistsByRole(_ context.Context, role string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserStore) Insert(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return apperr.E(apperr.Conflict, "email already registered")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.s.users[user.ID] = *user
	return nil
}

type RefreshTokenStore struct{ s *Store }

func (r *RefreshTokenStore) Insert(_ context.Context, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if token.ID.IsZero() {
		token.ID = primitive.NewObjectID()
	}
	r.s.tokens[token.ID] = *token
	return nil
}

func (r *RefreshTokenStore) FindActiveByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tokens {
		if t.TokenHash == hash && !t.Revoked {
			return &t, nil
		}
	}
	return nil, apperr.E(apperr.NotFound, "refresh token not found")
}

func (r *RefreshTokenStore) Revoke(_ context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token, ok := r.s.tokens[id]
	if !ok {
		return nil
	}
	now := time.Now()
	token.Revoked = true
	token.RevokedAt = &now
	token.ReplacedByToken = replacedBy
	r.s.tokens[id] = token
	return nil
}

func (r *RefreshTokenStore) RevokeByHash(_ context.Context, hash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, t := range r.s.tokens {
		if t.TokenHash == hash && !t.Revoked {
			now := time.Now()
			t.Revoked = true
			t.RevokedAt = &now
			r.s.tokens[id] = t
			return true, nil
		}
	}
	return false, nil
}
