package usecase

import (
	"context"
	"errors"
	"strings"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/domain/repository"
	pkgAuth "github.com/polkiloo/agristar/internal/pkg/auth"
	"github.com/polkiloo/agristar/internal/pkg/phone"
)

// AuthUseCase handles user lifecycle and token management.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(users repository.UserRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: strategy}
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Username string
	Password string
	Role     model.Role
	Phone    string
}

// Register creates a new user and returns an auth token. Admin accounts
// cannot be self-registered.
func (u *AuthUseCase) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}
	if !in.Role.IsValid() || in.Role == model.RoleAdmin {
		return nil, "", domainErrors.ErrInvalidRole
	}

	var msisdn string
	if raw := strings.TrimSpace(in.Phone); raw != "" {
		var err error
		if msisdn, err = phone.Normalize(raw); err != nil {
			return nil, "", domainErrors.ErrInvalidPhone
		}
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}

	usr, err := u.users.Create(ctx, model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        msisdn,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, "", domainErrors.ErrAlreadyExists
		}
		return nil, "", err
	}

	token, err := u.tokens.IssueToken(pkgAuth.Identity{UserID: usr.ID, Role: usr.Role})
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// Authenticate validates credentials and returns auth token.
func (u *AuthUseCase) Authenticate(ctx context.Context, username, password string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	token, err := u.tokens.IssueToken(pkgAuth.Identity{UserID: usr.ID, Role: usr.Role})
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// ParseToken resolves the actor a token was issued to.
func (u *AuthUseCase) ParseToken(token string) (model.Actor, error) {
	if token == "" {
		return nil, pkgAuth.ErrInvalidToken
	}
	id, err := u.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	actor, err := model.NewActor(id.UserID, id.Role)
	if err != nil {
		return nil, pkgAuth.ErrInvalidToken
	}
	return actor, nil
}

// GetByID fetches user by identifier.
func (u *AuthUseCase) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return u.users.GetByID(ctx, id)
}
