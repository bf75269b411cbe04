package auth

import (
	"time"

	"github.com/polkiloo/agristar/internal/domain/model"
)

// Identity is the subject carried by an access token.
type Identity struct {
	UserID int64
	Role   model.Role
}

type Strategy interface {
	IssueToken(id Identity) (string, error)
	ParseToken(token string) (Identity, error)
	Name() string
}

type Options struct {
	TTL    time.Duration
	Issuer string
}
