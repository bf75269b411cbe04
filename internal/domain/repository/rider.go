package repository

import (
	"context"

	"github.com/polkiloo/agristar/internal/domain/model"
)

// RiderRepository manages rider dispatch profiles.
type RiderRepository interface {
	GetProfile(ctx context.Context, userID int64) (*model.RiderProfile, error)
	// ListDispatchable returns available, verified riders with a known location.
	ListDispatchable(ctx context.Context) ([]model.RiderProfile, error)
	SetAvailability(ctx context.Context, userID int64, available bool) (*model.RiderProfile, error)
	UpdateLocation(ctx context.Context, userID int64, lat, lon float64) (*model.RiderProfile, error)
	SetVerification(ctx context.Context, userID int64, status model.VerificationStatus) (*model.RiderProfile, error)
}
