package usecase

import (
	"context"
	"log/slog"
	"math"

	"github.com/polkiloo/agristar/internal/config"
	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/domain/repository"
	"github.com/polkiloo/agristar/internal/geo"
)

const defaultSearchRadiusKm = 10.0

// RiderUseCase manages rider dispatch state and nearest-rider search.
type RiderUseCase struct {
	riders        repository.RiderRepository
	defaultRadius float64
	logger        *slog.Logger
}

// NewRiderUseCase constructs RiderUseCase.
func NewRiderUseCase(riders repository.RiderRepository, cfg *config.Config, logger *slog.Logger) *RiderUseCase {
	radius := defaultSearchRadiusKm
	if cfg != nil && cfg.RiderSearchRadiusKm > 0 {
		radius = cfg.RiderSearchRadiusKm
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RiderUseCase{riders: riders, defaultRadius: radius, logger: logger}
}

// FindNearbyRiders lists available, verified riders within radiusKm of the
// point, nearest first. A nil radius selects the configured default; zero
// matches riders standing on the point itself.
func (u *RiderUseCase) FindNearbyRiders(ctx context.Context, actor model.Actor, lat, lon float64, radiusKm *float64) ([]model.NearbyRider, error) {
	if _, admin := actor.(model.Admin); !admin && !model.CanSell(actor) {
		return nil, domainErrors.ErrPermissionDenied
	}
	origin := geo.Point{Lat: lat, Lon: lon}
	if !origin.Valid() {
		return nil, domainErrors.ErrInvalidCoordinates
	}
	radius := u.defaultRadius
	if radiusKm != nil {
		radius = *radiusKm
	}
	if radius < 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, domainErrors.ErrInvalidCoordinates
	}

	candidates, err := u.riders.ListDispatchable(ctx)
	if err != nil {
		return nil, err
	}
	return geo.Nearby(origin, radius, candidates), nil
}

// SetAvailability toggles whether the rider accepts deliveries.
func (u *RiderUseCase) SetAvailability(ctx context.Context, actor model.Actor, available bool) (*model.RiderProfile, error) {
	rider, ok := actor.(model.Rider)
	if !ok {
		return nil, domainErrors.ErrPermissionDenied
	}
	return u.riders.SetAvailability(ctx, rider.ID, available)
}

// UpdateLocation stores the rider's latest GPS fix.
func (u *RiderUseCase) UpdateLocation(ctx context.Context, actor model.Actor, lat, lon float64) (*model.RiderProfile, error) {
	rider, ok := actor.(model.Rider)
	if !ok {
		return nil, domainErrors.ErrPermissionDenied
	}
	if !(geo.Point{Lat: lat, Lon: lon}).Valid() {
		return nil, domainErrors.ErrInvalidCoordinates
	}
	return u.riders.UpdateLocation(ctx, rider.ID, lat, lon)
}

// Verify records an admin's review of a rider.
func (u *RiderUseCase) Verify(ctx context.Context, actor model.Actor, riderID int64, status model.VerificationStatus) (*model.RiderProfile, error) {
	if _, ok := actor.(model.Admin); !ok {
		return nil, domainErrors.ErrPermissionDenied
	}
	if !status.IsValid() {
		return nil, domainErrors.ErrInvalidTransition
	}
	profile, err := u.riders.SetVerification(ctx, riderID, status)
	if err != nil {
		return nil, err
	}
	u.logger.Info("rider verification updated",
		slog.Int64("rider_id", riderID),
		slog.String("status", string(status)),
		slog.Int64("admin_id", actor.UserID()),
	)
	return profile, nil
}
