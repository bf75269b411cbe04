package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/agristar/internal/domain/model"
)

const riderColumns = `p.user_id, u.username, p.is_available, p.verification_status, p.current_latitude,
    p.current_longitude, p.vehicle_type, p.completed_deliveries, p.total_deliveries, p.updated_at`

func (r *riderRepository) GetProfile(ctx context.Context, userID int64) (*model.RiderProfile, error) {
	const query = `SELECT ` + riderColumns + `
                   FROM rider_profiles p JOIN users u ON u.id = p.user_id
                   WHERE p.user_id=$1`
	return scanRider(r.storage.pool.QueryRow(ctx, query, userID))
}

func (r *riderRepository) ListDispatchable(ctx context.Context) ([]model.RiderProfile, error) {
	const query = `SELECT ` + riderColumns + `
                   FROM rider_profiles p JOIN users u ON u.id = p.user_id
                   WHERE p.is_available AND p.verification_status = 'VERIFIED'
                     AND p.current_latitude IS NOT NULL AND p.current_longitude IS NOT NULL
                   ORDER BY p.user_id`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.RiderProfile
	for rows.Next() {
		p, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *riderRepository) SetAvailability(ctx context.Context, userID int64, available bool) (*model.RiderProfile, error) {
	const query = `WITH p AS (
                       UPDATE rider_profiles SET is_available=$2, updated_at=NOW()
                       WHERE user_id=$1 RETURNING *
                   )
                   SELECT ` + riderColumns + ` FROM p JOIN users u ON u.id = p.user_id`
	return scanRider(r.storage.pool.QueryRow(ctx, query, userID, available))
}

func (r *riderRepository) UpdateLocation(ctx context.Context, userID int64, lat, lon float64) (*model.RiderProfile, error) {
	const query = `WITH p AS (
                       UPDATE rider_profiles SET current_latitude=$2, current_longitude=$3, updated_at=NOW()
                       WHERE user_id=$1 RETURNING *
                   )
                   SELECT ` + riderColumns + ` FROM p JOIN users u ON u.id = p.user_id`
	return scanRider(r.storage.pool.QueryRow(ctx, query, userID, lat, lon))
}

func (r *riderRepository) SetVerification(ctx context.Context, userID int64, status model.VerificationStatus) (*model.RiderProfile, error) {
	const query = `WITH p AS (
                       UPDATE rider_profiles SET verification_status=$2, updated_at=NOW()
                       WHERE user_id=$1 RETURNING *
                   )
                   SELECT ` + riderColumns + ` FROM p JOIN users u ON u.id = p.user_id`
	return scanRider(r.storage.pool.QueryRow(ctx, query, userID, status))
}

func scanRider(row pgx.Row) (*model.RiderProfile, error) {
	var p model.RiderProfile
	err := row.Scan(&p.UserID, &p.Username, &p.IsAvailable, &p.Verification, &p.Latitude,
		&p.Longitude, &p.VehicleType, &p.CompletedDeliveries, &p.TotalDeliveries, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}
