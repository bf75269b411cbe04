package dto

import "time"

type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

type LocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type VerifyRiderRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING VERIFIED REJECTED"`
}

type NearbyQuery struct {
	Latitude  *float64 `form:"lat" binding:"required"`
	Longitude *float64 `form:"lon" binding:"required"`
	RadiusKm  *float64 `form:"radius_km"`
}

type RiderProfileResponse struct {
	UserID              int64     `json:"user_id"`
	Username            string    `json:"username,omitempty"`
	IsAvailable         bool      `json:"is_available"`
	Verification        string    `json:"verification_status"`
	Latitude            *float64  `json:"latitude,omitempty"`
	Longitude           *float64  `json:"longitude,omitempty"`
	VehicleType         string    `json:"vehicle_type,omitempty"`
	CompletedDeliveries int       `json:"completed_deliveries"`
	TotalDeliveries     int       `json:"total_deliveries"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type NearbyRiderResponse struct {
	Rider      RiderProfileResponse `json:"rider"`
	DistanceKm float64              `json:"distance_km"`
}
