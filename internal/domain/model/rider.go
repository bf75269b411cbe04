package model

import "time"

// VerificationStatus is the admin review state of a rider.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

type VehicleType string

const (
	VehicleMotorbike VehicleType = "MOTORBIKE"
	VehicleBicycle   VehicleType = "BICYCLE"
	VehicleCar       VehicleType = "CAR"
	VehicleVan       VehicleType = "VAN"
	VehicleOnFoot    VehicleType = "ON_FOOT"
)

// RiderProfile holds dispatch state of a rider. Exactly one exists per rider user.
type RiderProfile struct {
	UserID              int64
	Username            string
	IsAvailable         bool
	Verification        VerificationStatus
	Latitude            *float64
	Longitude           *float64
	VehicleType         VehicleType
	CompletedDeliveries int
	TotalDeliveries     int
	UpdatedAt           time.Time
}

// Dispatchable reports whether the rider may be matched to a delivery.
func (p RiderProfile) Dispatchable() bool {
	return p.IsAvailable && p.Verification == VerificationVerified
}

// NearbyRider pairs a rider with the distance from the search point.
type NearbyRider struct {
	Rider      RiderProfile
	DistanceKm float64
}
