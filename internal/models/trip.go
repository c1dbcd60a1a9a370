package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripStatus represents the lifecycle state of a trip.
type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in-progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
	TripDelayed    TripStatus = "delayed"
)

// Trip represents a driver booking: a driver and a vehicle assigned to carry
// a passenger from a pickup location to a destination.
type Trip struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DriverID            primitive.ObjectID `bson:"driver_id" json:"driver_id"`
	VehicleID           primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	PassengerName       string             `bson:"passenger_name" json:"passenger_name" validate:"required"`
	PassengerContact    string             `bson:"passenger_contact" json:"passenger_contact" validate:"required"`
	PickupLocation      string             `bson:"pickup_location" json:"pickup_location" validate:"required"`
	Destination         string             `bson:"destination" json:"destination" validate:"required"`
	ScheduledPickupTime time.Time          `bson:"scheduled_pickup_time" json:"scheduled_pickup_time"`
	ScheduledReturnTime *time.Time         `bson:"scheduled_return_time,omitempty" json:"scheduled_return_time,omitempty"`
	ActualPickupTime    *time.Time         `bson:"actual_pickup_time,omitempty" json:"actual_pickup_time,omitempty"`
	ActualReturnTime    *time.Time         `bson:"actual_return_time,omitempty" json:"actual_return_time,omitempty"`
	Status              TripStatus         `bson:"status" json:"status"`
	Purpose             string             `bson:"purpose,omitempty" json:"purpose,omitempty"`
	EstimatedCost       float64            `bson:"estimated_cost,omitempty" json:"estimated_cost,omitempty" validate:"gte=0"`
	ActualCost          float64            `bson:"actual_cost,omitempty" json:"actual_cost,omitempty" validate:"gte=0"`
	Department          primitive.ObjectID `bson:"department" json:"department"`
	Notes               string             `bson:"notes,omitempty" json:"notes,omitempty" validate:"max=500"`
	CreatedBy           primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt           time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValidTripStatus checks if a trip status is one of the enumerated values.
func IsValidTripStatus(status TripStatus) bool {
	switch status {
	case TripScheduled, TripInProgress, TripCompleted, TripCancelled, TripDelayed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends the trip's claim on its vehicle.
func (s TripStatus) IsTerminal() bool {
	return s == TripCompleted || s == TripCancelled
}

// IsActive reports whether the trip still holds its vehicle.
func (s TripStatus) IsActive() bool {
	return s == TripScheduled || s == TripInProgress || s == TripDelayed
}
