package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Parking represents a parking session for a vehicle or a shuttle.
// DurationHours is derived from the start and end times.
type Parking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID     primitive.ObjectID `bson:"vehicle_id,omitempty" json:"vehicle_id,omitempty"`
	ShuttleID     primitive.ObjectID `bson:"shuttle_id,omitempty" json:"shuttle_id,omitempty"`
	Location      string             `bson:"location" json:"location" validate:"required"`
	ParkingType   string             `bson:"parking_type" json:"parking_type" validate:"omitempty,oneof=daily monthly event reserved temporary"`
	StartTime     time.Time          `bson:"start_time" json:"start_time"`
	EndTime       *time.Time         `bson:"end_time,omitempty" json:"end_time,omitempty"`
	DurationHours float64            `bson:"duration_hours,omitempty" json:"duration_hours,omitempty"`
	CostAmount    float64            `bson:"cost_amount" json:"cost_amount" validate:"gte=0"`
	CostCurrency  string             `bson:"cost_currency" json:"cost_currency"`
	PaymentStatus string             `bson:"payment_status" json:"payment_status" validate:"omitempty,oneof=paid unpaid pending waived"`
	RecordedBy    primitive.ObjectID `bson:"recorded_by" json:"recorded_by"`
	Department    primitive.ObjectID `bson:"department,omitempty" json:"department,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty" validate:"max=500"`
	IsActive      bool               `bson:"is_active" json:"is_active"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// ComputeDuration recalculates DurationHours when both endpoints are known.
func (p *Parking) ComputeDuration() {
	if p.EndTime != nil && !p.StartTime.IsZero() {
		p.DurationHours = p.EndTime.Sub(p.StartTime).Hours()
	}
}
