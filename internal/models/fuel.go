package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fuel represents a fueling record. TotalCost is derived from FuelAmount and
// CostPerUnit and is recomputed whenever either factor changes.
type Fuel struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID       primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	DriverID        primitive.ObjectID `bson:"driver_id,omitempty" json:"driver_id,omitempty"`
	FuelingDate     time.Time          `bson:"fueling_date" json:"fueling_date"`
	OdometerReading float64            `bson:"odometer_reading" json:"odometer_reading" validate:"gte=0"`
	FuelAmount      float64            `bson:"fuel_amount" json:"fuel_amount" validate:"gt=0"`
	FuelType        string             `bson:"fuel_type" json:"fuel_type" validate:"required,oneof=petrol diesel electric hybrid cng"`
	CostPerUnit     float64            `bson:"cost_per_unit" json:"cost_per_unit" validate:"gte=0"`
	TotalCost       float64            `bson:"total_cost" json:"total_cost"`
	FuelingLocation string             `bson:"fueling_location" json:"fueling_location" validate:"required"`
	FuelCardNumber  string             `bson:"fuel_card_number,omitempty" json:"fuel_card_number,omitempty"`
	ReceiptNumber   string             `bson:"receipt_number,omitempty" json:"receipt_number,omitempty"`
	FuelingType     string             `bson:"fueling_type" json:"fueling_type"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty" validate:"max=500"`
	Department      primitive.ObjectID `bson:"department,omitempty" json:"department,omitempty"`
	RecordedBy      primitive.ObjectID `bson:"recorded_by" json:"recorded_by"`
	IsVerified      bool               `bson:"is_verified" json:"is_verified"`
	VerifiedBy      primitive.ObjectID `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	VerifiedAt      *time.Time         `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// ComputeTotalCost recalculates the derived total from the current factors.
func (f *Fuel) ComputeTotalCost() {
	f.TotalCost = f.FuelAmount * f.CostPerUnit
}
