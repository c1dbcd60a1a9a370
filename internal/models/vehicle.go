package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleStatus represents the lifecycle state of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable    VehicleStatus = "available"
	VehicleInUse        VehicleStatus = "in-use"
	VehicleMaintenance  VehicleStatus = "maintenance"
	VehicleOutOfService VehicleStatus = "out-of-service"
)

// Location represents a geographical location reported by a tracker.
type Location struct {
	Lat       float64   `bson:"lat" json:"lat"`
	Lon       float64   `bson:"lon" json:"lon"`
	Timestamp time.Time `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// Vehicle represents a fleet vehicle. Status transitions are owned by the
// lifecycle managers; handlers never write status directly.
type Vehicle struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Registration    string             `bson:"registration" json:"registration" validate:"required"`
	Make            string             `bson:"make" json:"make" validate:"required"`
	Model           string             `bson:"model" json:"model" validate:"required"`
	Year            int                `bson:"year" json:"year" validate:"required"`
	Color           string             `bson:"color,omitempty" json:"color,omitempty"`
	VehicleType     string             `bson:"vehicle_type" json:"vehicle_type" validate:"required,oneof=car truck van bus motorcycle"`
	FuelType        string             `bson:"fuel_type" json:"fuel_type" validate:"required,oneof=petrol diesel electric hybrid cng"`
	Status          VehicleStatus      `bson:"status" json:"status"`
	DepartmentID    primitive.ObjectID `bson:"department_id" json:"department_id"`
	CurrentLocation *Location          `bson:"current_location,omitempty" json:"current_location,omitempty"`
	LastServiceDate *time.Time         `bson:"last_service_date,omitempty" json:"last_service_date,omitempty"`
	NextServiceDue  *time.Time         `bson:"next_service_due,omitempty" json:"next_service_due,omitempty"`
	InsuranceExpiry time.Time          `bson:"insurance_expiry" json:"insurance_expiry"`
	Mileage         float64            `bson:"mileage" json:"mileage"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty" validate:"max=500"`
	CreatedBy       primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValidVehicleStatus checks if a vehicle status is one of the enumerated values.
func IsValidVehicleStatus(status VehicleStatus) bool {
	switch status {
	case VehicleAvailable, VehicleInUse, VehicleMaintenance, VehicleOutOfService:
		return true
	default:
		return false
	}
}
