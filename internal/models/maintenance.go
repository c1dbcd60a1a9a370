package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceType classifies a maintenance record.
type MaintenanceType string

const (
	MaintenanceRoutine        MaintenanceType = "routine"
	MaintenanceRepair         MaintenanceType = "repair"
	MaintenanceInspection     MaintenanceType = "inspection"
	MaintenanceAccidentRepair MaintenanceType = "accident-repair"
	MaintenanceOther          MaintenanceType = "other"
)

// MaintenanceStatus represents the lifecycle state of a maintenance record.
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "scheduled"
	MaintenanceInProgress MaintenanceStatus = "in-progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// PartReplaced records a part swapped during maintenance.
type PartReplaced struct {
	Name       string  `bson:"name" json:"name"`
	PartNumber string  `bson:"part_number,omitempty" json:"part_number,omitempty"`
	Cost       float64 `bson:"cost,omitempty" json:"cost,omitempty"`
}

// Maintenance represents a vehicle maintenance record. While a record of
// type repair or accident-repair is scheduled or in progress, the vehicle
// it references must be in the "maintenance" status.
type Maintenance struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID       primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	MaintenanceType MaintenanceType    `bson:"maintenance_type" json:"maintenance_type" validate:"required,oneof=routine repair inspection accident-repair other"`
	Description     string             `bson:"description" json:"description" validate:"required,max=500"`
	ScheduledDate   time.Time          `bson:"scheduled_date" json:"scheduled_date"`
	CompletedDate   *time.Time         `bson:"completed_date,omitempty" json:"completed_date,omitempty"`
	Cost            float64            `bson:"cost" json:"cost" validate:"gte=0"`
	ServiceProvider string             `bson:"service_provider,omitempty" json:"service_provider,omitempty"`
	Status          MaintenanceStatus  `bson:"status" json:"status"`
	Mileage         float64            `bson:"mileage,omitempty" json:"mileage,omitempty" validate:"gte=0"`
	PartsReplaced   []PartReplaced     `bson:"parts_replaced,omitempty" json:"parts_replaced,omitempty"`
	NextServiceDue  *time.Time         `bson:"next_service_due,omitempty" json:"next_service_due,omitempty"`
	Department      primitive.ObjectID `bson:"department" json:"department"`
	PerformedBy     primitive.ObjectID `bson:"performed_by,omitempty" json:"performed_by,omitempty"`
	CreatedBy       primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// TakesVehicleOffRoad reports whether this maintenance type requires the
// vehicle to be moved into the maintenance status while the work is open.
func (t MaintenanceType) TakesVehicleOffRoad() bool {
	return t == MaintenanceRepair || t == MaintenanceAccidentRepair
}
