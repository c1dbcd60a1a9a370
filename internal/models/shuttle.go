package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shuttle represents a staff shuttle vehicle.
type Shuttle struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name" validate:"required"`
	Registration    string             `bson:"registration" json:"registration" validate:"required"`
	Make            string             `bson:"make" json:"make" validate:"required"`
	Model           string             `bson:"model" json:"model" validate:"required"`
	Year            int                `bson:"year" json:"year" validate:"required"`
	Capacity        int                `bson:"capacity" json:"capacity" validate:"required,min=1"`
	Department      primitive.ObjectID `bson:"department" json:"department"`
	Status          string             `bson:"status" json:"status" validate:"omitempty,oneof=active maintenance inactive"`
	FuelType        string             `bson:"fuel_type" json:"fuel_type" validate:"required,oneof=petrol diesel electric hybrid"`
	InsuranceExpiry time.Time          `bson:"insurance_expiry" json:"insurance_expiry"`
	CreatedBy       primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}
