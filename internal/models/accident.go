package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Accident represents an accident report tied to a trip and a driver.
type Accident struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TripID      primitive.ObjectID `bson:"trip_id,omitempty" json:"trip_id,omitempty"`
	Driver      primitive.ObjectID `bson:"driver,omitempty" json:"driver,omitempty"`
	Date        time.Time          `bson:"date" json:"date"`
	Location    string             `bson:"location" json:"location" validate:"required"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Damage      string             `bson:"damage,omitempty" json:"damage,omitempty"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
