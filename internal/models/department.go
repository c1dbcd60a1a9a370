package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Department groups vehicles, users and spending under one budget.
// AvailableFunds only ever decreases through deductions and never goes
// negative; the store enforces this with a conditional update.
type Department struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name" validate:"required"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Head           primitive.ObjectID `bson:"head,omitempty" json:"head,omitempty"`
	AllocatedFunds float64            `bson:"allocated_funds" json:"allocated_funds" validate:"gte=0"`
	AvailableFunds float64            `bson:"available_funds" json:"available_funds" validate:"gte=0"`
	Subsidiary     primitive.ObjectID `bson:"subsidiary,omitempty" json:"subsidiary,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// Subsidiary represents a subsidiary company operating part of the fleet.
type Subsidiary struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name" validate:"required"`
	Code         string             `bson:"code" json:"code" validate:"required"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	ContactEmail string             `bson:"contact_email,omitempty" json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone string             `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
