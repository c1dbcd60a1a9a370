package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cost represents a fleet cost ledger entry.
type Cost struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CostID         string             `bson:"cost_id" json:"cost_id"`
	Amount         float64            `bson:"amount" json:"amount" validate:"gt=0"`
	Category       string             `bson:"category" json:"category" validate:"required,oneof=fuel maintenance insurance registration tolls parking other"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	IncurredDate   time.Time          `bson:"incurred_date" json:"incurred_date"`
	Department     primitive.ObjectID `bson:"department,omitempty" json:"department,omitempty"`
	RelatedVehicle primitive.ObjectID `bson:"related_vehicle,omitempty" json:"related_vehicle,omitempty"`
	RelatedDriver  primitive.ObjectID `bson:"related_driver,omitempty" json:"related_driver,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
