package branch

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Branch struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Code          string             `bson:"code" json:"code"`
	AreaManagerID primitive.ObjectID `bson:"area_manager_id,omitempty" json:"area_manager_id,omitempty"`
	Status        string             `bson:"status" json:"status"` // active, closed
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
