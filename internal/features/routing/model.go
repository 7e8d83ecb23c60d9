package routing

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoutingRule holds a tengo script that can append reviewers to the
// default chain resolved for a branch. Rules with a zero BranchID
// apply to every branch; RequestType empty means any type.
type RoutingRule struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description,omitempty"`
	BranchID    primitive.ObjectID `json:"branch_id" bson:"branch_id,omitempty"`
	RequestType string             `json:"request_type" bson:"request_type,omitempty"`
	Script      string             `json:"script" bson:"script"`
	Enabled     bool               `json:"enabled" bson:"enabled"`
	Priority    int                `json:"priority" bson:"priority"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// ChainInput is what a rule script sees about the request being routed.
type ChainInput struct {
	RequestType string
	BranchID    primitive.ObjectID
	RequesterID primitive.ObjectID
	NotedBy     []primitive.ObjectID
	ApprovedBy  []primitive.ObjectID
}
