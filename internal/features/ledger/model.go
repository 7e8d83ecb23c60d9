package ledger

import (
	"time"

	common_models "go-approvals/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decision is one reviewer's ledger entry for a request. Entries are
// materialized eagerly with status pending when the chain is resolved,
// and become immutable once the status leaves pending.
//
// Entries are keyed by (request_id, cycle, reviewer_id). The cycle is
// bumped on every chain edit so entries from a prior chain are kept for
// audit but never consulted again.
type Decision struct {
	ID             primitive.ObjectID             `bson:"_id,omitempty" json:"id"`
	RequestID      primitive.ObjectID             `bson:"request_id" json:"request_id"`
	ReviewerID     primitive.ObjectID             `bson:"reviewer_id" json:"reviewer_id"`
	Cycle          int                            `bson:"cycle" json:"cycle"`
	Category       common_models.ReviewerCategory `bson:"category" json:"category"`
	Ordinal        int                            `bson:"ordinal" json:"ordinal"` // 1-based position within the category
	Status         common_models.ApprovalStatus   `bson:"status" json:"status"`
	Comment        string                         `bson:"comment,omitempty" json:"comment,omitempty"`
	SignatureRef   string                         `bson:"signature_ref,omitempty" json:"signature_ref,omitempty"`
	AttachmentRefs []string                       `bson:"attachment_refs,omitempty" json:"attachment_refs,omitempty"`
	DecidedAt      *time.Time                     `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
	CreatedAt      time.Time                      `bson:"created_at" json:"created_at"`
}

// Outcome carries the mutable part of a pending entry set on transition.
type Outcome struct {
	Status         common_models.ApprovalStatus
	Comment        string
	SignatureRef   string
	AttachmentRefs []string
}
