package request

import (
	"time"

	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/features/ledger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chain is the resolved, ordered reviewer chain of one cycle. The
// noted_by segment acknowledges before any approved_by reviewer may
// issue a binding decision.
type Chain struct {
	NotedBy    []primitive.ObjectID `bson:"noted_by" json:"noted_by"`
	ApprovedBy []primitive.ObjectID `bson:"approved_by" json:"approved_by"`
}

// Members returns every reviewer in chain order.
func (c Chain) Members() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(c.NotedBy)+len(c.ApprovedBy))
	out = append(out, c.NotedBy...)
	out = append(out, c.ApprovedBy...)
	return out
}

// Request is the engine's view of a submitted form. The business
// payload lives behind PayloadRef; the engine never inspects it.
// Status is a cached aggregate, recomputed and persisted after every
// accepted ledger transition. Cycle is bumped on each chain edit so
// ledger entries of a replaced chain are kept for audit but never
// consulted again.
type Request struct {
	ID          primitive.ObjectID           `bson:"_id,omitempty" json:"id"`
	RequesterID primitive.ObjectID           `bson:"requester_id" json:"requester_id"`
	BranchID    primitive.ObjectID           `bson:"branch_id" json:"branch_id"`
	Type        common_models.RequestType    `bson:"type" json:"type"`
	Title       string                       `bson:"title" json:"title"`
	PayloadRef  string                       `bson:"payload_ref" json:"payload_ref"`
	Chain       Chain                        `bson:"chain" json:"chain"`
	Cycle       int                          `bson:"cycle" json:"cycle"`
	Status      common_models.ApprovalStatus `bson:"status" json:"status"`
	CompletedAt *time.Time                   `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt   time.Time                    `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time                    `bson:"updated_at" json:"updated_at"`
}

const (
	ChainModeDefault = "default"
	ChainModeCustom  = "custom"
)

// ChainSpec is the caller's chain choice at creation or edit time.
// Default mode resolves from the org directory; custom mode takes two
// ordered reviewer id lists verbatim (validated, not reordered).
type ChainSpec struct {
	Mode       string   `json:"mode"`
	NotedBy    []string `json:"noted_by,omitempty"`
	ApprovedBy []string `json:"approved_by,omitempty"`
}

type CreateRequestBody struct {
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	PayloadRef string    `json:"payload_ref"`
	Chain      ChainSpec `json:"chain"`
}

type DecisionBody struct {
	Action         string   `json:"action"` // approve | disapprove
	Comment        string   `json:"comment,omitempty"`
	SignatureRef   string   `json:"signature_ref,omitempty"`
	AttachmentRefs []string `json:"attachment_refs,omitempty"`
}

// StatusView answers "where does this request stand, and whose turn is
// it" in one read.
type StatusView struct {
	RequestID       primitive.ObjectID           `json:"request_id"`
	Status          common_models.ApprovalStatus `json:"status"`
	Cycle           int                          `json:"cycle"`
	PendingApprover *ledger.Decision             `json:"pending_approver,omitempty"`
	Decisions       []ledger.Decision            `json:"decisions"`
}
