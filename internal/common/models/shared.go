package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

type AuditAction string

const (
	AuditActionCreate    AuditAction = "CREATE"
	AuditActionDecision  AuditAction = "DECISION"
	AuditActionChainEdit AuditAction = "CHAIN_EDIT"
	AuditActionComplete  AuditAction = "COMPLETE"
	AuditActionLogin     AuditAction = "LOGIN"
	AuditActionSync      AuditAction = "SYNC"
	AuditActionReminder  AuditAction = "REMINDER"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`         // Feature name, e.g. "request"
	RecordID  string             `bson:"record_id" json:"record_id"`   // ID of the record acted on
	ActorID   string             `bson:"actor_id" json:"actor_id"`     // User ID who performed the action
	ActorName string             `bson:"-" json:"actor_name,omitempty"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// ApprovalStatus is both the per-decision status and the request-level
// aggregate derived from all decisions.
type ApprovalStatus string

const (
	StatusPending     ApprovalStatus = "pending"
	StatusOngoing     ApprovalStatus = "ongoing"
	StatusApproved    ApprovalStatus = "approved"
	StatusDisapproved ApprovalStatus = "disapproved"
	StatusCompleted   ApprovalStatus = "completed"
)

// Terminal reports whether no further decisions are accepted for a
// request whose aggregate is s.
func (s ApprovalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusDisapproved || s == StatusCompleted
}

// ReviewerCategory partitions a chain: noted_by reviewers acknowledge
// before any approved_by reviewer may issue a binding decision.
type ReviewerCategory string

const (
	CategoryNotedBy    ReviewerCategory = "noted_by"
	CategoryApprovedBy ReviewerCategory = "approved_by"
)

type DecisionAction string

const (
	ActionApprove    DecisionAction = "approve"
	ActionDisapprove DecisionAction = "disapprove"
)

// RequestType is carried for display only; the engine never inspects
// the business payload behind it.
type RequestType string

const (
	RequestTypeCashAdvance  RequestType = "cash_advance"
	RequestTypeDisbursement RequestType = "disbursement"
	RequestTypeDiscount     RequestType = "discount"
	RequestTypeLiquidation  RequestType = "liquidation"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Password     string             `bson:"password" json:"-"`
	Email        string             `bson:"email" json:"email"`
	FirstName    string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName     string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Position     string             `bson:"position,omitempty" json:"position,omitempty"`
	BranchID     primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`
	Approver     bool               `bson:"approver" json:"approver"`       // eligible reviewer
	HeadOffice   bool               `bson:"head_office" json:"head_office"` // member of the head-office pool
	SignatureRef string             `bson:"signature_ref,omitempty" json:"signature_ref,omitempty"`
	Status       string             `bson:"status" json:"status"` // active, inactive, suspended
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Log is the row shape the async zap tee writes into the logs collection.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	Caller       string    `bson:"caller" json:"caller"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
