package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Engine error taxonomy. Every error carries the identifiers needed to
// render a specific message (which request, which reviewer, which rule).
// All are recoverable and map to a 4xx status via StatusCode.

// ChainResolutionError means the org directory could not produce at
// least one approver for the requester's branch in default mode.
type ChainResolutionError struct {
	BranchID string
	Reason   string
}

func (e *ChainResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve approver chain for branch %s: %s", e.BranchID, e.Reason)
}

// InvalidChainError reports a violation in a caller-supplied custom
// chain: duplicate ids, empty approvedBy, or unknown reviewer ids.
type InvalidChainError struct {
	Reason string
	IDs    []string
}

func (e *InvalidChainError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("invalid approver chain: %s", e.Reason)
	}
	return fmt.Sprintf("invalid approver chain: %s (%s)", e.Reason, strings.Join(e.IDs, ", "))
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AlreadyDecidedError means the reviewer's ledger entry has left
// Pending; decisions are one-shot and entries immutable afterwards.
type AlreadyDecidedError struct {
	RequestID  string
	ReviewerID string
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("reviewer %s already decided on request %s", e.ReviewerID, e.RequestID)
}

// OutOfTurnError means the reviewer is not the current pending approver
// while strict sequential enforcement is on.
type OutOfTurnError struct {
	RequestID  string
	ReviewerID string
	PendingID  string
}

func (e *OutOfTurnError) Error() string {
	return fmt.Sprintf("reviewer %s is out of turn on request %s: waiting on %s", e.ReviewerID, e.RequestID, e.PendingID)
}

// RequestClosedError means the request aggregate is already terminal
// and accepts no further decisions.
type RequestClosedError struct {
	RequestID string
	Status    string
}

func (e *RequestClosedError) Error() string {
	return fmt.Sprintf("request %s is closed (%s)", e.RequestID, e.Status)
}

// UnknownReviewerError means (requestId, reviewerId) is not part of the
// request's current chain.
type UnknownReviewerError struct {
	RequestID  string
	ReviewerID string
}

func (e *UnknownReviewerError) Error() string {
	return fmt.Sprintf("reviewer %s is not in the chain of request %s", e.ReviewerID, e.RequestID)
}

// ForbiddenError means the actor is authenticated but not allowed to
// perform this operation (e.g. editing another requester's chain).
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// StatusCode maps an engine error to the HTTP status controllers should
// respond with. Unrecognized errors are internal.
func StatusCode(err error) int {
	var (
		chainRes  *ChainResolutionError
		invalid   *InvalidChainError
		notFound  *NotFoundError
		decided   *AlreadyDecidedError
		outOfTurn *OutOfTurnError
		closed    *RequestClosedError
		unknown   *UnknownReviewerError
		forbidden *ForbiddenError
	)
	switch {
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &chainRes):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &decided), errors.As(err, &closed):
		return fiber.StatusConflict
	case errors.As(err, &outOfTurn):
		return fiber.StatusForbidden
	case errors.As(err, &unknown), errors.As(err, &forbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}
