package request

import (
	"context"
	"fmt"
	"time"

	"go-approvals/internal/common/apperrors"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/config"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/ledger"
	"go-approvals/internal/features/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Dispatcher is the slice of the notification service the engine
// calls after accepted transitions. Calls are fire-and-forget.
type Dispatcher interface {
	Notify(ctx context.Context, userID primitive.ObjectID, title, message string, notifType notification.NotificationType, link string) error
}

// RequestService owns the request lifecycle. SubmitDecision is the
// transition guard: every check runs in a fixed order so a submission
// always fails with the most specific error first.
type RequestService interface {
	CreateRequest(ctx context.Context, requesterID, branchID primitive.ObjectID, body CreateRequestBody) (*Request, error)
	SubmitDecision(ctx context.Context, requestID, reviewerID primitive.ObjectID, body DecisionBody) (*StatusView, error)
	GetStatus(ctx context.Context, requestID primitive.ObjectID) (*StatusView, error)
	EditChain(ctx context.Context, requestID, actorID primitive.ObjectID, spec ChainSpec) (*Request, error)
	MarkCompleted(ctx context.Context, requestID, actorID primitive.ObjectID) (*Request, error)
	ListByRequester(ctx context.Context, requesterID primitive.ObjectID, page, limit int64) ([]Request, int64, error)
	ReviewerQueue(ctx context.Context, reviewerID primitive.ObjectID) ([]Request, error)
	ExportHistory(ctx context.Context, requestID primitive.ObjectID) ([]byte, string, error)
	RemindPending(ctx context.Context, maxAge time.Duration) (int, error)
}

type RequestServiceImpl struct {
	repo      RequestRepository
	ledger    ledger.LedgerRepository
	resolver  ChainResolver
	reviewers ReviewerFinder
	audit     audit.AuditService
	notifier  Dispatcher
	config    *config.Config
	log       *zap.Logger
}

func NewRequestService(
	repo RequestRepository,
	ledgerRepo ledger.LedgerRepository,
	resolver ChainResolver,
	reviewers ReviewerFinder,
	auditService audit.AuditService,
	notifier Dispatcher,
	cfg *config.Config,
	log *zap.Logger,
) RequestService {
	return &RequestServiceImpl{
		repo:      repo,
		ledger:    ledgerRepo,
		resolver:  resolver,
		reviewers: reviewers,
		audit:     auditService,
		notifier:  notifier,
		config:    cfg,
		log:       log,
	}
}

func (s *RequestServiceImpl) CreateRequest(ctx context.Context, requesterID, branchID primitive.ObjectID, body CreateRequestBody) (*Request, error) {
	chain, err := s.resolver.Resolve(ctx, requesterID, branchID, common_models.RequestType(body.Type), body.Chain)
	if err != nil {
		return nil, err
	}

	req := &Request{
		RequesterID: requesterID,
		BranchID:    branchID,
		Type:        common_models.RequestType(body.Type),
		Title:       body.Title,
		PayloadRef:  body.PayloadRef,
		Chain:       *chain,
		Cycle:       1,
		Status:      common_models.StatusPending,
	}
	req, err = s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Materialize(ctx, materializeChain(req)); err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, common_models.AuditActionCreate, "request", req.ID.Hex(), nil); err != nil {
		s.log.Warn("audit write failed", zap.String("request_id", req.ID.Hex()), zap.Error(err))
	}

	if first := firstMember(*chain); !first.IsZero() {
		s.notifyAsync(first, "Approval requested",
			fmt.Sprintf("Request %q is waiting for your decision", req.Title),
			notification.NotificationTypeTurn, requestLink(req.ID))
	}

	return req, nil
}

func (s *RequestServiceImpl) SubmitDecision(ctx context.Context, requestID, reviewerID primitive.ObjectID, body DecisionBody) (*StatusView, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &apperrors.NotFoundError{Resource: "request", ID: requestID.Hex()}
	}

	if req.Status.Terminal() {
		return nil, &apperrors.RequestClosedError{RequestID: requestID.Hex(), Status: string(req.Status)}
	}

	snapshot, err := s.ledger.Snapshot(ctx, requestID, req.Cycle)
	if err != nil {
		return nil, err
	}

	var entry *ledger.Decision
	for i := range snapshot {
		if snapshot[i].ReviewerID == reviewerID {
			entry = &snapshot[i]
			break
		}
	}
	if entry == nil {
		return nil, &apperrors.UnknownReviewerError{RequestID: requestID.Hex(), ReviewerID: reviewerID.Hex()}
	}
	if entry.Status != common_models.StatusPending {
		return nil, &apperrors.AlreadyDecidedError{RequestID: requestID.Hex(), ReviewerID: reviewerID.Hex()}
	}

	if s.config.StrictSequential {
		if pending := ledger.PendingApprover(snapshot); pending != nil && pending.ReviewerID != reviewerID {
			return nil, &apperrors.OutOfTurnError{
				RequestID:  requestID.Hex(),
				ReviewerID: reviewerID.Hex(),
				PendingID:  pending.ReviewerID.Hex(),
			}
		}
	}

	outcome := ledger.Outcome{
		Comment:        body.Comment,
		SignatureRef:   body.SignatureRef,
		AttachmentRefs: body.AttachmentRefs,
	}
	switch common_models.DecisionAction(body.Action) {
	case common_models.ActionApprove:
		outcome.Status = common_models.StatusApproved
	case common_models.ActionDisapprove:
		outcome.Status = common_models.StatusDisapproved
	default:
		return nil, fmt.Errorf("unknown action %q", body.Action)
	}

	// The conditional write is the real arbiter under concurrency; the
	// checks above only produce friendlier errors on the common path.
	decision, err := s.ledger.RecordDecision(ctx, requestID, req.Cycle, reviewerID, outcome)
	if err != nil {
		return nil, err
	}

	snapshot, err = s.ledger.Snapshot(ctx, requestID, req.Cycle)
	if err != nil {
		return nil, err
	}
	aggregate := ledger.Aggregate(snapshot)
	if err := s.repo.UpdateStatus(ctx, requestID, aggregate); err != nil {
		return nil, err
	}

	changes := map[string]common_models.Change{
		"status": {Old: string(req.Status), New: string(aggregate)},
		"decision": {
			Old: string(common_models.StatusPending),
			New: fmt.Sprintf("%s by %s", decision.Status, reviewerID.Hex()),
		},
	}
	if err := s.audit.LogChange(ctx, common_models.AuditActionDecision, "request", requestID.Hex(), changes); err != nil {
		s.log.Warn("audit write failed", zap.String("request_id", requestID.Hex()), zap.Error(err))
	}

	s.notifyDecision(req, decision, snapshot, aggregate)

	view := &StatusView{
		RequestID: requestID,
		Status:    aggregate,
		Cycle:     req.Cycle,
		Decisions: snapshot,
	}
	if !aggregate.Terminal() {
		view.PendingApprover = ledger.PendingApprover(snapshot)
	}
	return view, nil
}

func (s *RequestServiceImpl) GetStatus(ctx context.Context, requestID primitive.ObjectID) (*StatusView, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &apperrors.NotFoundError{Resource: "request", ID: requestID.Hex()}
	}

	snapshot, err := s.ledger.Snapshot(ctx, requestID, req.Cycle)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		RequestID: requestID,
		Status:    req.Status,
		Cycle:     req.Cycle,
		Decisions: snapshot,
	}
	if !req.Status.Terminal() {
		view.PendingApprover = ledger.PendingApprover(snapshot)
	}
	return view, nil
}

// EditChain replaces the chain and bumps the cycle. Entries of the old
// cycle stay in the ledger untouched; the new cycle starts from a
// clean pending slate.
func (s *RequestServiceImpl) EditChain(ctx context.Context, requestID, actorID primitive.ObjectID, spec ChainSpec) (*Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &apperrors.NotFoundError{Resource: "request", ID: requestID.Hex()}
	}
	if req.RequesterID != actorID {
		return nil, &apperrors.ForbiddenError{Reason: "only the requester may edit the chain"}
	}
	if req.Status != common_models.StatusPending && req.Status != common_models.StatusDisapproved {
		return nil, &apperrors.InvalidChainError{
			Reason: fmt.Sprintf("chain can only be edited while pending or disapproved, request is %s", req.Status),
		}
	}

	chain, err := s.resolver.Resolve(ctx, req.RequesterID, req.BranchID, req.Type, spec)
	if err != nil {
		return nil, err
	}

	req.Chain = *chain
	req.Cycle++
	req.Status = common_models.StatusPending
	if err := s.repo.ReplaceChain(ctx, requestID, *chain, req.Cycle); err != nil {
		return nil, err
	}
	if err := s.ledger.Materialize(ctx, materializeChain(req)); err != nil {
		return nil, err
	}

	changes := map[string]common_models.Change{
		"cycle": {Old: req.Cycle - 1, New: req.Cycle},
	}
	if err := s.audit.LogChange(ctx, common_models.AuditActionChainEdit, "request", requestID.Hex(), changes); err != nil {
		s.log.Warn("audit write failed", zap.String("request_id", requestID.Hex()), zap.Error(err))
	}

	if first := firstMember(*chain); !first.IsZero() {
		s.notifyAsync(first, "Approval requested",
			fmt.Sprintf("Request %q is waiting for your decision", req.Title),
			notification.NotificationTypeTurn, requestLink(req.ID))
	}

	return req, nil
}

// MarkCompleted is the fulfillment hook: only an approved request can
// be closed out as completed.
func (s *RequestServiceImpl) MarkCompleted(ctx context.Context, requestID, actorID primitive.ObjectID) (*Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &apperrors.NotFoundError{Resource: "request", ID: requestID.Hex()}
	}
	if req.RequesterID != actorID {
		return nil, &apperrors.ForbiddenError{Reason: "only the requester may complete the request"}
	}
	if req.Status != common_models.StatusApproved {
		return nil, &apperrors.RequestClosedError{RequestID: requestID.Hex(), Status: string(req.Status)}
	}

	if err := s.repo.MarkCompleted(ctx, requestID); err != nil {
		return nil, err
	}
	req.Status = common_models.StatusCompleted

	changes := map[string]common_models.Change{
		"status": {Old: string(common_models.StatusApproved), New: string(common_models.StatusCompleted)},
	}
	if err := s.audit.LogChange(ctx, common_models.AuditActionComplete, "request", requestID.Hex(), changes); err != nil {
		s.log.Warn("audit write failed", zap.String("request_id", requestID.Hex()), zap.Error(err))
	}

	return req, nil
}

func (s *RequestServiceImpl) ListByRequester(ctx context.Context, requesterID primitive.ObjectID, page, limit int64) ([]Request, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.repo.ListByRequester(ctx, requesterID, page, limit)
}

// ReviewerQueue lists open requests where the reviewer holds a pending
// entry in the current cycle.
func (s *RequestServiceImpl) ReviewerQueue(ctx context.Context, reviewerID primitive.ObjectID) ([]Request, error) {
	pending, err := s.ledger.PendingForReviewer(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	cycleByRequest := make(map[primitive.ObjectID]int, len(pending))
	ids := make([]primitive.ObjectID, 0, len(pending))
	for _, d := range pending {
		if _, ok := cycleByRequest[d.RequestID]; !ok {
			ids = append(ids, d.RequestID)
		}
		if d.Cycle > cycleByRequest[d.RequestID] {
			cycleByRequest[d.RequestID] = d.Cycle
		}
	}

	requests, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	queue := make([]Request, 0, len(requests))
	for _, req := range requests {
		if req.Status.Terminal() {
			continue
		}
		if cycleByRequest[req.ID] != req.Cycle {
			continue // stale entry from a replaced chain
		}
		queue = append(queue, req)
	}
	return queue, nil
}

// RemindPending re-notifies the pending approver of every open request
// untouched for longer than maxAge. Returns how many reminders went out.
func (s *RequestServiceImpl) RemindPending(ctx context.Context, maxAge time.Duration) (int, error) {
	stale, err := s.repo.ListStale(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, req := range stale {
		snapshot, err := s.ledger.Snapshot(ctx, req.ID, req.Cycle)
		if err != nil {
			s.log.Warn("reminder snapshot failed", zap.String("request_id", req.ID.Hex()), zap.Error(err))
			continue
		}
		pending := ledger.PendingApprover(snapshot)
		if pending == nil {
			continue
		}
		s.notifyAsync(pending.ReviewerID, "Reminder: approval pending",
			fmt.Sprintf("Request %q is still waiting for your decision", req.Title),
			notification.NotificationTypeReminder, requestLink(req.ID))
		sent++
	}

	if sent > 0 {
		if err := s.audit.LogChange(ctx, common_models.AuditActionReminder, "request", "", map[string]common_models.Change{
			"reminders": {Old: 0, New: sent},
		}); err != nil {
			s.log.Warn("audit write failed", zap.Error(err))
		}
	}
	return sent, nil
}

func (s *RequestServiceImpl) notifyDecision(req *Request, decision *ledger.Decision, snapshot []ledger.Decision, aggregate common_models.ApprovalStatus) {
	verb := "approved"
	notifType := notification.NotificationTypeDecision
	if decision.Status == common_models.StatusDisapproved {
		verb = "disapproved"
	}

	title := fmt.Sprintf("Request %s", verb)
	msg := fmt.Sprintf("Request %q was %s by a reviewer", req.Title, verb)
	switch aggregate {
	case common_models.StatusApproved:
		title = "Request fully approved"
		msg = fmt.Sprintf("Request %q has been approved by the full chain", req.Title)
	case common_models.StatusDisapproved:
		title = "Request disapproved"
	}
	s.notifyAsync(req.RequesterID, title, msg, notifType, requestLink(req.ID))

	if !aggregate.Terminal() {
		if next := ledger.PendingApprover(snapshot); next != nil {
			s.notifyAsync(next.ReviewerID, "Your decision is requested",
				fmt.Sprintf("Request %q is now waiting on you", req.Title),
				notification.NotificationTypeTurn, requestLink(req.ID))
		}
	}
}

func (s *RequestServiceImpl) notifyAsync(userID primitive.ObjectID, title, message string, notifType notification.NotificationType, link string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, userID, title, message, notifType, link); err != nil {
			s.log.Warn("notification dispatch failed",
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
		}
	}()
}

// materializeChain builds the pending ledger entries for the request's
// current chain and cycle.
func materializeChain(req *Request) []ledger.Decision {
	decisions := make([]ledger.Decision, 0, len(req.Chain.NotedBy)+len(req.Chain.ApprovedBy))
	for i, id := range req.Chain.NotedBy {
		decisions = append(decisions, ledger.Decision{
			RequestID:  req.ID,
			ReviewerID: id,
			Cycle:      req.Cycle,
			Category:   common_models.CategoryNotedBy,
			Ordinal:    i + 1,
		})
	}
	for i, id := range req.Chain.ApprovedBy {
		decisions = append(decisions, ledger.Decision{
			RequestID:  req.ID,
			ReviewerID: id,
			Cycle:      req.Cycle,
			Category:   common_models.CategoryApprovedBy,
			Ordinal:    i + 1,
		})
	}
	return decisions
}

func firstMember(c Chain) primitive.ObjectID {
	if len(c.NotedBy) > 0 {
		return c.NotedBy[0]
	}
	if len(c.ApprovedBy) > 0 {
		return c.ApprovedBy[0]
	}
	return primitive.NilObjectID
}

func requestLink(id primitive.ObjectID) string {
	return fmt.Sprintf("/requests/%s", id.Hex())
}
