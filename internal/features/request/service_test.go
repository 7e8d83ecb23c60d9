package request

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-approvals/internal/common/apperrors"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/config"
	"go-approvals/internal/features/ledger"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/routing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- in-memory fakes ---

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[primitive.ObjectID]*Request)}
}

func (f *fakeRequestRepo) Create(ctx context.Context, req *Request) (*Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.ID = primitive.NewObjectID()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	clone := *req
	f.requests[req.ID] = &clone
	return req, nil
}

func (f *fakeRequestRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRequestRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Request
	for _, id := range ids {
		if req, ok := f.requests[id]; ok {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status common_models.ApprovalStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.requests[id]; ok {
		req.Status = status
		req.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeRequestRepo) ReplaceChain(ctx context.Context, id primitive.ObjectID, chain Chain, cycle int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.requests[id]; ok {
		req.Chain = chain
		req.Cycle = cycle
		req.Status = common_models.StatusPending
		req.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeRequestRepo) MarkCompleted(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.requests[id]; ok {
		now := time.Now()
		req.Status = common_models.StatusCompleted
		req.CompletedAt = &now
	}
	return nil
}

func (f *fakeRequestRepo) ListByRequester(ctx context.Context, requesterID primitive.ObjectID, page, limit int64) ([]Request, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Request
	for _, req := range f.requests {
		if req.RequesterID == requesterID {
			out = append(out, *req)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRequestRepo) ListStale(ctx context.Context, cutoff time.Time) ([]Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Request
	for _, req := range f.requests {
		if !req.Status.Terminal() && req.UpdatedAt.Before(cutoff) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) EnsureIndexes(ctx context.Context) error { return nil }

// fakeLedger mirrors the conditional-update semantics of the Mongo
// repository: a transition only lands on a pending entry.
type fakeLedger struct {
	mu        sync.Mutex
	decisions []ledger.Decision
}

func (f *fakeLedger) Materialize(ctx context.Context, ds []ledger.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for i := range ds {
		ds[i].ID = primitive.NewObjectID()
		ds[i].Status = common_models.StatusPending
		ds[i].CreatedAt = now
		f.decisions = append(f.decisions, ds[i])
	}
	return nil
}

func (f *fakeLedger) RecordDecision(ctx context.Context, requestID primitive.ObjectID, cycle int, reviewerID primitive.ObjectID, outcome ledger.Outcome) (*ledger.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for i := range f.decisions {
		d := &f.decisions[i]
		if d.RequestID != requestID || d.Cycle != cycle || d.ReviewerID != reviewerID {
			continue
		}
		found = true
		if d.Status != common_models.StatusPending {
			return nil, &apperrors.AlreadyDecidedError{RequestID: requestID.Hex(), ReviewerID: reviewerID.Hex()}
		}
		now := time.Now()
		d.Status = outcome.Status
		d.Comment = outcome.Comment
		d.SignatureRef = outcome.SignatureRef
		d.AttachmentRefs = outcome.AttachmentRefs
		d.DecidedAt = &now
		clone := *d
		return &clone, nil
	}
	if !found {
		return nil, &apperrors.UnknownReviewerError{RequestID: requestID.Hex(), ReviewerID: reviewerID.Hex()}
	}
	return nil, nil
}

func (f *fakeLedger) Snapshot(ctx context.Context, requestID primitive.ObjectID, cycle int) ([]ledger.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.Decision
	for _, d := range f.decisions {
		if d.RequestID == requestID && d.Cycle == cycle {
			out = append(out, d)
		}
	}
	ledger.SortChainOrder(out)
	return out, nil
}

func (f *fakeLedger) History(ctx context.Context, requestID primitive.ObjectID) ([]ledger.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.Decision
	for _, d := range f.decisions {
		if d.RequestID == requestID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeLedger) PendingForReviewer(ctx context.Context, reviewerID primitive.ObjectID) ([]ledger.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.Decision
	for _, d := range f.decisions {
		if d.ReviewerID == reviewerID && d.Status == common_models.StatusPending {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeLedger) EnsureIndexes(ctx context.Context) error { return nil }

type fakeAudit struct {
	mu      sync.Mutex
	actions []common_models.AuditAction
}

func (f *fakeAudit) LogChange(ctx context.Context, action common_models.AuditAction, module, recordID string, changes map[string]common_models.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeAudit) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

type sentNotification struct {
	UserID primitive.ObjectID
	Type   notification.NotificationType
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeDispatcher) Notify(ctx context.Context, userID primitive.ObjectID, title, message string, notifType notification.NotificationType, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{UserID: userID, Type: notifType})
	return nil
}

type fakeDirectory struct {
	branchApprovers map[primitive.ObjectID][]common_models.User
	areaManagers    map[primitive.ObjectID]*common_models.User
	headOffice      []common_models.User
}

func (f *fakeDirectory) ApproversForBranch(ctx context.Context, branchID primitive.ObjectID) ([]common_models.User, error) {
	return f.branchApprovers[branchID], nil
}

func (f *fakeDirectory) AreaManagerFor(ctx context.Context, branchID primitive.ObjectID) (*common_models.User, error) {
	return f.areaManagers[branchID], nil
}

func (f *fakeDirectory) HeadOfficeApprovers(ctx context.Context) ([]common_models.User, error) {
	return f.headOffice, nil
}

type fakeReviewerFinder struct {
	users map[string]common_models.User
}

func (f *fakeReviewerFinder) FindByIDs(ctx context.Context, ids []string) ([]common_models.User, error) {
	var out []common_models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeRules struct {
	extras []primitive.ObjectID
	err    error
}

func (f *fakeRules) ExtraApprovers(ctx context.Context, input routing.ChainInput) ([]primitive.ObjectID, error) {
	return f.extras, f.err
}

// --- test harness ---

type harness struct {
	service    RequestService
	repo       *fakeRequestRepo
	ledger     *fakeLedger
	audit      *fakeAudit
	dispatcher *fakeDispatcher
	config     *config.Config

	requester primitive.ObjectID
	branch    primitive.ObjectID
	noter1    primitive.ObjectID
	noter2    primitive.ObjectID
	manager   primitive.ObjectID
	headOff   primitive.ObjectID
}

func activeUser(id primitive.ObjectID, branch primitive.ObjectID) common_models.User {
	return common_models.User{ID: id, BranchID: branch, Approver: true, Status: "active"}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:       newFakeRequestRepo(),
		ledger:     &fakeLedger{},
		audit:      &fakeAudit{},
		dispatcher: &fakeDispatcher{},
		config:     &config.Config{StrictSequential: true},
		requester:  primitive.NewObjectID(),
		branch:     primitive.NewObjectID(),
		noter1:     primitive.NewObjectID(),
		noter2:     primitive.NewObjectID(),
		manager:    primitive.NewObjectID(),
		headOff:    primitive.NewObjectID(),
	}

	manager := activeUser(h.manager, h.branch)
	directory := &fakeDirectory{
		branchApprovers: map[primitive.ObjectID][]common_models.User{
			h.branch: {activeUser(h.noter1, h.branch), activeUser(h.noter2, h.branch)},
		},
		areaManagers: map[primitive.ObjectID]*common_models.User{h.branch: &manager},
		headOffice:   []common_models.User{{ID: h.headOff, Approver: true, HeadOffice: true, Status: "active"}},
	}
	finder := &fakeReviewerFinder{users: map[string]common_models.User{
		h.noter1.Hex():  activeUser(h.noter1, h.branch),
		h.noter2.Hex():  activeUser(h.noter2, h.branch),
		h.manager.Hex(): manager,
		h.headOff.Hex(): {ID: h.headOff, Approver: true, HeadOffice: true, Status: "active"},
	}}

	resolver := NewChainResolver(directory, finder, &fakeRules{})
	h.service = NewRequestService(h.repo, h.ledger, resolver, finder, h.audit, h.dispatcher, h.config, zap.NewNop())
	return h
}

func (h *harness) create(t *testing.T) *Request {
	t.Helper()
	req, err := h.service.CreateRequest(context.Background(), h.requester, h.branch, CreateRequestBody{
		Type:       "cash_advance",
		Title:      "Advance for site visit",
		PayloadRef: "ref-123",
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	return req
}

func (h *harness) approve(t *testing.T, reqID, reviewer primitive.ObjectID) *StatusView {
	t.Helper()
	view, err := h.service.SubmitDecision(context.Background(), reqID, reviewer, DecisionBody{Action: "approve"})
	if err != nil {
		t.Fatalf("approve by %s: %v", reviewer.Hex(), err)
	}
	return view
}

// --- scenario tests ---

func TestFullApprovalPath(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	if req.Status != common_models.StatusPending {
		t.Fatalf("new request status = %s, want pending", req.Status)
	}
	wantChain := []primitive.ObjectID{h.noter1, h.noter2, h.manager, h.headOff}
	if got := req.Chain.Members(); len(got) != len(wantChain) {
		t.Fatalf("chain members = %d, want %d", len(got), len(wantChain))
	}

	view := h.approve(t, req.ID, h.noter1)
	if view.Status != common_models.StatusOngoing {
		t.Fatalf("after first approval status = %s, want ongoing", view.Status)
	}
	if view.PendingApprover == nil || view.PendingApprover.ReviewerID != h.noter2 {
		t.Fatalf("pending approver should advance to second noter")
	}

	h.approve(t, req.ID, h.noter2)
	h.approve(t, req.ID, h.manager)
	view = h.approve(t, req.ID, h.headOff)

	if view.Status != common_models.StatusApproved {
		t.Fatalf("final status = %s, want approved", view.Status)
	}
	if view.PendingApprover != nil {
		t.Fatal("approved request must have no pending approver")
	}
}

func TestDisapprovalShortCircuits(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	h.approve(t, req.ID, h.noter1)

	view, err := h.service.SubmitDecision(context.Background(), req.ID, h.noter2, DecisionBody{
		Action:  "disapprove",
		Comment: "missing receipts",
	})
	if err != nil {
		t.Fatalf("disapprove: %v", err)
	}
	if view.Status != common_models.StatusDisapproved {
		t.Fatalf("status = %s, want disapproved", view.Status)
	}
	if view.PendingApprover != nil {
		t.Fatal("disapproved request must have no pending approver")
	}

	// Later reviewers are shut out even though their entries stay
	// pending in the ledger for audit.
	_, err = h.service.SubmitDecision(context.Background(), req.ID, h.manager, DecisionBody{Action: "approve"})
	var closed *apperrors.RequestClosedError
	if !errors.As(err, &closed) {
		t.Fatalf("submit after disapproval: got %v, want RequestClosedError", err)
	}

	snapshot, _ := h.ledger.Snapshot(context.Background(), req.ID, 1)
	for _, d := range snapshot {
		if d.ReviewerID == h.manager && d.Status != common_models.StatusPending {
			t.Fatal("untouched entries must remain pending after short-circuit")
		}
	}
}

func TestOutOfTurnRejected(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	_, err := h.service.SubmitDecision(context.Background(), req.ID, h.manager, DecisionBody{Action: "approve"})
	var outOfTurn *apperrors.OutOfTurnError
	if !errors.As(err, &outOfTurn) {
		t.Fatalf("got %v, want OutOfTurnError", err)
	}
	if outOfTurn.PendingID != h.noter1.Hex() {
		t.Fatalf("out-of-turn error should name the first noter, got %s", outOfTurn.PendingID)
	}

	// With strict enforcement off the same submission is accepted.
	h.config.StrictSequential = false
	view := h.approve(t, req.ID, h.manager)
	if view.Status != common_models.StatusOngoing {
		t.Fatalf("status = %s, want ongoing", view.Status)
	}
	// The display answer still points at the earliest pending slot.
	if view.PendingApprover == nil || view.PendingApprover.ReviewerID != h.noter1 {
		t.Fatal("pending approver must remain the earliest pending entry")
	}
}

func TestDoubleSubmitIsIdempotentError(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	h.approve(t, req.ID, h.noter1)

	_, err := h.service.SubmitDecision(context.Background(), req.ID, h.noter1, DecisionBody{Action: "approve"})
	var decided *apperrors.AlreadyDecidedError
	if !errors.As(err, &decided) {
		t.Fatalf("got %v, want AlreadyDecidedError", err)
	}

	snapshot, _ := h.ledger.Snapshot(context.Background(), req.ID, 1)
	approved := 0
	for _, d := range snapshot {
		if d.Status == common_models.StatusApproved {
			approved++
		}
	}
	if approved != 1 {
		t.Fatalf("ledger has %d approved entries, want 1", approved)
	}
}

func TestUnknownReviewerRejected(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	stranger := primitive.NewObjectID()
	_, err := h.service.SubmitDecision(context.Background(), req.ID, stranger, DecisionBody{Action: "approve"})
	var unknown *apperrors.UnknownReviewerError
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want UnknownReviewerError", err)
	}
}

func TestSubmitOnMissingRequest(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.SubmitDecision(context.Background(), primitive.NewObjectID(), h.noter1, DecisionBody{Action: "approve"})
	var notFound *apperrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestEditChainStartsFreshCycle(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	h.approve(t, req.ID, h.noter1)
	if _, err := h.service.SubmitDecision(context.Background(), req.ID, h.noter2, DecisionBody{Action: "disapprove"}); err != nil {
		t.Fatalf("disapprove: %v", err)
	}

	replacement := primitive.NewObjectID()
	h.service.(*RequestServiceImpl).reviewers.(*fakeReviewerFinder).users[replacement.Hex()] = activeUser(replacement, h.branch)

	updated, err := h.service.EditChain(context.Background(), req.ID, h.requester, ChainSpec{
		Mode:       ChainModeCustom,
		NotedBy:    []string{h.noter1.Hex()},
		ApprovedBy: []string{replacement.Hex()},
	})
	if err != nil {
		t.Fatalf("EditChain: %v", err)
	}
	if updated.Cycle != 2 {
		t.Fatalf("cycle = %d, want 2", updated.Cycle)
	}
	if updated.Status != common_models.StatusPending {
		t.Fatalf("status after edit = %s, want pending", updated.Status)
	}

	// Old cycle's entries survive for audit.
	history, _ := h.ledger.History(context.Background(), req.ID)
	oldCycle := 0
	for _, d := range history {
		if d.Cycle == 1 {
			oldCycle++
		}
	}
	if oldCycle == 0 {
		t.Fatal("entries of the replaced chain must be retained")
	}

	// The disapproval from cycle 1 no longer poisons the aggregate.
	h.approve(t, req.ID, h.noter1)
	view := h.approve(t, req.ID, replacement)
	if view.Status != common_models.StatusApproved {
		t.Fatalf("status = %s, want approved after fresh cycle", view.Status)
	}
}

func TestEditChainGuards(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	t.Run("Only Requester", func(t *testing.T) {
		_, err := h.service.EditChain(context.Background(), req.ID, h.noter1, ChainSpec{Mode: ChainModeDefault})
		var forbidden *apperrors.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Fatalf("got %v, want ForbiddenError", err)
		}
	})

	t.Run("Locked Once Ongoing", func(t *testing.T) {
		h.approve(t, req.ID, h.noter1)
		_, err := h.service.EditChain(context.Background(), req.ID, h.requester, ChainSpec{Mode: ChainModeDefault})
		var invalid *apperrors.InvalidChainError
		if !errors.As(err, &invalid) {
			t.Fatalf("got %v, want InvalidChainError", err)
		}
	})
}

func TestCompleteRequiresApproved(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	_, err := h.service.MarkCompleted(context.Background(), req.ID, h.requester)
	var closed *apperrors.RequestClosedError
	if !errors.As(err, &closed) {
		t.Fatalf("complete on pending: got %v, want RequestClosedError", err)
	}

	for _, reviewer := range []primitive.ObjectID{h.noter1, h.noter2, h.manager, h.headOff} {
		h.approve(t, req.ID, reviewer)
	}

	done, err := h.service.MarkCompleted(context.Background(), req.ID, h.requester)
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if done.Status != common_models.StatusCompleted {
		t.Fatalf("status = %s, want completed", done.Status)
	}

	// Completed requests accept nothing further.
	_, err = h.service.SubmitDecision(context.Background(), req.ID, h.noter1, DecisionBody{Action: "approve"})
	if !errors.As(err, &closed) {
		t.Fatalf("submit on completed: got %v, want RequestClosedError", err)
	}
}

func TestReviewerQueueTracksCurrentCycle(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	queue, err := h.service.ReviewerQueue(context.Background(), h.noter2)
	if err != nil {
		t.Fatalf("ReviewerQueue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != req.ID {
		t.Fatalf("queue = %v, want the open request", queue)
	}

	// Replace the chain without noter2; their stale pending entry must
	// not surface the request anymore.
	replacement := primitive.NewObjectID()
	h.service.(*RequestServiceImpl).reviewers.(*fakeReviewerFinder).users[replacement.Hex()] = activeUser(replacement, h.branch)
	if _, err := h.service.EditChain(context.Background(), req.ID, h.requester, ChainSpec{
		Mode:       ChainModeCustom,
		ApprovedBy: []string{replacement.Hex()},
	}); err != nil {
		t.Fatalf("EditChain: %v", err)
	}

	queue, err = h.service.ReviewerQueue(context.Background(), h.noter2)
	if err != nil {
		t.Fatalf("ReviewerQueue: %v", err)
	}
	if len(queue) != 0 {
		t.Fatalf("queue after chain edit = %v, want empty", queue)
	}
}

func TestGetStatusMatchesLedger(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	h.approve(t, req.ID, h.noter1)

	view, err := h.service.GetStatus(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if view.Status != common_models.StatusOngoing {
		t.Fatalf("status = %s, want ongoing", view.Status)
	}
	if view.PendingApprover == nil || view.PendingApprover.ReviewerID != h.noter2 {
		t.Fatal("pending approver should be the second noter")
	}
	if len(view.Decisions) != 4 {
		t.Fatalf("decisions = %d, want 4", len(view.Decisions))
	}
}

func TestRemindPendingNotifiesStaleApprover(t *testing.T) {
	h := newHarness(t)
	req := h.create(t)

	// Age the request past the reminder cutoff.
	h.repo.mu.Lock()
	h.repo.requests[req.ID].UpdatedAt = time.Now().Add(-48 * time.Hour)
	h.repo.mu.Unlock()

	sent, err := h.service.RemindPending(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("RemindPending: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
}
