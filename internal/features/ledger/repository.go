package ledger

import (
	"context"
	"sort"
	"time"

	"go-approvals/internal/common/apperrors"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LedgerRepository interface {
	// Materialize inserts one pending entry per chain member.
	Materialize(ctx context.Context, decisions []Decision) error

	// RecordDecision transitions a single entry from pending to a
	// terminal status. The update is a conditional single-document
	// write: concurrent attempts on the same entry have exactly one
	// winner, the loser gets AlreadyDecidedError.
	RecordDecision(ctx context.Context, requestID primitive.ObjectID, cycle int, reviewerID primitive.ObjectID, outcome Outcome) (*Decision, error)

	// Snapshot returns all decisions of a request's cycle in chain
	// order (noted_by ordinals first, then approved_by ordinals).
	Snapshot(ctx context.Context, requestID primitive.ObjectID, cycle int) ([]Decision, error)

	// History returns every decision ever recorded for a request,
	// across all cycles, oldest cycle first. Used by audit/export.
	History(ctx context.Context, requestID primitive.ObjectID) ([]Decision, error)

	// PendingForReviewer returns the reviewer's pending entries across
	// all requests. Callers must still filter to the current cycle of
	// each request.
	PendingForReviewer(ctx context.Context, reviewerID primitive.ObjectID) ([]Decision, error)

	EnsureIndexes(ctx context.Context) error
}

type LedgerRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewLedgerRepository(mongodb *database.MongodbDB) LedgerRepository {
	return &LedgerRepositoryImpl{
		Collection: mongodb.DB.Collection("decisions"),
	}
}

func (r *LedgerRepositoryImpl) Materialize(ctx context.Context, decisions []Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(decisions))
	now := time.Now()
	for i := range decisions {
		if decisions[i].ID.IsZero() {
			decisions[i].ID = primitive.NewObjectID()
		}
		decisions[i].Status = common_models.StatusPending
		decisions[i].CreatedAt = now
		docs = append(docs, decisions[i])
	}
	_, err := r.Collection.InsertMany(ctx, docs)
	return err
}

func (r *LedgerRepositoryImpl) RecordDecision(ctx context.Context, requestID primitive.ObjectID, cycle int, reviewerID primitive.ObjectID, outcome Outcome) (*Decision, error) {
	now := time.Now()
	filter := bson.M{
		"request_id":  requestID,
		"cycle":       cycle,
		"reviewer_id": reviewerID,
		"status":      common_models.StatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status":          outcome.Status,
			"comment":         outcome.Comment,
			"signature_ref":   outcome.SignatureRef,
			"attachment_refs": outcome.AttachmentRefs,
			"decided_at":      now,
		},
	}

	res, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		// Either the entry is not in the chain at all, or it already
		// left pending (double submit or lost race).
		count, err := r.Collection.CountDocuments(ctx, bson.M{
			"request_id":  requestID,
			"cycle":       cycle,
			"reviewer_id": reviewerID,
		})
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, &apperrors.UnknownReviewerError{RequestID: requestID.Hex(), ReviewerID: reviewerID.Hex()}
		}
		return nil, &apperrors.AlreadyDecidedError{RequestID: requestID.Hex(), ReviewerID: reviewerID.Hex()}
	}

	var decision Decision
	if err := r.Collection.FindOne(ctx, bson.M{
		"request_id":  requestID,
		"cycle":       cycle,
		"reviewer_id": reviewerID,
	}).Decode(&decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

func (r *LedgerRepositoryImpl) Snapshot(ctx context.Context, requestID primitive.ObjectID, cycle int) ([]Decision, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"request_id": requestID, "cycle": cycle})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var decisions []Decision
	if err = cursor.All(ctx, &decisions); err != nil {
		return nil, err
	}
	SortChainOrder(decisions)
	return decisions, nil
}

func (r *LedgerRepositoryImpl) History(ctx context.Context, requestID primitive.ObjectID) ([]Decision, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"request_id": requestID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var decisions []Decision
	if err = cursor.All(ctx, &decisions); err != nil {
		return nil, err
	}
	// Oldest cycle first, chain order within a cycle
	byCycle := map[int][]Decision{}
	cycles := []int{}
	for _, d := range decisions {
		if _, ok := byCycle[d.Cycle]; !ok {
			cycles = append(cycles, d.Cycle)
		}
		byCycle[d.Cycle] = append(byCycle[d.Cycle], d)
	}
	sort.Ints(cycles)
	out := make([]Decision, 0, len(decisions))
	for _, c := range cycles {
		ds := byCycle[c]
		SortChainOrder(ds)
		out = append(out, ds...)
	}
	return out, nil
}

func (r *LedgerRepositoryImpl) PendingForReviewer(ctx context.Context, reviewerID primitive.ObjectID) ([]Decision, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{
		"reviewer_id": reviewerID,
		"status":      common_models.StatusPending,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var decisions []Decision
	if err = cursor.All(ctx, &decisions); err != nil {
		return nil, err
	}
	return decisions, nil
}

func (r *LedgerRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "request_id", Value: 1},
			{Key: "cycle", Value: 1},
			{Key: "reviewer_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}
