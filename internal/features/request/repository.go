package request

import (
	"context"
	"time"

	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RequestRepository interface {
	Create(ctx context.Context, req *Request) (*Request, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Request, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Request, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status common_models.ApprovalStatus) error
	ReplaceChain(ctx context.Context, id primitive.ObjectID, chain Chain, cycle int) error
	MarkCompleted(ctx context.Context, id primitive.ObjectID) error
	ListByRequester(ctx context.Context, requesterID primitive.ObjectID, page, limit int64) ([]Request, int64, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]Request, error)
	EnsureIndexes(ctx context.Context) error
}

type RequestRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRequestRepository(mongodb *database.MongodbDB) RequestRepository {
	return &RequestRepositoryImpl{
		Collection: mongodb.DB.Collection("requests"),
	}
}

func (r *RequestRepositoryImpl) Create(ctx context.Context, req *Request) (*Request, error) {
	req.ID = primitive.NewObjectID()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt

	_, err := r.Collection.InsertOne(ctx, req)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *RequestRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Request, error) {
	var req Request
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepositoryImpl) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Request, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []Request
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *RequestRepositoryImpl) UpdateStatus(ctx context.Context, id primitive.ObjectID, status common_models.ApprovalStatus) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	})
	return err
}

// ReplaceChain swaps in a new chain under a bumped cycle and resets
// the cached aggregate to pending.
func (r *RequestRepositoryImpl) ReplaceChain(ctx context.Context, id primitive.ObjectID, chain Chain, cycle int) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"chain":      chain,
			"cycle":      cycle,
			"status":     common_models.StatusPending,
			"updated_at": time.Now(),
		},
	})
	return err
}

func (r *RequestRepositoryImpl) MarkCompleted(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":       common_models.StatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		},
	})
	return err
}

func (r *RequestRepositoryImpl) ListByRequester(ctx context.Context, requesterID primitive.ObjectID, page, limit int64) ([]Request, int64, error) {
	filter := bson.M{"requester_id": requesterID}

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var requests []Request
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// ListStale returns open requests untouched since the cutoff; the
// reminder sweep re-notifies their pending approver.
func (r *RequestRepositoryImpl) ListStale(ctx context.Context, cutoff time.Time) ([]Request, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{
		"status":     bson.M{"$in": []common_models.ApprovalStatus{common_models.StatusPending, common_models.StatusOngoing}},
		"updated_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []Request
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *RequestRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}}},
	})
	return err
}
