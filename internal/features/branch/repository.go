package branch

import (
	"context"
	"time"

	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BranchRepository interface {
	Create(ctx context.Context, branch *Branch) error
	FindByID(ctx context.Context, id string) (*Branch, error)
	FindByCode(ctx context.Context, code string) (*Branch, error)
	List(ctx context.Context) ([]Branch, error)
	Update(ctx context.Context, id string, branch *Branch) error
	Delete(ctx context.Context, id string) error
	Upsert(ctx context.Context, branch *Branch) error
}

type BranchRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewBranchRepository(mongodb *database.MongodbDB) BranchRepository {
	return &BranchRepositoryImpl{
		Collection: mongodb.DB.Collection("branches"),
	}
}

func (r *BranchRepositoryImpl) Create(ctx context.Context, branch *Branch) error {
	if branch.ID.IsZero() {
		branch.ID = primitive.NewObjectID()
	}
	now := time.Now()
	branch.CreatedAt = now
	branch.UpdatedAt = now
	_, err := r.Collection.InsertOne(ctx, branch)
	return err
}

func (r *BranchRepositoryImpl) FindByID(ctx context.Context, id string) (*Branch, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var branch Branch
	if err := r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&branch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &branch, nil
}

func (r *BranchRepositoryImpl) FindByCode(ctx context.Context, code string) (*Branch, error) {
	var branch Branch
	if err := r.Collection.FindOne(ctx, bson.M{"code": code}).Decode(&branch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &branch, nil
}

func (r *BranchRepositoryImpl) List(ctx context.Context) ([]Branch, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var branches []Branch
	if err = cursor.All(ctx, &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *BranchRepositoryImpl) Update(ctx context.Context, id string, branch *Branch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"name":            branch.Name,
		"code":            branch.Code,
		"area_manager_id": branch.AreaManagerID,
		"status":          branch.Status,
		"updated_at":      time.Now(),
	}}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *BranchRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// Upsert matches on code; used by the directory sync.
func (r *BranchRepositoryImpl) Upsert(ctx context.Context, branch *Branch) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":            branch.Name,
			"area_manager_id": branch.AreaManagerID,
			"status":          branch.Status,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{
			"code":       branch.Code,
			"created_at": now,
		},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"code": branch.Code}, update, options.Update().SetUpsert(true))
	return err
}
