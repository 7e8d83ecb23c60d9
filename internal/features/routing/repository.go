package routing

import (
	"context"
	"time"

	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RoutingRuleRepository interface {
	Create(ctx context.Context, rule *RoutingRule) (*RoutingRule, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*RoutingRule, error)
	FindApplicable(ctx context.Context, branchID primitive.ObjectID, requestType string) ([]RoutingRule, error)
	List(ctx context.Context) ([]RoutingRule, error)
	Update(ctx context.Context, id primitive.ObjectID, rule *RoutingRule) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type RoutingRuleRepositoryImpl struct {
	collection *mongo.Collection
}

func NewRoutingRuleRepository(db *database.MongodbDB) RoutingRuleRepository {
	return &RoutingRuleRepositoryImpl{
		collection: db.DB.Collection("routing_rules"),
	}
}

func (r *RoutingRuleRepositoryImpl) Create(ctx context.Context, rule *RoutingRule) (*RoutingRule, error) {
	rule.ID = primitive.NewObjectID()
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, rule)
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *RoutingRuleRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*RoutingRule, error) {
	var rule RoutingRule
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rule)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindApplicable returns enabled rules matching the branch (or global
// rules) and the request type (or any-type rules), highest priority
// first.
func (r *RoutingRuleRepositoryImpl) FindApplicable(ctx context.Context, branchID primitive.ObjectID, requestType string) ([]RoutingRule, error) {
	filter := bson.M{
		"enabled": true,
		"$and": []bson.M{
			{"$or": []bson.M{
				{"branch_id": branchID},
				{"branch_id": primitive.NilObjectID},
				{"branch_id": bson.M{"$exists": false}},
			}},
			{"$or": []bson.M{
				{"request_type": requestType},
				{"request_type": ""},
				{"request_type": bson.M{"$exists": false}},
			}},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rules []RoutingRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RoutingRuleRepositoryImpl) List(ctx context.Context) ([]RoutingRule, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rules []RoutingRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RoutingRuleRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, rule *RoutingRule) error {
	rule.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"name":         rule.Name,
		"description":  rule.Description,
		"branch_id":    rule.BranchID,
		"request_type": rule.RequestType,
		"script":       rule.Script,
		"enabled":      rule.Enabled,
		"priority":     rule.Priority,
		"updated_at":   rule.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *RoutingRuleRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
