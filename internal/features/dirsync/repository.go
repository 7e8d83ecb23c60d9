package dirsync

import (
	"context"
	"time"

	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SyncSettingRepository interface {
	Create(ctx context.Context, setting *SyncSetting) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*SyncSetting, error)
	List(ctx context.Context) ([]SyncSetting, error)
	Update(ctx context.Context, id primitive.ObjectID, setting *SyncSetting) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	TouchLastSync(ctx context.Context, id primitive.ObjectID) error
}

type SyncSettingRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSyncSettingRepository(db *database.MongodbDB) SyncSettingRepository {
	return &SyncSettingRepositoryImpl{
		collection: db.DB.Collection("sync_settings"),
	}
}

func (r *SyncSettingRepositoryImpl) Create(ctx context.Context, setting *SyncSetting) error {
	setting.ID = primitive.NewObjectID()
	now := time.Now()
	setting.CreatedAt = now
	setting.UpdatedAt = now
	if setting.BranchQuery == "" {
		setting.BranchQuery = DefaultBranchQuery
	}
	if setting.UserQuery == "" {
		setting.UserQuery = DefaultUserQuery
	}
	_, err := r.collection.InsertOne(ctx, setting)
	return err
}

func (r *SyncSettingRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*SyncSetting, error) {
	var setting SyncSetting
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&setting)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *SyncSettingRepositoryImpl) List(ctx context.Context) ([]SyncSetting, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var settings []SyncSetting
	if err := cursor.All(ctx, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *SyncSettingRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, setting *SyncSetting) error {
	setting.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":             setting.Name,
		"source_db_config": setting.SourceDBConfig,
		"branch_query":     setting.BranchQuery,
		"user_query":       setting.UserQuery,
		"is_active":        setting.IsActive,
		"updated_at":       setting.UpdatedAt,
	}})
	return err
}

func (r *SyncSettingRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *SyncSettingRepositoryImpl) TouchLastSync(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_sync_at": time.Now(),
	}})
	return err
}

type SyncLogRepository interface {
	Create(ctx context.Context, log *SyncLog) error
	Update(ctx context.Context, log *SyncLog) error
	ListBySetting(ctx context.Context, settingID primitive.ObjectID, limit int64) ([]SyncLog, error)
}

type SyncLogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSyncLogRepository(db *database.MongodbDB) SyncLogRepository {
	return &SyncLogRepositoryImpl{
		collection: db.DB.Collection("sync_logs"),
	}
}

func (r *SyncLogRepositoryImpl) Create(ctx context.Context, log *SyncLog) error {
	log.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, log)
	return err
}

func (r *SyncLogRepositoryImpl) Update(ctx context.Context, log *SyncLog) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": log.ID}, bson.M{"$set": bson.M{
		"end_time":     log.EndTime,
		"status":       log.Status,
		"branch_count": log.BranchCount,
		"user_count":   log.UserCount,
		"error":        log.Error,
	}})
	return err
}

func (r *SyncLogRepositoryImpl) ListBySetting(ctx context.Context, settingID primitive.ObjectID, limit int64) ([]SyncLog, error) {
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"sync_setting_id": settingID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []SyncLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
