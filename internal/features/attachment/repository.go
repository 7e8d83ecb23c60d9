package attachment

import (
	"context"
	"time"

	"go-approvals/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AttachmentRepository interface {
	Save(ctx context.Context, att *Attachment) error
	FindByRef(ctx context.Context, ref string) (*Attachment, error)
	Delete(ctx context.Context, ref string) error
}

type AttachmentRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewAttachmentRepository(mongodb *database.MongodbDB) AttachmentRepository {
	return &AttachmentRepositoryImpl{
		Collection: mongodb.DB.Collection("attachments"),
	}
}

func (r *AttachmentRepositoryImpl) Save(ctx context.Context, att *Attachment) error {
	if att.ID.IsZero() {
		att.ID = primitive.NewObjectID()
	}
	att.CreatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, att)
	return err
}

func (r *AttachmentRepositoryImpl) FindByRef(ctx context.Context, ref string) (*Attachment, error) {
	var att Attachment
	if err := r.Collection.FindOne(ctx, bson.M{"ref": ref}).Decode(&att); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &att, nil
}

func (r *AttachmentRepositoryImpl) Delete(ctx context.Context, ref string) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"ref": ref})
	return err
}
