package attachment

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attachment is the metadata row for a stored blob. The engine only
// ever passes around the Ref; the payload behind it stays opaque.
type Attachment struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Ref              string             `json:"ref" bson:"ref"`
	OriginalFilename string             `json:"original_filename" bson:"original_filename"`
	URL              string             `json:"url" bson:"url"`
	Path             string             `json:"path" bson:"path"`
	Size             int64              `json:"size" bson:"size"`
	MimeType         string             `json:"mime_type" bson:"mime_type"`
	Kind             string             `json:"kind" bson:"kind"` // payload, signature, supporting
	UploadedBy       primitive.ObjectID `json:"uploaded_by" bson:"uploaded_by"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
}
