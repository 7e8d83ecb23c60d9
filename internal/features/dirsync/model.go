package dirsync

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncSetting points at the HR Postgres instance that owns the
// reviewer directory. The queries are configurable so a deployment can
// map whatever schema HR exposes; the column aliases in the defaults
// are the contract.
type SyncSetting struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	SourceDBConfig map[string]string  `json:"source_db_config" bson:"source_db_config"` // host, port, user, password, database
	BranchQuery    string             `json:"branch_query" bson:"branch_query"`
	UserQuery      string             `json:"user_query" bson:"user_query"`
	LastSyncAt     time.Time          `json:"last_sync_at" bson:"last_sync_at"`
	IsActive       bool               `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

const (
	// Default pulls; aliases must match the scanner in service.go.
	DefaultBranchQuery = `SELECT code, name, area_manager_username FROM branches WHERE active = true`
	DefaultUserQuery   = `SELECT username, email, first_name, last_name, position, branch_code, is_approver, is_head_office FROM employees WHERE active = true`
)

type SyncLog struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SyncSettingID  primitive.ObjectID `json:"sync_setting_id" bson:"sync_setting_id"`
	StartTime      time.Time          `json:"start_time" bson:"start_time"`
	EndTime        time.Time          `json:"end_time" bson:"end_time"`
	Status         string             `json:"status" bson:"status"` // success, failed, in_progress
	BranchCount    int                `json:"branch_count" bson:"branch_count"`
	UserCount      int                `json:"user_count" bson:"user_count"`
	Error          string             `json:"error,omitempty" bson:"error,omitempty"`
}
