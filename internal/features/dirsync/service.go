package dirsync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/branch"
	"go-approvals/internal/features/user"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SyncService pulls branches and reviewers from the HR Postgres into
// the local directory. The engine only ever reads the local copy; a
// failed sync leaves the previous directory intact.
type SyncService interface {
	RunSync(ctx context.Context, settingID primitive.ObjectID) (*SyncLog, error)
	CreateSetting(ctx context.Context, setting *SyncSetting) error
	GetSetting(ctx context.Context, id primitive.ObjectID) (*SyncSetting, error)
	ListSettings(ctx context.Context) ([]SyncSetting, error)
	UpdateSetting(ctx context.Context, id primitive.ObjectID, setting *SyncSetting) error
	DeleteSetting(ctx context.Context, id primitive.ObjectID) error
	GetSyncLogs(ctx context.Context, settingID primitive.ObjectID, limit int64) ([]SyncLog, error)
}

type SyncServiceImpl struct {
	settings   SyncSettingRepository
	logs       SyncLogRepository
	userRepo   user.UserRepository
	branchRepo branch.BranchRepository
	audit      audit.AuditService
	log        *zap.Logger
}

func NewSyncService(
	settings SyncSettingRepository,
	logs SyncLogRepository,
	userRepo user.UserRepository,
	branchRepo branch.BranchRepository,
	auditService audit.AuditService,
	log *zap.Logger,
) SyncService {
	return &SyncServiceImpl{
		settings:   settings,
		logs:       logs,
		userRepo:   userRepo,
		branchRepo: branchRepo,
		audit:      auditService,
		log:        log,
	}
}

type branchRow struct {
	Code            string
	Name            string
	ManagerUsername sql.NullString
}

func (s *SyncServiceImpl) RunSync(ctx context.Context, settingID primitive.ObjectID) (*SyncLog, error) {
	setting, err := s.settings.FindByID(ctx, settingID)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, fmt.Errorf("sync setting %s not found", settingID.Hex())
	}
	if !setting.IsActive {
		return nil, fmt.Errorf("sync setting %s is inactive", settingID.Hex())
	}

	syncLog := &SyncLog{
		SyncSettingID: settingID,
		StartTime:     time.Now(),
		Status:        "in_progress",
	}
	if err := s.logs.Create(ctx, syncLog); err != nil {
		return nil, err
	}

	branchCount, userCount, runErr := s.pull(ctx, setting)

	syncLog.EndTime = time.Now()
	syncLog.BranchCount = branchCount
	syncLog.UserCount = userCount
	if runErr != nil {
		syncLog.Status = "failed"
		syncLog.Error = runErr.Error()
	} else {
		syncLog.Status = "success"
		if err := s.settings.TouchLastSync(ctx, settingID); err != nil {
			s.log.Warn("failed to update last sync time", zap.Error(err))
		}
	}
	if err := s.logs.Update(ctx, syncLog); err != nil {
		s.log.Warn("failed to update sync log", zap.Error(err))
	}

	changes := map[string]common_models.Change{
		"branches": {New: branchCount},
		"users":    {New: userCount},
	}
	if err := s.audit.LogChange(ctx, common_models.AuditActionSync, "dirsync", settingID.Hex(), changes); err != nil {
		s.log.Warn("audit write failed", zap.Error(err))
	}

	if runErr != nil {
		return syncLog, runErr
	}
	return syncLog, nil
}

func (s *SyncServiceImpl) pull(ctx context.Context, setting *SyncSetting) (int, int, error) {
	cfg := setting.SourceDBConfig
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg["host"], cfg["port"], cfg["user"], cfg["password"], cfg["database"])

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to ping postgres: %v", err)
	}

	branches, err := s.pullBranches(ctx, db, setting.BranchQuery)
	if err != nil {
		return 0, 0, err
	}

	userCount, err := s.pullUsers(ctx, db, setting.UserQuery)
	if err != nil {
		return len(branches), userCount, err
	}

	// Second pass: area managers reference users that may only exist
	// after the user pull.
	for _, row := range branches {
		if !row.ManagerUsername.Valid || row.ManagerUsername.String == "" {
			continue
		}
		manager, err := s.userRepo.FindByUsername(ctx, row.ManagerUsername.String)
		if err != nil || manager == nil {
			s.log.Warn("area manager not found after sync",
				zap.String("branch", row.Code),
				zap.String("username", row.ManagerUsername.String))
			continue
		}
		if err := s.branchRepo.Upsert(ctx, &branch.Branch{
			Code:          row.Code,
			Name:          row.Name,
			AreaManagerID: manager.ID,
			Status:        "active",
		}); err != nil {
			s.log.Warn("failed to set area manager", zap.String("branch", row.Code), zap.Error(err))
		}
	}

	return len(branches), userCount, nil
}

func (s *SyncServiceImpl) pullBranches(ctx context.Context, db *sql.DB, query string) ([]branchRow, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("branch query failed: %v", err)
	}
	defer rows.Close()

	var out []branchRow
	for rows.Next() {
		var row branchRow
		if err := rows.Scan(&row.Code, &row.Name, &row.ManagerUsername); err != nil {
			return out, fmt.Errorf("branch scan failed: %v", err)
		}
		if err := s.branchRepo.Upsert(ctx, &branch.Branch{
			Code:   row.Code,
			Name:   row.Name,
			Status: "active",
		}); err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SyncServiceImpl) pullUsers(ctx context.Context, db *sql.DB, query string) (int, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("user query failed: %v", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			username, email              string
			firstName, lastName          sql.NullString
			position, branchCode         sql.NullString
			isApprover, isHeadOffice     bool
		)
		if err := rows.Scan(&username, &email, &firstName, &lastName, &position, &branchCode, &isApprover, &isHeadOffice); err != nil {
			return count, fmt.Errorf("user scan failed: %v", err)
		}

		u := &common_models.User{
			Username:   username,
			Email:      email,
			FirstName:  firstName.String,
			LastName:   lastName.String,
			Position:   position.String,
			Approver:   isApprover,
			HeadOffice: isHeadOffice,
			Status:     "active",
		}
		if branchCode.Valid && branchCode.String != "" {
			b, err := s.branchRepo.FindByCode(ctx, branchCode.String)
			if err == nil && b != nil {
				u.BranchID = b.ID
			}
		}
		if err := s.userRepo.Upsert(ctx, u); err != nil {
			return count, err
		}
		count++
	}
	return count, rows.Err()
}

func (s *SyncServiceImpl) CreateSetting(ctx context.Context, setting *SyncSetting) error {
	if setting.Name == "" {
		return fmt.Errorf("setting name is required")
	}
	return s.settings.Create(ctx, setting)
}

func (s *SyncServiceImpl) GetSetting(ctx context.Context, id primitive.ObjectID) (*SyncSetting, error) {
	return s.settings.FindByID(ctx, id)
}

func (s *SyncServiceImpl) ListSettings(ctx context.Context) ([]SyncSetting, error) {
	return s.settings.List(ctx)
}

func (s *SyncServiceImpl) UpdateSetting(ctx context.Context, id primitive.ObjectID, setting *SyncSetting) error {
	return s.settings.Update(ctx, id, setting)
}

func (s *SyncServiceImpl) DeleteSetting(ctx context.Context, id primitive.ObjectID) error {
	return s.settings.Delete(ctx, id)
}

func (s *SyncServiceImpl) GetSyncLogs(ctx context.Context, settingID primitive.ObjectID, limit int64) ([]SyncLog, error) {
	return s.logs.ListBySetting(ctx, settingID, limit)
}
