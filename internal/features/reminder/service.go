package reminder

import (
	"context"
	"fmt"
	"time"

	"go-approvals/internal/config"
	"go-approvals/internal/features/request"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReminderService runs the scheduled sweep that re-notifies pending
// approvers who have sat on a request past the configured age. It is
// delivery insurance only; it never escalates or decides anything.
type ReminderService interface {
	Start(ctx context.Context) error
	Stop() error
	RunOnce(ctx context.Context) (int, error)
}

type ReminderServiceImpl struct {
	requests  request.RequestService
	config    *config.Config
	log       *zap.Logger
	scheduler *cron.Cron
}

func NewReminderService(requests request.RequestService, cfg *config.Config, log *zap.Logger) ReminderService {
	return &ReminderServiceImpl{
		requests: requests,
		config:   cfg,
		log:      log,
	}
}

func (s *ReminderServiceImpl) Start(ctx context.Context) error {
	s.scheduler = cron.New()

	_, err := s.scheduler.AddFunc(s.config.ReminderSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		sent, err := s.RunOnce(ctx)
		if err != nil {
			s.log.Error("reminder sweep failed", zap.Error(err))
			return
		}
		if sent > 0 {
			s.log.Info("reminder sweep finished", zap.Int("sent", sent))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.config.ReminderSchedule, err)
	}

	s.scheduler.Start()
	s.log.Info("reminder scheduler started",
		zap.String("schedule", s.config.ReminderSchedule),
		zap.Int("max_age_hours", s.config.ReminderMaxAgeHrs))
	return nil
}

func (s *ReminderServiceImpl) Stop() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}

func (s *ReminderServiceImpl) RunOnce(ctx context.Context) (int, error) {
	maxAge := time.Duration(s.config.ReminderMaxAgeHrs) * time.Hour
	return s.requests.RemindPending(ctx, maxAge)
}
