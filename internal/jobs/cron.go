package jobs

import (
	"context"
	"time"

	"giftwall/internal/lifecycle"
	"giftwall/pkg/logger"

	"github.com/go-co-op/gocron/v2"
)

// Cron expressions for the in-process scheduler. Deployments that use an
// external cron hit the /api/v1/cron endpoints instead.
const (
	cronLifecycle = "15 3 * * *"   // daily 03:15, archive and delete sweeps
	cronDriveSync = "45 */6 * * *" // every 6 hours, off-site backup sweep
)

type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *logger.Logger
}

// NewScheduler wires the lifecycle sweeps into an in-process cron.
func NewScheduler(svc *lifecycle.Service, log *logger.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.CronJob(cronLifecycle, false),
		gocron.NewTask(func() {
			report, err := svc.RunLifecycle(context.Background(), time.Now())
			if err != nil {
				log.Error("scheduled lifecycle sweep failed: %v", err)
				return
			}
			log.Info("lifecycle sweep: archived=%d deleted=%d skipped=%d", report.Archived, report.Deleted, report.Skipped)
		}),
		gocron.WithName("media-lifecycle"),
	)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.CronJob(cronDriveSync, false),
		gocron.NewTask(func() {
			report, err := svc.RunDriveSync(context.Background(), time.Now())
			if err != nil {
				log.Error("scheduled drive sync failed: %v", err)
				return
			}
			log.Info("drive sync: synced=%d failed=%d", report.Synced, report.Failed)
		}),
		gocron.WithName("drive-sync"),
	)
	if err != nil {
		return nil, err
	}

	return &Scheduler{scheduler: s, logger: log}, nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("In-process scheduler started")
}

func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error("Error stopping scheduler: %v", err)
	}
}
