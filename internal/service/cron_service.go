package service

import (
	"context"
	"time"

	"github.com/ebbb/adminapi/internal/config"
	"github.com/ebbb/adminapi/pkg/utils/zaplogger"
	"github.com/robfig/cron/v3"
)

const cleanupJobTimeout = 30 * time.Second

// CronService runs the periodic maintenance jobs
type CronService struct {
	cfg         *config.Config
	c           *cron.Cron
	authService *AdminAuthService
}

// NewCronService creates a new CronService
func NewCronService(cfg *config.Config, authService *AdminAuthService) *CronService {
	return &CronService{
		cfg:         cfg,
		c:           cron.New(),
		authService: authService,
	}
}

// Start registers the jobs and starts the scheduler
func (cs *CronService) Start() error {
	zaplogger.Info("Initializing CronService")

	if err := cs.addScheduledJob("Expired Sessions CLEANUP Job", cs.expiredSessionsCleanupJob, cs.cfg.SessionCleanupSchedule); err != nil {
		return err
	}
	cs.addStartupJob("Expired Sessions CLEANUP Job", cs.expiredSessionsCleanupJob, 5*time.Second)

	cs.c.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (cs *CronService) Stop() {
	<-cs.c.Stop().Done()
}

// addStartupJob runs job once after delay
func (cs *CronService) addStartupJob(name string, job func(), delay time.Duration) {
	time.AfterFunc(delay, func() {
		zaplogger.Info("STARTED STARTUP job", zaplogger.Fields{"job": name})
		job()
		zaplogger.Info("COMPLETED STARTUP job", zaplogger.Fields{"job": name})
	})
	zaplogger.Info("QUEUED STARTUP job", zaplogger.Fields{"job": name})
}

func (cs *CronService) addScheduledJob(name string, job func(), schedule string) error {
	_, err := cs.c.AddFunc(schedule, func() {
		zaplogger.Info("STARTED SCHEDULED JOB", zaplogger.Fields{"job": name})
		job()
		zaplogger.Info("COMPLETED SCHEDULED JOB", zaplogger.Fields{"job": name})
	})
	if err != nil {
		zaplogger.Error("FAILED TO QUEUE SCHEDULED JOB", zaplogger.Fields{
			"job":      name,
			"schedule": schedule,
			"error":    err.Error(),
		})
		return err
	}
	zaplogger.Info("QUEUED SCHEDULED job", zaplogger.Fields{"job": name, "schedule": schedule})
	return nil
}

// ExpiredSessionsCleanup runs the expired session sweep once and reports the rows removed
func (cs *CronService) ExpiredSessionsCleanup(ctx context.Context) (int64, error) {
	return cs.authService.CleanupExpiredSessionsCount(ctx)
}

// expiredSessionsCleanupJob deletes the sessions past their expiry
func (cs *CronService) expiredSessionsCleanupJob() {
	jobName := "Expired Sessions CLEANUP Job "

	ctx, cancel := context.WithTimeout(context.Background(), cleanupJobTimeout)
	defer cancel()

	deleted, err := cs.ExpiredSessionsCleanup(ctx)
	if err != nil {
		zaplogger.Error(jobName, zaplogger.Fields{"error": err.Error()})
		return
	}
	zaplogger.Info(jobName, zaplogger.Fields{"rows_deleted": deleted})
}
