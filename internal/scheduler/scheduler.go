package scheduler

import (
	"context"
	"time"

	"maintenance-service/internal/repository"
	"maintenance-service/pkg/config"
	"maintenance-service/prometheus"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler turns due preventive plans into open work orders on a cron
// schedule.
type Scheduler struct {
	plans *repository.PlanRepository
	cron  *cron.Cron
	spec  string
	log   *zap.Logger
}

// New builds a scheduler over the plan repository.
func New(plans *repository.PlanRepository, cfg *config.SchedulerConfig, log *zap.Logger) *Scheduler {
	return &Scheduler{
		plans: plans,
		cron:  cron.New(),
		spec:  cfg.CronSpec,
		log:   log,
	}
}

// Start registers the cron entry and begins scheduling.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Preventive scheduler started", zap.String("cron", s.spec))
	return nil
}

// Stop halts scheduling. Running jobs finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce spawns work orders for every plan due at the time of the call.
// Safe to invoke repeatedly; plans that already spawned an open work order
// for their due date are skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.log.Info("Running preventive scheduler")

	spawned, err := s.plans.SpawnDueWorkOrders(ctx, time.Now())
	if err != nil {
		s.log.Error("Preventive scheduler run failed",
			zap.Int("spawned", spawned),
			zap.Error(err))
		prometheus.RecordSchedulerRun("error", spawned)
		return
	}

	s.log.Info("Preventive scheduler run completed", zap.Int("spawned", spawned))
	prometheus.RecordSchedulerRun("ok", spawned)
}
