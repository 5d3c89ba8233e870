package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	"github.com/vhvplatform/go-mindtrain-service/internal/metrics"
	"github.com/vhvplatform/go-mindtrain-service/internal/service"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

const (
	// DispatchExchange is the topic exchange dispatch jobs are published to
	DispatchExchange = "mindtrain"

	routingKeyMorning   = "mindtrain.notification.morning"
	routingKeyEvening   = "mindtrain.notification.evening"
	routingKeySyncCheck = "mindtrain.sync.check"

	syncBatchLimit = 500
)

// Publisher is the broker surface the poller needs
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// DispatchPoller polls the aggregate store once a minute and publishes a
// dispatch job for every user inside a notification window or overdue
// for a sync check. Actual delivery is the external dispatcher's job;
// this side only decides who is due.
type DispatchPoller struct {
	cron          *cron.Cron
	queries       *service.QueryService
	publisher     Publisher
	log           *logger.Logger
	windowMinutes int
}

// NewDispatchPoller creates a new dispatch poller
func NewDispatchPoller(queries *service.QueryService, publisher Publisher, windowMinutes int, log *logger.Logger) *DispatchPoller {
	return &DispatchPoller{
		cron:          cron.New(),
		queries:       queries,
		publisher:     publisher,
		log:           log,
		windowMinutes: windowMinutes,
	}
}

// Start registers the per-minute poll and starts the cron loop
func (p *DispatchPoller) Start() error {
	p.log.Info("Starting dispatch poller", "window_minutes", p.windowMinutes)

	if _, err := p.cron.AddFunc("* * * * *", p.poll); err != nil {
		return err
	}

	p.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running poll to finish
func (p *DispatchPoller) Stop() {
	p.log.Info("Stopping dispatch poller")
	<-p.cron.Stop().Done()
}

func (p *DispatchPoller) poll() {
	ctx := context.Background()
	now := time.Now().UTC()

	p.pollNotifications(ctx, domain.NotificationKindMorning, now)
	p.pollNotifications(ctx, domain.NotificationKindEvening, now)
	p.pollSyncChecks(ctx, now)
}

func (p *DispatchPoller) pollNotifications(ctx context.Context, kind domain.NotificationKind, now time.Time) {
	users, err := p.queries.GetUsersForNotification(ctx, kind, now, p.windowMinutes)
	if err != nil {
		p.log.Error("Notification window query failed", "error", err, "kind", kind)
		return
	}

	routingKey := routingKeyMorning
	if kind == domain.NotificationKindEvening {
		routingKey = routingKeyEvening
	}

	published := 0
	for _, user := range users {
		job := domain.DispatchJob{
			JobID:        uuid.NewString(),
			UserID:       user.UserID,
			Kind:         kind,
			ScheduledFor: now,
			Timezone:     user.FCMSchedule.Timezone,
		}
		if active := user.ActiveProfile(); active != nil {
			job.ProfileID = active.ID
		}
		if err := p.publish(ctx, routingKey, &job); err != nil {
			p.log.Error("Failed to publish dispatch job", "error", err, "user_id", user.UserID, "kind", kind)
			continue
		}
		metrics.DispatchJobsPublished.WithLabelValues(string(kind)).Inc()
		published++
	}

	if published > 0 {
		p.log.Info("Published notification dispatch jobs", "kind", kind, "count", published)
	}
}

func (p *DispatchPoller) pollSyncChecks(ctx context.Context, now time.Time) {
	users, err := p.queries.FindUsersNeedingSync(ctx, now, syncBatchLimit)
	if err != nil {
		p.log.Error("Sync check query failed", "error", err)
		return
	}

	published := 0
	for _, user := range users {
		job := domain.DispatchJob{
			JobID:        uuid.NewString(),
			UserID:       user.UserID,
			ScheduledFor: now,
		}
		if active := user.ActiveProfile(); active != nil {
			job.ProfileID = active.ID
		}
		if err := p.publish(ctx, routingKeySyncCheck, &job); err != nil {
			p.log.Error("Failed to publish sync check job", "error", err, "user_id", user.UserID)
			continue
		}
		metrics.DispatchJobsPublished.WithLabelValues("sync_check").Inc()
		published++
	}

	if published > 0 {
		p.log.Info("Published sync check jobs", "count", published)
	}
}

func (p *DispatchPoller) publish(ctx context.Context, routingKey string, job *domain.DispatchJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, DispatchExchange, routingKey, body)
}
