package worker

import (
	"context"

	"github.com/medinsight/staff-admin/internal/service"
)

// StartNotificationWorker starts q and routes the notification service's
// deliveries through it. Call q.Stop on shutdown to flush pending work.
func StartNotificationWorker(ctx context.Context, notifications *service.NotificationService, q *Queue) {
	q.Start(ctx)
	notifications.RegisterHandlers(func(name string, run func(context.Context) error) bool {
		return q.Enqueue(Job{Name: name, Run: run})
	})
}
