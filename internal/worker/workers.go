package worker

import (
	"github.com/spec-kit/cover-rota/internal/service"
)

// StartNotificationWorker registers notification handlers for absence and cover events.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// Start wires the background workers. The returned stop function is safe to call when the
// warmer was not scheduled.
func Start(notifications *service.NotificationService, warmer *CalendarWarmer, warmSpec string) (func(), error) {
	StartNotificationWorker(notifications)
	if warmer == nil || warmSpec == "" {
		return func() {}, nil
	}
	if err := warmer.Start(warmSpec); err != nil {
		return nil, err
	}
	return warmer.Stop, nil
}
