package worker

import (
	"github.com/spec-kit/clinic-records/internal/service"
)

// StartNotificationWorker registers notification handlers. Delivery is
// synchronous, so there is no goroutine to stop.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
