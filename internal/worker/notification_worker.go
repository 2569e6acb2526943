package worker

import (
	"github.com/corpdesk/employee-portal/internal/service"
)

// StartNotificationWorker registers notification handlers for employee events.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
