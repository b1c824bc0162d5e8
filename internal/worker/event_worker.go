package worker

import (
	"github.com/deskops/ticket-desk/internal/service"
)

// StartEventWorkers registers the event subscribers: the activity journal
// first, so a slow webhook never delays it.
func StartEventWorkers(activityService *service.ActivityService, notificationService *service.NotificationService) {
	if activityService != nil {
		activityService.RegisterHandlers()
	}
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
}
