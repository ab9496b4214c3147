package worker

import (
	"github.com/ticketdesk/ticket-core/internal/service"
)

// StartNotificationWorker registers notification handlers on the event
// dispatcher. The dispatcher's own goroutine drives delivery.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
