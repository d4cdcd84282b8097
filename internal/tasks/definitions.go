package tasks

import "library_app_echo/internal/services"

// DefineTasks wires service dependencies into the task singletons and
// registers every handler with the global registry.
func DefineTasks(email *services.EmailService, notifications *services.NotificationService, reservations *services.ReservationService) {
	SendNotificationTask.Email = email
	CirculationScanTask.Notifications = notifications
	ExpireReservationsTask.Reservations = reservations

	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register notification tasks
	RegisterHandler(SendNotificationTask.TaskID(), SendNotificationTask.HandleExecution)

	// Register circulation tasks
	RegisterHandler(CirculationScanTask.TaskID(), CirculationScanTask.HandleExecution)
	RegisterHandler(ExpireReservationsTask.TaskID(), ExpireReservationsTask.HandleExecution)
}
