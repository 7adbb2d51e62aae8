package models

const (
	StatusBooked    = "booked"
	StatusSeated    = "seated"
	StatusFinished  = "finished"
	StatusCancelled = "cancelled"
)

const (
	// DefaultOpeningTime и DefaultClosingTime границы приема брони
	DefaultOpeningTime = "10:30"
	DefaultClosingTime = "21:30"

	// DefaultClosedWeekday день недели, когда ресторан закрыт
	DefaultClosedWeekday = "Tuesday"
)

const (
	// DigestHour час, в который отправляется сводка дня
	DigestHour = 9

	// WorkerQueueSize размер очереди воркера синхронизации
	WorkerQueueSize = 128

	// ResyncRangeMonthsBefore и ResyncRangeMonthsAfter окно полной
	// пересинхронизации листа
	ResyncRangeMonthsBefore = 1
	ResyncRangeMonthsAfter  = 3

	// DayCacheTTL время жизни кэша списка броней на дату (секунды)
	DayCacheTTL = 5 * 60
)

// IsTerminal reports whether a reservation status can never change again.
func IsTerminal(status string) bool {
	return status == StatusFinished
}
