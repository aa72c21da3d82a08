package domain

import "time"

// ScheduleStatus represents the lifecycle state of a driver schedule.
type ScheduleStatus string

const (
	ScheduleStatusNotStarted ScheduleStatus = "NOT_STARTED"
	ScheduleStatusInProgress ScheduleStatus = "IN_PROGRESS"
	ScheduleStatusCompleted  ScheduleStatus = "COMPLETED"
)

// DriverSchedule assigns a driver and a vehicle to one shift on one calendar
// day. At most one schedule exists per (driver, date, shift) and per
// (vehicle, date, shift).
type DriverSchedule struct {
	ID              string
	DriverID        string
	VehicleID       string
	Date            time.Time // calendar day; time-of-day ignored
	Shift           Shift
	Status          ScheduleStatus
	CheckinTime     time.Time
	CheckoutTime    time.Time
	IsLate          bool
	IsEarlyCheckout bool
	TimeToOpen      time.Time // shift start anchored to Date
	TimeToClose     time.Time // shift end anchored to Date
}

// DateKey returns the schedule's calendar day formatted for conflict keys.
func (s *DriverSchedule) DateKey() string {
	return s.Date.Format("2006-01-02")
}
