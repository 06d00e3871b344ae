package domain

import "time"

// DashboardStats aggregates ticket counts for the dashboard.
type DashboardStats struct {
	TotalToday          int64
	TotalWeek           int64
	TotalMonth          int64
	TicketsByStatus     map[string]int64
	TicketsBySpecialist map[string]int64
	TicketsInQueue      int64
}

// StatsWindow is the set of lower bounds used for windowed counts.
type StatsWindow struct {
	TodayStart time.Time
	WeekStart  time.Time
	MonthStart time.Time
}

// StatsWindows returns the window starts for now, in now's location.
// Weeks start on Monday.
func StatsWindows(now time.Time) StatsWindow {
	year, month, day := now.Date()
	loc := now.Location()

	today := time.Date(year, month, day, 0, 0, 0, 0, loc)
	sinceMonday := (int(now.Weekday()) + 6) % 7

	return StatsWindow{
		TodayStart: today,
		WeekStart:  today.AddDate(0, 0, -sinceMonday),
		MonthStart: time.Date(year, month, 1, 0, 0, 0, 0, loc),
	}
}
