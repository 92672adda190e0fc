package services

import (
	"math"
	"strings"
	"time"

	"medicare/models"
	"medicare/utils"
)

// Derived statistics. Everything here is a pure function of the log list and
// the current day; nothing is persisted.

type PatientStats struct {
	Streak      int    `json:"streak"`
	TodayStatus string `json:"today_status"`
	MonthlyRate int    `json:"monthly_rate"`
	TakenDays   int    `json:"taken_days"`
	MissedDays  int    `json:"missed_days"`
}

type CaretakerStats struct {
	AdherenceRate   int  `json:"adherence_rate"`
	Streak          int  `json:"streak"`
	MissedThisMonth int  `json:"missed_this_month"`
	TakenThisWeek   int  `json:"taken_this_week"`
	Total           int  `json:"total"`
	Taken           int  `json:"taken"`
	Missed          int  `json:"missed"`
	TakenToday      bool `json:"taken_today"`
}

type CalendarEntry struct {
	Date           string `json:"date"`
	Status         string `json:"status"`
	MedicationName string `json:"medication_name"`
	Time           string `json:"time"`
	Note           string `json:"note"`
}

func countStatus(logs []models.MedicationLog, status string) int {
	n := 0
	for _, l := range logs {
		if l.Status == status {
			n++
		}
	}
	return n
}

// AdherenceRate is round(100 * taken / total), or 0 for an empty list.
func AdherenceRate(logs []models.MedicationLog) int {
	if len(logs) == 0 {
		return 0
	}
	taken := countStatus(logs, models.StatusTaken)
	return int(math.Round(100 * float64(taken) / float64(len(logs))))
}

// CurrentStreak counts consecutive days with a taken entry, walking back from
// today, or from yesterday when today has not been logged as taken yet.
func CurrentStreak(logs []models.MedicationLog, today time.Time) int {
	taken := make(map[string]struct{}, len(logs))
	for _, l := range logs {
		if l.Status == models.StatusTaken {
			taken[l.LogDate] = struct{}{}
		}
	}

	day := utils.DayStart(today)
	if _, ok := taken[utils.DayKey(day)]; !ok {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := taken[utils.DayKey(day)]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func inMonth(l models.MedicationLog, today time.Time) bool {
	return strings.HasPrefix(l.LogDate, today.Format("2006-01-"))
}

// MonthlyRate is the adherence rate over entries in today's calendar month.
func MonthlyRate(logs []models.MedicationLog, today time.Time) int {
	var month []models.MedicationLog
	for _, l := range logs {
		if inMonth(l, today) {
			month = append(month, l)
		}
	}
	return AdherenceRate(month)
}

func MissedThisMonth(logs []models.MedicationLog, today time.Time) int {
	n := 0
	for _, l := range logs {
		if l.Status == models.StatusMissed && inMonth(l, today) {
			n++
		}
	}
	return n
}

// TakenThisWeek counts taken entries in the trailing seven days, today included.
func TakenThisWeek(logs []models.MedicationLog, today time.Time) int {
	from := utils.DayKey(today.AddDate(0, 0, -6))
	to := utils.DayKey(today)
	n := 0
	for _, l := range logs {
		if l.Status == models.StatusTaken && l.LogDate >= from && l.LogDate <= to {
			n++
		}
	}
	return n
}

// TodayStatus is the status of today's entry, or "pending" when there is none.
func TodayStatus(logs []models.MedicationLog, today time.Time) string {
	key := utils.DayKey(today)
	for _, l := range logs {
		if l.LogDate == key {
			return l.Status
		}
	}
	return models.StatusPending
}

func ComputePatientStats(logs []models.MedicationLog, today time.Time) PatientStats {
	return PatientStats{
		Streak:      CurrentStreak(logs, today),
		TodayStatus: TodayStatus(logs, today),
		MonthlyRate: MonthlyRate(logs, today),
		TakenDays:   countStatus(logs, models.StatusTaken),
		MissedDays:  countStatus(logs, models.StatusMissed),
	}
}

func ComputeCaretakerStats(logs []models.MedicationLog, today time.Time) CaretakerStats {
	taken := countStatus(logs, models.StatusTaken)
	return CaretakerStats{
		AdherenceRate:   AdherenceRate(logs),
		Streak:          CurrentStreak(logs, today),
		MissedThisMonth: MissedThisMonth(logs, today),
		TakenThisWeek:   TakenThisWeek(logs, today),
		Total:           len(logs),
		Taken:           taken,
		Missed:          len(logs) - taken,
		TakenToday:      TodayStatus(logs, today) == models.StatusTaken,
	}
}

// CalendarMap indexes logs by day for the caretaker calendar.
func CalendarMap(logs []models.MedicationLog, loc *time.Location) map[string]CalendarEntry {
	out := make(map[string]CalendarEntry, len(logs))
	for _, l := range logs {
		status := models.StatusMissed
		if l.Status == models.StatusTaken {
			status = models.StatusTaken
		}
		note := ""
		if l.ProofURL != nil && *l.ProofURL != "" {
			note = "Photo proof provided"
		}
		out[l.LogDate] = CalendarEntry{
			Date:           l.LogDate,
			Status:         status,
			MedicationName: l.MedicationName,
			Time:           l.UpdatedAt.In(loc).Format("03:04 PM"),
			Note:           note,
		}
	}
	return out
}
