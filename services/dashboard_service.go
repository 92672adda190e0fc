package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"medicare/models"
)

// DashboardService assembles the patient and caretaker views. The last good
// view per session is kept so a failed refresh can still answer, marked stale.
// A kept view lives at most retention past its fetch, the longest a session
// can outlive it.
type DashboardService struct {
	users         *UserService
	meds          *MedicationService
	schedules     *ScheduleService
	notifications *NotificationService
	retention     time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu        sync.Mutex
	patient   map[string]PatientSnapshot
	caretaker map[string]CaretakerSnapshot
}

func NewDashboardService(users *UserService, meds *MedicationService, schedules *ScheduleService, notifications *NotificationService, retention time.Duration, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		users:         users,
		meds:          meds,
		schedules:     schedules,
		notifications: notifications,
		retention:     retention,
		logger:        logger,
		now:           time.Now,
		patient:       make(map[string]PatientSnapshot),
		caretaker:     make(map[string]CaretakerSnapshot),
	}
}

type PatientSnapshot struct {
	Logs          []models.MedicationLog         `json:"logs"`
	Schedule      *ScheduleView                  `json:"schedule"`
	Notifications []models.CaretakerNotification `json:"notifications"`
	Stats         PatientStats                   `json:"stats"`
	Stale         bool                           `json:"stale"`
	FetchedAt     time.Time                      `json:"fetched_at"`
}

type CaretakerSnapshot struct {
	PatientName   string                         `json:"patient_name"`
	Logs          []models.MedicationLog         `json:"logs"`
	Calendar      map[string]CalendarEntry       `json:"calendar"`
	Stats         CaretakerStats                 `json:"stats"`
	Schedule      *ScheduleView                  `json:"schedule"`
	Notifications []models.CaretakerNotification `json:"notifications"`
	Stale         bool                           `json:"stale"`
	FetchedAt     time.Time                      `json:"fetched_at"`
}

// HandleAuthChange drops cached views of a signed-out session.
func (s *DashboardService) HandleAuthChange(change AuthChange) {
	if change.Event != EventSignedOut {
		return
	}
	s.Forget(change.SessionID)
}

func (s *DashboardService) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.patient, sessionID)
	delete(s.caretaker, sessionID)
	s.mu.Unlock()
}

// expired reports whether a view fetched at t is past retention. Zero
// retention keeps views until sign-out.
func (s *DashboardService) expired(t time.Time) bool {
	return s.retention > 0 && s.now().Sub(t) > s.retention
}

// Sweep drops views past retention and returns how many were removed.
func (s *DashboardService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, snap := range s.patient {
		if s.expired(snap.FetchedAt) {
			delete(s.patient, sid)
			n++
		}
	}
	for sid, snap := range s.caretaker {
		if s.expired(snap.FetchedAt) {
			delete(s.caretaker, sid)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *DashboardService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("dropped expired dashboard views", slog.Int("count", n))
			}
		}
	}
}

func (s *DashboardService) fetchPatient(ctx context.Context, userID uint) (PatientSnapshot, error) {
	logs, err := s.meds.ListLogs(ctx, userID)
	if err != nil {
		return PatientSnapshot{}, err
	}
	schedule, err := s.schedules.Get(ctx, userID)
	if err != nil {
		return PatientSnapshot{}, err
	}
	notes, err := s.notifications.ListRecent(ctx, userID)
	if err != nil {
		return PatientSnapshot{}, err
	}
	now := s.now()
	return PatientSnapshot{
		Logs:          logs,
		Schedule:      schedule,
		Notifications: notes,
		Stats:         ComputePatientStats(logs, now),
		FetchedAt:     now,
	}, nil
}

// PatientData returns the patient's logs, schedule, notifications and stats.
func (s *DashboardService) PatientData(ctx context.Context, sessionID string, userID uint) (PatientSnapshot, error) {
	snap, err := s.fetchPatient(ctx, userID)
	if err != nil {
		s.logger.Error("patient data fetch failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err),
		)
		s.mu.Lock()
		prev, ok := s.patient[sessionID]
		if ok && s.expired(prev.FetchedAt) {
			delete(s.patient, sessionID)
			ok = false
		}
		s.mu.Unlock()
		if !ok {
			return PatientSnapshot{}, fmt.Errorf("patient data: %w", err)
		}
		prev.Stale = true
		return prev, nil
	}

	s.mu.Lock()
	s.patient[sessionID] = snap
	s.mu.Unlock()
	return snap, nil
}

func (s *DashboardService) fetchCaretaker(ctx context.Context, userID uint) (CaretakerSnapshot, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return CaretakerSnapshot{}, err
	}
	logs, err := s.meds.ListLogs(ctx, userID)
	if err != nil {
		return CaretakerSnapshot{}, err
	}
	schedule, err := s.schedules.Get(ctx, userID)
	if err != nil {
		return CaretakerSnapshot{}, err
	}
	if schedule == nil {
		schedule = DefaultScheduleView()
	}
	if schedule.CaretakerEmail == "" {
		schedule.CaretakerEmail = user.Email
	}
	notes, err := s.notifications.ListRecent(ctx, userID)
	if err != nil {
		return CaretakerSnapshot{}, err
	}

	now := s.now()
	return CaretakerSnapshot{
		PatientName:   user.DisplayName(),
		Logs:          logs,
		Calendar:      CalendarMap(logs, now.Location()),
		Stats:         ComputeCaretakerStats(logs, now),
		Schedule:      schedule,
		Notifications: notes,
		FetchedAt:     now,
	}, nil
}

// CaretakerData returns the monitoring view: patient name, calendar, stats and settings.
func (s *DashboardService) CaretakerData(ctx context.Context, sessionID string, userID uint) (CaretakerSnapshot, error) {
	snap, err := s.fetchCaretaker(ctx, userID)
	if err != nil {
		s.logger.Error("caretaker data fetch failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err),
		)
		s.mu.Lock()
		prev, ok := s.caretaker[sessionID]
		if ok && s.expired(prev.FetchedAt) {
			delete(s.caretaker, sessionID)
			ok = false
		}
		s.mu.Unlock()
		if !ok {
			return CaretakerSnapshot{}, fmt.Errorf("caretaker data: %w", err)
		}
		prev.Stale = true
		return prev, nil
	}

	s.mu.Lock()
	s.caretaker[sessionID] = snap
	s.mu.Unlock()
	return snap, nil
}
