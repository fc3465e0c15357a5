package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Saucyyy8/lawlynk/pkg/apperr"
	"github.com/Saucyyy8/lawlynk/pkg/models"
)

// Service derives dashboard statistics and the activity feed from the
// case/document graph. Read-only; nothing here mutates state.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

/* =============================== Responses ============================== */

type LawyerStats struct {
	ActiveCases  int64   `json:"active_cases"`
	TotalClients int64   `json:"total_clients"`
	Revenue      float64 `json:"monthly_revenue"`
	PendingTasks int64   `json:"pending_tasks"`
}

type ClientStats struct {
	TotalCases     int64 `json:"total_cases"`
	TotalDocuments int64 `json:"total_documents"`
}

type LawyerDashboard struct {
	ActiveCases  int64         `json:"active_cases"`
	PendingCases int64         `json:"pending_cases"`
	ClosedCases  int64         `json:"closed_cases"`
	TotalClients int64         `json:"total_clients"`
	Revenue      float64       `json:"monthly_revenue"`
	PendingTasks int64         `json:"pending_tasks"`
	RecentCases  []models.Case `json:"recent_cases"`
}

type ClientDashboard struct {
	ActiveCases          int64         `json:"active_cases"`
	PendingCases         int64         `json:"pending_cases"`
	ClosedCases          int64         `json:"closed_cases"`
	TotalDocuments       int64         `json:"total_documents"`
	UpcomingAppointments int64         `json:"upcoming_appointments"`
	UnreadMessages       int64         `json:"unread_messages"`
	RecentCases          []models.Case `json:"recent_cases"`
}

// Activity is one derived entry of the recent-activity feed. Entries
// are computed from cases on demand, never stored.
type Activity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time"`
	CaseNumber  string `json:"case_number"`
}

/* ================================ Stats ================================= */

func (s *Service) LawyerStats(ctx context.Context, lawyerID uuid.UUID) (*LawyerStats, error) {
	active, err := s.countCases(ctx, "lawyer_id", lawyerID, models.CaseActive)
	if err != nil {
		return nil, err
	}
	pending, err := s.countCases(ctx, "lawyer_id", lawyerID, models.CasePending)
	if err != nil {
		return nil, err
	}
	clients, err := s.countClients(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.activeCaseValue(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	return &LawyerStats{
		ActiveCases:  active,
		TotalClients: clients,
		Revenue:      revenue,
		PendingTasks: pending,
	}, nil
}

func (s *Service) ClientStats(ctx context.Context, clientID uuid.UUID) (*ClientStats, error) {
	total, err := s.countCases(ctx, "client_id", clientID, "")
	if err != nil {
		return nil, err
	}
	docs, err := s.countClientDocuments(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &ClientStats{TotalCases: total, TotalDocuments: docs}, nil
}

func (s *Service) LawyerFullDashboard(ctx context.Context, lawyerID uuid.UUID) (*LawyerDashboard, error) {
	stats, err := s.LawyerStats(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	closed, err := s.countCases(ctx, "lawyer_id", lawyerID, models.CaseClosed)
	if err != nil {
		return nil, err
	}
	recent, err := s.recentCases(ctx, "lawyer_id", lawyerID, 4)
	if err != nil {
		return nil, err
	}
	return &LawyerDashboard{
		ActiveCases:  stats.ActiveCases,
		PendingCases: stats.PendingTasks,
		ClosedCases:  closed,
		TotalClients: stats.TotalClients,
		Revenue:      stats.Revenue,
		PendingTasks: stats.PendingTasks,
		RecentCases:  recent,
	}, nil
}

func (s *Service) ClientFullDashboard(ctx context.Context, clientID uuid.UUID) (*ClientDashboard, error) {
	active, err := s.countCases(ctx, "client_id", clientID, models.CaseActive)
	if err != nil {
		return nil, err
	}
	pending, err := s.countCases(ctx, "client_id", clientID, models.CasePending)
	if err != nil {
		return nil, err
	}
	closed, err := s.countCases(ctx, "client_id", clientID, models.CaseClosed)
	if err != nil {
		return nil, err
	}
	docs, err := s.countClientDocuments(ctx, clientID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.countUpcomingAppointments(ctx, clientID, time.Now())
	if err != nil {
		return nil, err
	}
	recent, err := s.recentCases(ctx, "client_id", clientID, 6)
	if err != nil {
		return nil, err
	}
	return &ClientDashboard{
		ActiveCases:          active,
		PendingCases:         pending,
		ClosedCases:          closed,
		TotalDocuments:       docs,
		UpcomingAppointments: upcoming,
		UnreadMessages:       0, // no message system yet
		RecentCases:          recent,
	}, nil
}

/* ============================ Activity feed ============================= */

const activityFeedSize = 10

// RecentActivities classifies the principal's most recent cases into
// feed entries.
func (s *Service) RecentActivities(ctx context.Context, p models.Principal) ([]Activity, error) {
	column := "client_id"
	if p.Role == models.RoleLawyer {
		column = "lawyer_id"
	}
	recent, err := s.recentCases(ctx, column, p.ID, activityFeedSize)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]Activity, 0, len(recent))
	for i := range recent {
		out = append(out, classifyActivity(&recent[i], now))
	}
	return out, nil
}

// classifyActivity maps a case to exactly one feed entry. Precedence:
// upcoming hearing, then closed, then active, then everything else as a
// new case.
func classifyActivity(cs *models.Case, now time.Time) Activity {
	a := Activity{ID: cs.ID.String(), CaseNumber: cs.CaseNumber}

	switch {
	case cs.NextHearing != nil && cs.NextHearing.After(now):
		a.Type = "hearing"
		a.Title = "Upcoming Hearing"
		a.Description = "Court hearing scheduled"
		a.Time = relativeTime(*cs.NextHearing, now)
	case cs.Status == models.CaseClosed:
		a.Type = "completed"
		a.Title = "Case Closed"
		a.Description = cs.Title
		a.Time = relativeTime(cs.UpdatedAt, now)
	case cs.Status == models.CaseActive:
		a.Type = "case_update"
		a.Title = "Case Updated"
		a.Description = cs.Title
		a.Time = relativeTime(cs.UpdatedAt, now)
	default:
		a.Type = "case_update"
		a.Title = "New Case"
		a.Description = cs.Title
		a.Time = relativeTime(cs.CreatedAt, now)
	}
	return a
}

// relativeTime renders a coarse human-readable distance from now.
func relativeTime(t, now time.Time) string {
	hours := int64(now.Sub(t).Hours())
	days := hours / 24

	switch {
	case hours < 1:
		return "Just now"
	case hours < 24:
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 02, 2006")
	}
}

/* =============================== Queries ================================ */

func (s *Service) countCases(ctx context.Context, column string, userID uuid.UUID, status models.CaseStatus) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Case{}).Where(column+" = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}

func (s *Service) countClients(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleClient).
		Count(&count).Error; err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}

// activeCaseValue sums caseValue over the lawyer's ACTIVE cases. The
// product calls this "monthly revenue"; there is no month filter.
func (s *Service) activeCaseValue(ctx context.Context, lawyerID uuid.UUID) (float64, error) {
	var sum float64
	if err := s.db.WithContext(ctx).Model(&models.Case{}).
		Select("COALESCE(SUM(case_value), 0)").
		Where("lawyer_id = ? AND status = ? AND case_value IS NOT NULL", lawyerID, models.CaseActive).
		Scan(&sum).Error; err != nil {
		return 0, apperr.Internal(err)
	}
	return sum, nil
}

func (s *Service) countClientDocuments(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Document{}).
		Joins("JOIN cases ON cases.id = documents.case_id").
		Where("cases.client_id = ?", clientID).
		Count(&count).Error; err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}

// countUpcomingAppointments counts cases whose hearing is strictly
// after now; a hearing at exactly now does not count.
func (s *Service) countUpcomingAppointments(ctx context.Context, clientID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Case{}).
		Where("client_id = ? AND next_hearing IS NOT NULL AND next_hearing > ?", clientID, now).
		Count(&count).Error; err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}

func (s *Service) recentCases(ctx context.Context, column string, userID uuid.UUID, limit int) ([]models.Case, error) {
	rows := make([]models.Case, 0, limit)
	if err := s.db.WithContext(ctx).
		Where(column+" = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}
