package cases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Saucyyy8/lawlynk/internal/notifications"
	"github.com/Saucyyy8/lawlynk/pkg/apperr"
	"github.com/Saucyyy8/lawlynk/pkg/models"
)

// Service is the case lifecycle engine. It owns access control, state
// transitions and their notification side effects. All durable state
// lives in the database; the service itself is stateless between calls
// and every operation takes the calling principal explicitly.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// caseNumberAttempts bounds the collision re-roll loop so exhaustion is
// reportable instead of spinning forever.
const caseNumberAttempts = 50

/* ================================ Inputs ================================ */

type CreateInput struct {
	Title       string
	Description string
	LawyerID    uuid.UUID
	NextHearing *time.Time
	CaseValue   *float64
}

// UpdateInput carries a partial update: nil fields are left untouched,
// never cleared.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *models.CaseStatus
	NextHearing *time.Time
	Notes       *string
	CaseValue   *float64
}

// Page is one page of cases plus pagination bookkeeping.
type Page struct {
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int64         `json:"total"`
	Pages    int           `json:"pages"`
	Items    []models.Case `json:"items"`
}

/* ============================== Operations ============================== */

// Get loads a case for one of its participants.
func (s *Service) Get(ctx context.Context, caseID uuid.UUID, p models.Principal) (*models.Case, error) {
	return s.loadAuthorized(s.db.WithContext(ctx), caseID, p)
}

// Create opens a new case. Only clients open cases, and the targeted
// lawyer must exist; status is always PENDING regardless of input.
func (s *Service) Create(ctx context.Context, in CreateInput, p models.Principal) (*models.Case, error) {
	if p.Role != models.RoleClient {
		return nil, apperr.Forbidden("only clients can open cases")
	}

	var cs *models.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lawyer models.User
		if err := tx.Where("id = ? AND role = ?", in.LawyerID, models.RoleLawyer).First(&lawyer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("lawyer not found")
			}
			return apperr.Internal(err)
		}

		number, err := generateCaseNumber(tx)
		if err != nil {
			return err
		}

		cs = &models.Case{
			CaseNumber:  number,
			Title:       in.Title,
			Description: in.Description,
			Status:      models.CasePending,
			NextHearing: in.NextHearing,
			CaseValue:   in.CaseValue,
			LawyerID:    lawyer.ID,
			ClientID:    p.ID,
		}
		if err := tx.Create(cs).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// Update applies a partial update. Only the assigned lawyer may update a
// case; a status set here changes state without notifying (use
// UpdateStatus for the notifying transition).
func (s *Service) Update(ctx context.Context, caseID uuid.UUID, in UpdateInput, p models.Principal) (*models.Case, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.InvalidStatus("invalid case status")
	}

	var cs *models.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := s.lockAuthorizedLawyer(tx, caseID, p, "only the assigned lawyer can update this case")
		if err != nil {
			return err
		}
		cs = loaded

		if in.Title != nil {
			cs.Title = *in.Title
		}
		if in.Description != nil {
			cs.Description = *in.Description
		}
		if in.Status != nil {
			cs.Status = *in.Status
		}
		if in.NextHearing != nil {
			cs.NextHearing = in.NextHearing
		}
		if in.Notes != nil {
			cs.Notes = *in.Notes
		}
		if in.CaseValue != nil {
			cs.CaseValue = in.CaseValue
		}
		cs.UpdatedAt = time.Now()

		if err := tx.Save(cs).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// UpdateStatus transitions a case's status. ACTIVE and CLOSED enqueue a
// client notification inside the same transaction as the state change.
func (s *Service) UpdateStatus(ctx context.Context, caseID uuid.UUID, newStatus models.CaseStatus, p models.Principal) (*models.Case, error) {
	return s.transition(ctx, caseID, newStatus, p, "status_changed")
}

// Accept marks the case ACTIVE: the lawyer takes the case on.
func (s *Service) Accept(ctx context.Context, caseID uuid.UUID, p models.Principal) (*models.Case, error) {
	return s.transition(ctx, caseID, models.CaseActive, p, "accepted")
}

// Reject closes the case. Reject and Close apply the identical
// transition; only the audit action records the caller's intent.
func (s *Service) Reject(ctx context.Context, caseID uuid.UUID, p models.Principal) (*models.Case, error) {
	return s.transition(ctx, caseID, models.CaseClosed, p, "rejected")
}

// Close closes the case.
func (s *Service) Close(ctx context.Context, caseID uuid.UUID, p models.Principal) (*models.Case, error) {
	return s.transition(ctx, caseID, models.CaseClosed, p, "closed")
}

func (s *Service) transition(ctx context.Context, caseID uuid.UUID, newStatus models.CaseStatus, p models.Principal, action string) (*models.Case, error) {
	if !newStatus.Valid() {
		return nil, apperr.InvalidStatus("invalid case status")
	}

	var cs *models.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := s.lockAuthorizedLawyer(tx, caseID, p, "only the assigned lawyer can update the case status")
		if err != nil {
			return err
		}
		cs = loaded

		oldStatus := cs.Status
		cs.Status = newStatus
		cs.UpdatedAt = time.Now()
		if err := tx.Save(cs).Error; err != nil {
			return apperr.Internal(err)
		}

		if err := s.notifyTransition(tx, cs, newStatus); err != nil {
			return err
		}

		// Best-effort within the same tx; the history row is audit state,
		// not queryable business state.
		if err := tx.Create(&models.CaseHistory{
			CaseID:    cs.ID,
			ActorID:   p.ID,
			Action:    action,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		}).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// notifyTransition enqueues the client-facing message for ACTIVE and
// CLOSED transitions. A case without a client cannot happen under the
// data model; if it does, warn and keep the transition.
func (s *Service) notifyTransition(tx *gorm.DB, cs *models.Case, newStatus models.CaseStatus) error {
	var message string
	switch newStatus {
	case models.CaseActive:
		message = fmt.Sprintf("Your case %q has been accepted by the lawyer.", cs.Title)
	case models.CaseClosed:
		message = fmt.Sprintf("Your case %q has been rejected by the lawyer.", cs.Title)
	default:
		return nil
	}

	if cs.ClientID == uuid.Nil {
		zap.S().Warnw("case has no client, skipping transition notification",
			"caseID", cs.ID, "status", newStatus)
		return nil
	}
	if err := notifications.Append(tx, cs.ClientID, message); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Delete removes a case and, by cascade, its documents.
func (s *Service) Delete(ctx context.Context, caseID uuid.UUID, p models.Principal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cs, err := s.lockAuthorizedLawyer(tx, caseID, p, "only the assigned lawyer can delete this case")
		if err != nil {
			return err
		}
		if err := tx.Delete(cs).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
}

/* =============================== Listings =============================== */

// ListForLawyer pages through a lawyer's cases with an optional status
// filter. sort is one of recent|name|status; anything else falls back
// to recent.
func (s *Service) ListForLawyer(ctx context.Context, lawyerID uuid.UUID, page, pageSize int, statusFilter, sort string) (*Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Case{}).Where("lawyer_id = ?", lawyerID)

	if statusFilter != "" {
		status := models.CaseStatus(strings.ToUpper(statusFilter))
		if !status.Valid() {
			return nil, apperr.InvalidStatus("invalid case status")
		}
		q = q.Where("status = ?", status)
	}

	return paginate(q, page, pageSize, orderFor(sort))
}

// ListForClient pages through a client's cases, most recently updated
// first.
func (s *Service) ListForClient(ctx context.Context, clientID uuid.UUID, page, pageSize int) (*Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Case{}).Where("client_id = ?", clientID)
	return paginate(q, page, pageSize, "updated_at DESC")
}

// Recent returns the principal's most recently updated cases, bounded
// by limit.
func (s *Service) Recent(ctx context.Context, p models.Principal, limit int) ([]models.Case, error) {
	if limit <= 0 {
		limit = 5
	}

	q := s.db.WithContext(ctx).Model(&models.Case{})
	if p.Role == models.RoleLawyer {
		q = q.Where("lawyer_id = ?", p.ID)
	} else {
		q = q.Where("client_id = ?", p.ID)
	}

	var rows []models.Case
	if err := q.Order("updated_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

/* =============================== Internals ============================== */

// loadAuthorized fetches a case and enforces the participant rule.
func (s *Service) loadAuthorized(db *gorm.DB, caseID uuid.UUID, p models.Principal) (*models.Case, error) {
	var cs models.Case
	if err := db.First(&cs, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("case not found")
		}
		return nil, apperr.Internal(err)
	}
	if !cs.HasParticipant(p.ID) {
		return nil, apperr.Forbidden("access denied to this case")
	}
	return &cs, nil
}

// lockAuthorizedLawyer locks the case row and re-checks authorization
// inside the caller's transaction, so the check and the mutation cannot
// race.
func (s *Service) lockAuthorizedLawyer(tx *gorm.DB, caseID uuid.UUID, p models.Principal, denial string) (*models.Case, error) {
	var cs models.Case
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cs, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("case not found")
		}
		return nil, apperr.Internal(err)
	}
	if !cs.HasParticipant(p.ID) {
		return nil, apperr.Forbidden("access denied to this case")
	}
	if p.Role != models.RoleLawyer || cs.LawyerID != p.ID {
		return nil, apperr.Forbidden(denial)
	}
	return &cs, nil
}

// generateCaseNumber allocates a CS-<year>-<3-digit> number, re-rolling
// on collision against the store.
func generateCaseNumber(tx *gorm.DB) (string, error) {
	for i := 0; i < caseNumberAttempts; i++ {
		number := fmt.Sprintf("CS-%d-%03d", time.Now().Year(), rand.Intn(1000))

		var count int64
		if err := tx.Model(&models.Case{}).Where("case_number = ?", number).Count(&count).Error; err != nil {
			return "", apperr.Internal(err)
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", apperr.Conflict("could not allocate a unique case number")
}

func orderFor(sort string) string {
	switch strings.ToLower(sort) {
	case "name":
		return "title ASC"
	case "status":
		return "status ASC"
	default: // "recent" and unrecognized keys
		return "updated_at DESC"
	}
}

func paginate(q *gorm.DB, page, pageSize int, order string) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 10
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	items := make([]models.Case, 0, pageSize)
	if err := q.Order(order).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	return &Page{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    int(math.Ceil(float64(total) / float64(pageSize))),
		Items:    items,
	}, nil
}
