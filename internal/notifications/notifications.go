package notifications

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Saucyyy8/lawlynk/internal/auth"
	"github.com/Saucyyy8/lawlynk/pkg/models"
)

// Append writes one notification row through the given handle. Callers
// pass their open transaction so the notification commits or rolls back
// together with the state change that produced it.
func Append(db *gorm.DB, recipientID uuid.UUID, message string) error {
	return db.Create(&models.Notification{
		UserID:  recipientID,
		Message: message,
	}).Error
}

type Handler struct{ db *gorm.DB }

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

// @Summary      Unread notifications
// @Description  List the authenticated user's unread notifications, newest first
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   models.Notification
// @Failure      401  {object}  models.ErrorResponse
// @Router       /notifications [get]
func (h *Handler) ListUnread(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)

	var rows []models.Notification
	if err := h.db.
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if rows == nil {
		rows = []models.Notification{}
	}
	return c.JSON(rows)
}

// @Summary      Mark notification read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "notification id (uuid)"
// @Success      200  {object}  models.Notification
// @Failure      404  {object}  models.ErrorResponse
// @Router       /notifications/{id}/read [put]
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notification id")
	}

	var n models.Notification
	if err := h.db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}

	if !n.IsRead {
		if err := h.db.Model(&n).Update("is_read", true).Error; err != nil {
			return fiber.ErrInternalServerError
		}
		n.IsRead = true
	}
	return c.JSON(n)
}
