package users

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Saucyyy8/lawlynk/pkg/models"
)

type Handler struct{ db *gorm.DB }

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

// PublicUser is the directory-safe projection of a user record.
type PublicUser struct {
	ID      uuid.UUID   `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	Phone   string      `json:"phone,omitempty"`
	Address string      `json:"address,omitempty"`
	About   string      `json:"about,omitempty"`
}

func toPublic(u *models.User) PublicUser {
	return PublicUser{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Phone:   u.Phone,
		Address: u.Address,
		About:   u.About,
	}
}

// @Summary      List lawyers
// @Description  All lawyers, for clients picking a target lawyer at case creation
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  PublicUser
// @Router       /lawyers [get]
func (h *Handler) ListLawyers(c *fiber.Ctx) error {
	var rows []models.User
	if err := h.db.
		Where("role = ?", models.RoleLawyer).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	out := make([]PublicUser, 0, len(rows))
	for i := range rows {
		out = append(out, toPublic(&rows[i]))
	}
	return c.JSON(out)
}

// @Summary      List clients
// @Description  Lawyer-only client directory, paginated, optional name/email search
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        page      query int    false "page"
// @Param        pageSize  query int    false "pageSize"
// @Param        search    query string false "name or email substring"
// @Success      200  {object}  map[string]any
// @Failure      403  {object}  models.ErrorResponse
// @Router       /clients [get]
func (h *Handler) ListClients(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("pageSize", "10"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = 10
	}

	q := h.db.Model(&models.User{}).Where("role = ?", models.RoleClient)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	var rows []models.User
	if err := q.Order("name ASC").
		Offset((page - 1) * size).Limit(size).
		Find(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	items := make([]PublicUser, 0, len(rows))
	for i := range rows {
		items = append(items, toPublic(&rows[i]))
	}

	return c.JSON(fiber.Map{
		"page": page, "pageSize": size, "total": total,
		"pages": int(math.Ceil(float64(total) / float64(size))),
		"items": items,
	})
}

// @Summary      Client detail
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id  path string true "client id (uuid)"
// @Success      200  {object}  PublicUser
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id} [get]
func (h *Handler) GetClient(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid client id")
	}

	var u models.User
	if err := h.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "client not found")
		}
		return fiber.ErrInternalServerError
	}
	if u.Role != models.RoleClient {
		return fiber.NewError(fiber.StatusNotFound, "user is not a client")
	}
	return c.JSON(toPublic(&u))
}

// @Summary      Client's cases
// @Description  Lawyer-only view of all cases a client is party to
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id  path string true "client id (uuid)"
// @Success      200  {array}  models.Case
// @Router       /clients/{id}/cases [get]
func (h *Handler) ClientCases(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid client id")
	}

	rows := make([]models.Case, 0)
	if err := h.db.
		Where("client_id = ?", id).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(rows)
}
