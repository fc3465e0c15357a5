package cases

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Saucyyy8/lawlynk/internal/auth"
	"github.com/Saucyyy8/lawlynk/pkg/models"
	"github.com/Saucyyy8/lawlynk/pkg/validation"
)

/* ================================ DTOs ================================= */

type CreateCaseRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	LawyerID    string   `json:"lawyer_id" validate:"required,uuid"`
	NextHearing *string  `json:"next_hearing" validate:"omitempty"`
	CaseValue   *float64 `json:"case_value" validate:"omitempty,gte=0"`
}

type UpdateCaseRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Status      *string  `json:"status" validate:"omitempty,casestatus"`
	NextHearing *string  `json:"next_hearing" validate:"omitempty"`
	Notes       *string  `json:"notes" validate:"omitempty,max=5000"`
	CaseValue   *float64 `json:"case_value" validate:"omitempty,gte=0"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,casestatus"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func parsePage(c *fiber.Ctx) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	size, _ = strconv.Atoi(c.Query("pageSize", "10"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = 10
	}
	return
}

func parseCaseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid case id")
	}
	return id, nil
}

// parseHearing accepts RFC3339 or a bare date-time without zone.
func parseHearing(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "invalid next_hearing timestamp")
}

/* =============================== Handlers =============================== */

// @Summary      List cases
// @Description  Lawyers see their assigned cases (filter & sort); clients see their own
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        page      query int    false "page"
// @Param        pageSize  query int    false "pageSize"
// @Param        status    query string false "PENDING|ACTIVE|CLOSED (lawyer only)"
// @Param        sort      query string false "recent|name|status (lawyer only)"
// @Success      200  {object}  Page
// @Failure      401  {object}  models.ErrorResponse
// @Router       /cases [get]
func (h *Handler) List(c *fiber.Ctx) error {
	p := auth.MustPrincipal(c)
	page, size := parsePage(c)

	var (
		out *Page
		err error
	)
	if p.Role == models.RoleLawyer {
		out, err = h.svc.ListForLawyer(c.Context(), p.ID, page, size,
			strings.TrimSpace(c.Query("status")), c.Query("sort", "recent"))
	} else {
		out, err = h.svc.ListForClient(c.Context(), p.ID, page, size)
	}
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// @Summary      Recent cases
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query int false "limit (default 5)"
// @Success      200  {array}   models.Case
// @Router       /cases/recent [get]
func (h *Handler) Recent(c *fiber.Ctx) error {
	p := auth.MustPrincipal(c)
	limit, _ := strconv.Atoi(c.Query("limit", "5"))

	rows, err := h.svc.Recent(c.Context(), p, limit)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []models.Case{}
	}
	return c.JSON(rows)
}

// @Summary      Case detail
// @Description  Participant (lawyer or client) fetches one case
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id  path string true "case id (uuid)"
// @Success      200  {object}  models.Case
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	caseID, err := parseCaseID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.Get(c.Context(), caseID, auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

// @Summary      Create case
// @Description  Client opens a new case against a chosen lawyer
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateCaseRequest  true  "Case payload"
// @Success      201  {object}  models.Case
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse  "lawyer not found"
// @Router       /cases [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	lawyerID, err := uuid.Parse(in.LawyerID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid lawyer_id")
	}
	var hearing *time.Time
	if in.NextHearing != nil {
		if hearing, err = parseHearing(*in.NextHearing); err != nil {
			return err
		}
	}

	cs, err := h.svc.Create(c.Context(), CreateInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		LawyerID:    lawyerID,
		NextHearing: hearing,
		CaseValue:   in.CaseValue,
	}, auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(cs)
}

// @Summary      Update case
// @Description  Assigned lawyer applies a partial update; absent fields stay untouched
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path string             true "case id (uuid)"
// @Param        payload  body  UpdateCaseRequest true "fields to change"
// @Success      200  {object}  models.Case
// @Failure      403  {object}  models.ErrorResponse
// @Router       /cases/{id} [put]
func (h *Handler) Update(c *fiber.Ctx) error {
	caseID, err := parseCaseID(c)
	if err != nil {
		return err
	}

	var in UpdateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	patch := UpdateInput{
		Title:       in.Title,
		Description: in.Description,
		Notes:       in.Notes,
		CaseValue:   in.CaseValue,
	}
	if in.Status != nil {
		status := models.CaseStatus(strings.ToUpper(strings.TrimSpace(*in.Status)))
		patch.Status = &status
	}
	if in.NextHearing != nil {
		if patch.NextHearing, err = parseHearing(*in.NextHearing); err != nil {
			return err
		}
	}

	cs, err := h.svc.Update(c.Context(), caseID, patch, auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

// @Summary      Update case status
// @Description  Assigned lawyer transitions the case; ACTIVE/CLOSED notify the client
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path string              true "case id (uuid)"
// @Param        payload  body  UpdateStatusRequest true "new status"
// @Success      200  {object}  models.Case
// @Failure      400  {object}  models.ErrorResponse  "invalid status"
// @Failure      403  {object}  models.ErrorResponse
// @Router       /cases/{id}/status [put]
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	caseID, err := parseCaseID(c)
	if err != nil {
		return err
	}

	var in UpdateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	status := models.CaseStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	cs, err := h.svc.UpdateStatus(c.Context(), caseID, status, auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

// @Summary      Accept case
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id  path string true "case id (uuid)"
// @Success      200  {object}  models.Case
// @Router       /cases/{id}/accept [put]
func (h *Handler) Accept(c *fiber.Ctx) error {
	caseID, err := parseCaseID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.Accept(c.Context(), caseID, auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

// @Summary      Reject case
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id  path string true "case id (uuid)"
// @Success      200  {object}  models.Case
// @Router       /cases/{id}/reject [put]
func (h *Handler) Reject(c *fiber.Ctx) error {
	caseID, err := parseCaseID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.Reject(c.Context(), caseID, auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

// @Summary      Close case
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id  path string true "case id (uuid)"
// @Success      200  {object}  models.Case
// @Router       /cases/{id}/close [put]
func (h *Handler) Close(c *fiber.Ctx) error {
	caseID, err := parseCaseID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.Close(c.Context(), caseID, auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

// @Summary      Delete case
// @Description  Assigned lawyer deletes the case; documents cascade
// @Tags         cases
// @Security     BearerAuth
// @Param        id  path string true "case id (uuid)"
// @Success      204  "deleted"
// @Failure      403  {object}  models.ErrorResponse
// @Router       /cases/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	caseID, err := parseCaseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), caseID, auth.MustPrincipal(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
