package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Saucyyy8/lawlynk/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// @Summary      Lawyer dashboard stats
// @Tags         stats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  LawyerStats
// @Failure      401  {object}  models.ErrorResponse
// @Router       /stats/dashboard [get]
func (h *Handler) LawyerStats(c *fiber.Ctx) error {
	p := auth.MustPrincipal(c)
	stats, err := h.svc.LawyerStats(c.Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// @Summary      Client dashboard stats
// @Tags         stats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  ClientStats
// @Router       /stats/client-dashboard [get]
func (h *Handler) ClientStats(c *fiber.Ctx) error {
	p := auth.MustPrincipal(c)
	stats, err := h.svc.ClientStats(c.Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// @Summary      Full lawyer dashboard
// @Tags         stats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  LawyerDashboard
// @Router       /stats/lawyer/full-dashboard [get]
func (h *Handler) LawyerFullDashboard(c *fiber.Ctx) error {
	p := auth.MustPrincipal(c)
	out, err := h.svc.LawyerFullDashboard(c.Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// @Summary      Full client dashboard
// @Tags         stats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  ClientDashboard
// @Router       /stats/client/full-dashboard [get]
func (h *Handler) ClientFullDashboard(c *fiber.Ctx) error {
	p := auth.MustPrincipal(c)
	out, err := h.svc.ClientFullDashboard(c.Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// @Summary      Recent activity feed
// @Description  Derived feed over the principal's most recently updated cases
// @Tags         stats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Activity
// @Router       /stats/activities [get]
func (h *Handler) Activities(c *fiber.Ctx) error {
	p := auth.MustPrincipal(c)
	out, err := h.svc.RecentActivities(c.Context(), p)
	if err != nil {
		return err
	}
	if out == nil {
		out = []Activity{}
	}
	return c.JSON(out)
}
