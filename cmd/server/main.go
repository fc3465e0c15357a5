// @title           LawLynk API
// @version         1.0
// @description     Case-management backend for a law practice: clients open cases against a lawyer, lawyers drive the case lifecycle, status transitions notify the client, dashboards derive stats from the case/document graph.
// @BasePath        /api
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Format: Bearer <token>
package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Saucyyy8/lawlynk/internal/auth"
	"github.com/Saucyyy8/lawlynk/internal/cases"
	"github.com/Saucyyy8/lawlynk/internal/dashboard"
	"github.com/Saucyyy8/lawlynk/internal/documents"
	"github.com/Saucyyy8/lawlynk/internal/notifications"
	"github.com/Saucyyy8/lawlynk/internal/storage"
	"github.com/Saucyyy8/lawlynk/internal/users"
	"github.com/Saucyyy8/lawlynk/pkg/config"
	"github.com/Saucyyy8/lawlynk/pkg/database"
	"github.com/Saucyyy8/lawlynk/pkg/models"
)

func main() {
	_ = godotenv.Load()
	cfg := config.New()

	db := database.Init()
	if err := db.AutoMigrate(
		&models.User{}, &models.Case{}, &models.Document{},
		&models.Notification{}, &models.CaseHistory{},
	); err != nil {
		log.Fatal("migration failed:", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler,
	})

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	api := app.Group("/api")

	// Auth
	authH := auth.NewHandler(db)
	api.Post("/signup", authH.Signup)
	api.Post("/login", authH.Login)
	api.Get("/me", auth.RequireAuth(), authH.Me)

	// Directory
	userH := users.NewHandler(db)
	api.Get("/lawyers", auth.RequireAuth(), userH.ListLawyers)
	api.Get("/clients", auth.RequireAuth(), auth.RequireRole(models.RoleLawyer), userH.ListClients)
	api.Get("/clients/:id", auth.RequireAuth(), auth.RequireRole(models.RoleLawyer), userH.GetClient)
	api.Get("/clients/:id/cases", auth.RequireAuth(), auth.RequireRole(models.RoleLawyer), userH.ClientCases)

	// Cases
	caseSvc := cases.NewService(db)
	caseH := cases.NewHandler(caseSvc)
	api.Get("/cases", auth.RequireAuth(), caseH.List)
	api.Get("/cases/recent", auth.RequireAuth(), caseH.Recent)
	api.Post("/cases", auth.RequireAuth(), auth.RequireRole(models.RoleClient), caseH.Create)
	api.Get("/cases/:id", auth.RequireAuth(), caseH.Get)
	api.Put("/cases/:id", auth.RequireAuth(), auth.RequireRole(models.RoleLawyer), caseH.Update)
	api.Delete("/cases/:id", auth.RequireAuth(), auth.RequireRole(models.RoleLawyer), caseH.Delete)
	api.Put("/cases/:id/status", auth.RequireAuth(), auth.RequireRole(models.RoleLawyer), caseH.UpdateStatus)
	api.Put("/cases/:id/accept", auth.RequireAuth(), auth.RequireRole(models.RoleLawyer), caseH.Accept)
	api.Put("/cases/:id/reject", auth.RequireAuth(), auth.RequireRole(models.RoleLawyer), caseH.Reject)
	api.Put("/cases/:id/close", auth.RequireAuth(), auth.RequireRole(models.RoleLawyer), caseH.Close)

	// Documents
	store := storage.NewLocal(cfg.UploadDir)
	docH := documents.NewHandler(db, store)
	api.Get("/documents", auth.RequireAuth(), docH.List)
	api.Post("/documents", auth.RequireAuth(), docH.Upload)
	api.Post("/documents/multiple", auth.RequireAuth(), docH.UploadMultiple)
	api.Get("/documents/:id", auth.RequireAuth(), docH.Get)
	api.Get("/documents/:id/download", auth.RequireAuth(), docH.Download)
	api.Delete("/documents/:id", auth.RequireAuth(), docH.Delete)

	// Notifications
	notifH := notifications.NewHandler(db)
	api.Get("/notifications", auth.RequireAuth(), notifH.ListUnread)
	api.Put("/notifications/:id/read", auth.RequireAuth(), notifH.MarkRead)

	// Dashboard stats
	dashH := dashboard.NewHandler(dashboard.NewService(db))
	stats := api.Group("/stats", auth.RequireAuth())
	stats.Get("/dashboard", auth.RequireRole(models.RoleLawyer), dashH.LawyerStats)
	stats.Get("/client-dashboard", auth.RequireRole(models.RoleClient), dashH.ClientStats)
	stats.Get("/lawyer/full-dashboard", auth.RequireRole(models.RoleLawyer), dashH.LawyerFullDashboard)
	stats.Get("/client/full-dashboard", auth.RequireRole(models.RoleClient), dashH.ClientFullDashboard)
	stats.Get("/activities", dashH.Activities)

	zap.S().Infow("lawlynk is up and running", "port", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
