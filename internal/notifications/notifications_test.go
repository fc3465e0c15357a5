package notifications

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Saucyyy8/lawlynk/internal/auth"
	"github.com/Saucyyy8/lawlynk/pkg/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Exec(`TRUNCATE TABLE notifications, users RESTART IDENTITY CASCADE`).Error; err != nil {
			t.Logf("truncate failed (ignored): %v", err)
		}
	})
	return db
}

func withTx(t *testing.T, db *gorm.DB, fn func(tx *gorm.DB)) {
	t.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	fn(tx)
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit tx: %v", err)
	}
}

func newTestApp(tx *gorm.DB, userID uuid.UUID) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler})
	h := NewHandler(tx)

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals("userID", userID.String())
		c.Locals("role", string(models.RoleClient))
		return c.Next()
	})
	api.Get("/notifications", h.ListUnread)
	api.Put("/notifications/:id/read", h.MarkRead)
	return app
}

func seedNotification(t *testing.T, tx *gorm.DB, userID uuid.UUID, message string, read bool) models.Notification {
	t.Helper()
	n := models.Notification{ID: uuid.New(), UserID: userID, Message: message, IsRead: read}
	require.NoError(t, tx.Create(&n).Error)
	return n
}

func Test_ListUnread_OwnUnreadOnly(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := uuid.New()
		other := uuid.New()
		seedNotification(t, tx, me, "case accepted", false)
		seedNotification(t, tx, me, "already seen", true)
		seedNotification(t, tx, other, "not mine", false)

		app := newTestApp(tx, me)
		req := httptest.NewRequest("GET", "/api/notifications", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var rows []models.Notification
		require.NoError(t, json.Unmarshal(raw, &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "case accepted", rows[0].Message)
	})
}

func Test_MarkRead_OwnNotification(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := uuid.New()
		n := seedNotification(t, tx, me, "case accepted", false)

		app := newTestApp(tx, me)
		req := httptest.NewRequest("PUT", "/api/notifications/"+n.ID.String()+"/read", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got models.Notification
		require.NoError(t, tx.First(&got, "id = ?", n.ID).Error)
		assert.True(t, got.IsRead)
	})
}

func Test_MarkRead_SomeoneElses404(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := uuid.New()
		other := uuid.New()
		n := seedNotification(t, tx, other, "not mine", false)

		app := newTestApp(tx, me)
		req := httptest.NewRequest("PUT", "/api/notifications/"+n.ID.String()+"/read", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		var got models.Notification
		require.NoError(t, tx.First(&got, "id = ?", n.ID).Error)
		assert.False(t, got.IsRead)
	})
}

func Test_Append_WritesUnreadRow(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := uuid.New()
		require.NoError(t, Append(tx, me, `Your case "X" has been accepted by the lawyer.`))

		var rows []models.Notification
		require.NoError(t, tx.Where("user_id = ?", me).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.False(t, rows[0].IsRead)
	})
}
