package cases

import (
	"context"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Saucyyy8/lawlynk/pkg/apperr"
	"github.com/Saucyyy8/lawlynk/pkg/models"
)

/* ============================================================================
   Helpers
   ============================================================================ */

// openTestDB loads TEST_DATABASE_URL, opens a real Postgres connection,
// runs migrations, and registers a cleanup that truncates test tables after run.
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
	if err := db.AutoMigrate(
		&models.User{}, &models.Case{}, &models.Document{},
		&models.Notification{}, &models.CaseHistory{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// Truncate AFTER each test (data survives within a single test).
	t.Cleanup(func() {
		sql := `
TRUNCATE TABLE
	case_histories,
	notifications,
	documents,
	cases,
	users
RESTART IDENTITY CASCADE`
		if err := db.Exec(sql).Error; err != nil {
			t.Logf("truncate failed (ignored): %v", err)
		}
	})

	return db
}

// withTx wraps a function in a DB transaction and commits it at the end.
// If the function panics, the transaction is rolled back and the panic is rethrown.
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

func makeUser(t *testing.T, tx *gorm.DB, role models.Role) models.User {
	t.Helper()
	u := models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(string(role)) + "_" + uuid.NewString()[:8] + "@x.com",
		PasswordHash: "x",
		Name:         string(role) + " " + uuid.NewString()[:6],
		Role:         role,
	}
	require.NoError(t, tx.Create(&u).Error)
	return u
}

func makeCase(t *testing.T, tx *gorm.DB, lawyer, client models.User, status models.CaseStatus, title string) models.Case {
	t.Helper()
	cs := models.Case{
		ID:         uuid.New(),
		CaseNumber: "CS-TEST-" + uuid.NewString()[:8],
		Title:      title,
		Status:     status,
		LawyerID:   lawyer.ID,
		ClientID:   client.ID,
	}
	require.NoError(t, tx.Create(&cs).Error)
	return cs
}

func principal(u models.User) models.Principal {
	return models.Principal{ID: u.ID, Role: u.Role}
}

func notificationsFor(t *testing.T, tx *gorm.DB, userID uuid.UUID) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, tx.Where("user_id = ?", userID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

var caseNumberRe = regexp.MustCompile(`^CS-\d{4}-\d{3}$`)

/* ============================================================================
   Creation
   ============================================================================ */

func Test_Create_AlwaysPending_WithWellFormedCaseNumber(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		svc := NewService(tx)

		value := 1500.0
		cs, err := svc.Create(context.Background(), CreateInput{
			Title:       "Contract Dispute",
			Description: "Breach of a supply agreement",
			LawyerID:    lawyer.ID,
			CaseValue:   &value,
		}, principal(client))
		require.NoError(t, err)

		require.Equal(t, models.CasePending, cs.Status)
		require.Regexp(t, caseNumberRe, cs.CaseNumber)
		require.Equal(t, lawyer.ID, cs.LawyerID)
		require.Equal(t, client.ID, cs.ClientID)
		require.WithinDuration(t, cs.CreatedAt, cs.UpdatedAt, time.Second)
	})
}

func Test_Create_RejectsNonClientPrincipal(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		svc := NewService(tx)

		_, err := svc.Create(context.Background(), CreateInput{
			Title:    "Self-assigned",
			LawyerID: lawyer.ID,
		}, principal(lawyer))
		require.True(t, apperr.HasKind(err, apperr.KindForbidden), "got %v", err)
	})
}

func Test_Create_UnknownLawyer_NotFound(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		client := makeUser(t, tx, models.RoleClient)
		svc := NewService(tx)

		_, err := svc.Create(context.Background(), CreateInput{
			Title:    "Orphan",
			LawyerID: uuid.New(),
		}, principal(client))
		require.True(t, apperr.HasKind(err, apperr.KindNotFound), "got %v", err)
	})
}

func Test_Create_ClientAsTargetLawyer_NotFound(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		client := makeUser(t, tx, models.RoleClient)
		otherClient := makeUser(t, tx, models.RoleClient)
		svc := NewService(tx)

		// Targeting a CLIENT id is the same as targeting a missing lawyer.
		_, err := svc.Create(context.Background(), CreateInput{
			Title:    "Wrong target",
			LawyerID: otherClient.ID,
		}, principal(client))
		require.True(t, apperr.HasKind(err, apperr.KindNotFound), "got %v", err)
	})
}

func Test_CaseNumbers_UniqueAcrossCreates(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		svc := NewService(tx)

		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			cs, err := svc.Create(context.Background(), CreateInput{
				Title:    "Case",
				LawyerID: lawyer.ID,
			}, principal(client))
			require.NoError(t, err)
			require.Regexp(t, caseNumberRe, cs.CaseNumber)
			require.False(t, seen[cs.CaseNumber], "duplicate case number %s", cs.CaseNumber)
			seen[cs.CaseNumber] = true
		}
	})
}

/* ============================================================================
   Access control
   ============================================================================ */

func Test_Get_ParticipantsOnly(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		outsider := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CasePending, "Visible")
		svc := NewService(tx)

		_, err := svc.Get(context.Background(), cs.ID, principal(lawyer))
		require.NoError(t, err)

		_, err = svc.Get(context.Background(), cs.ID, principal(client))
		require.NoError(t, err)

		_, err = svc.Get(context.Background(), cs.ID, principal(outsider))
		require.True(t, apperr.HasKind(err, apperr.KindForbidden), "got %v", err)
	})
}

func Test_Get_MissingCase_NotFound(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		svc := NewService(tx)

		_, err := svc.Get(context.Background(), uuid.New(), principal(lawyer))
		require.True(t, apperr.HasKind(err, apperr.KindNotFound), "got %v", err)
	})
}

func Test_Mutations_ForbiddenForEveryoneButAssignedLawyer(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		otherLawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CasePending, "Locked down")
		svc := NewService(tx)

		title := "hijack"
		for _, p := range []models.Principal{principal(client), principal(otherLawyer)} {
			_, err := svc.Update(context.Background(), cs.ID, UpdateInput{Title: &title}, p)
			require.True(t, apperr.HasKind(err, apperr.KindForbidden), "update by %v: got %v", p.Role, err)

			_, err = svc.UpdateStatus(context.Background(), cs.ID, models.CaseActive, p)
			require.True(t, apperr.HasKind(err, apperr.KindForbidden), "status by %v: got %v", p.Role, err)

			err = svc.Delete(context.Background(), cs.ID, p)
			require.True(t, apperr.HasKind(err, apperr.KindForbidden), "delete by %v: got %v", p.Role, err)
		}
	})
}

/* ============================================================================
   Partial updates
   ============================================================================ */

func Test_Update_PartialSemantics(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CasePending, "Original title")
		require.NoError(t, tx.Model(&cs).Update("description", "original description").Error)
		svc := NewService(tx)

		notes := "met the client"
		got, err := svc.Update(context.Background(), cs.ID, UpdateInput{Notes: &notes}, principal(lawyer))
		require.NoError(t, err)

		// Absent fields untouched, not cleared.
		require.Equal(t, "Original title", got.Title)
		require.Equal(t, "original description", got.Description)
		require.Equal(t, notes, got.Notes)
		require.Equal(t, models.CasePending, got.Status)
	})
}

func Test_Update_RefreshesUpdatedAt(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CasePending, "Stale")
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, tx.Model(&cs).UpdateColumn("updated_at", old).Error)
		svc := NewService(tx)

		title := "Fresh"
		got, err := svc.Update(context.Background(), cs.ID, UpdateInput{Title: &title}, principal(lawyer))
		require.NoError(t, err)
		require.True(t, got.UpdatedAt.After(old.Add(time.Hour)), "updatedAt not refreshed: %v", got.UpdatedAt)
	})
}

/* ============================================================================
   Transitions and notifications
   ============================================================================ */

func Test_Transition_Active_NotifiesClientOnce(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CasePending, "Contract Dispute")
		svc := NewService(tx)

		got, err := svc.UpdateStatus(context.Background(), cs.ID, models.CaseActive, principal(lawyer))
		require.NoError(t, err)
		require.Equal(t, models.CaseActive, got.Status)

		rows := notificationsFor(t, tx, client.ID)
		require.Len(t, rows, 1)
		require.Contains(t, rows[0].Message, "accepted")
		require.Contains(t, rows[0].Message, "Contract Dispute")
		require.False(t, rows[0].IsRead)
	})
}

func Test_Transition_Closed_NotifiesRejection(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CaseActive, "Lease Trouble")
		svc := NewService(tx)

		_, err := svc.UpdateStatus(context.Background(), cs.ID, models.CaseClosed, principal(lawyer))
		require.NoError(t, err)

		rows := notificationsFor(t, tx, client.ID)
		require.Len(t, rows, 1)
		require.Contains(t, rows[0].Message, "rejected")
	})
}

func Test_Transition_Pending_NotifiesNothing(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CaseActive, "Back to pending")
		svc := NewService(tx)

		_, err := svc.UpdateStatus(context.Background(), cs.ID, models.CasePending, principal(lawyer))
		require.NoError(t, err)
		require.Empty(t, notificationsFor(t, tx, client.ID))
	})
}

func Test_Transition_InvalidStatus(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CasePending, "Bad input")
		svc := NewService(tx)

		_, err := svc.UpdateStatus(context.Background(), cs.ID, models.CaseStatus("ARCHIVED"), principal(lawyer))
		require.True(t, apperr.HasKind(err, apperr.KindInvalidStatus), "got %v", err)
	})
}

func Test_RejectAndClose_BothForceClosed(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		svc := NewService(tx)

		rejected := makeCase(t, tx, lawyer, client, models.CasePending, "To reject")
		got, err := svc.Reject(context.Background(), rejected.ID, principal(lawyer))
		require.NoError(t, err)
		require.Equal(t, models.CaseClosed, got.Status)

		closed := makeCase(t, tx, lawyer, client, models.CaseActive, "To close")
		got, err = svc.Close(context.Background(), closed.ID, principal(lawyer))
		require.NoError(t, err)
		require.Equal(t, models.CaseClosed, got.Status)

		// Caller intent survives only in the audit action.
		var hist []models.CaseHistory
		require.NoError(t, tx.Where("case_id IN ?", []uuid.UUID{rejected.ID, closed.ID}).Find(&hist).Error)
		actions := map[string]bool{}
		for _, h := range hist {
			actions[h.Action] = true
			require.Equal(t, models.CaseClosed, h.NewStatus)
		}
		require.True(t, actions["rejected"] && actions["closed"], "actions: %v", actions)
	})
}

func Test_Accept_ForcesActive(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CasePending, "To accept")
		svc := NewService(tx)

		got, err := svc.Accept(context.Background(), cs.ID, principal(lawyer))
		require.NoError(t, err)
		require.Equal(t, models.CaseActive, got.Status)
	})
}

/* ============================================================================
   Delete
   ============================================================================ */

func Test_Delete_ByAssignedLawyer(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		cs := makeCase(t, tx, lawyer, client, models.CaseClosed, "Done with")
		svc := NewService(tx)

		require.NoError(t, svc.Delete(context.Background(), cs.ID, principal(lawyer)))

		var count int64
		require.NoError(t, tx.Model(&models.Case{}).Where("id = ?", cs.ID).Count(&count).Error)
		require.Zero(t, count)
	})
}

/* ============================================================================
   Listings
   ============================================================================ */

func Test_ListForLawyer_NameSort_NonDecreasingTitles(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		for _, title := range []string{"Gamma", "Alpha", "Beta"} {
			makeCase(t, tx, lawyer, client, models.CasePending, title)
		}
		svc := NewService(tx)

		page, err := svc.ListForLawyer(context.Background(), lawyer.ID, 1, 10, "", "name")
		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		for i := 1; i < len(page.Items); i++ {
			require.LessOrEqual(t, page.Items[i-1].Title, page.Items[i].Title)
		}
	})
}

func Test_ListForLawyer_StatusFilter(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		makeCase(t, tx, lawyer, client, models.CaseActive, "A1")
		makeCase(t, tx, lawyer, client, models.CaseActive, "A2")
		makeCase(t, tx, lawyer, client, models.CasePending, "P1")
		svc := NewService(tx)

		page, err := svc.ListForLawyer(context.Background(), lawyer.ID, 1, 10, "active", "recent")
		require.NoError(t, err)
		require.EqualValues(t, 2, page.Total)
		for _, cs := range page.Items {
			require.Equal(t, models.CaseActive, cs.Status)
		}

		_, err = svc.ListForLawyer(context.Background(), lawyer.ID, 1, 10, "bogus", "recent")
		require.True(t, apperr.HasKind(err, apperr.KindInvalidStatus), "got %v", err)
	})
}

func Test_ListForLawyer_PaginationCoversAllCases(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		for i := 0; i < 5; i++ {
			makeCase(t, tx, lawyer, client, models.CasePending, "Case "+uuid.NewString()[:4])
		}
		svc := NewService(tx)

		seen := map[uuid.UUID]bool{}
		var total int64
		for p := 1; ; p++ {
			page, err := svc.ListForLawyer(context.Background(), lawyer.ID, p, 2, "", "recent")
			require.NoError(t, err)
			total = page.Total
			if len(page.Items) == 0 {
				break
			}
			for _, cs := range page.Items {
				seen[cs.ID] = true
			}
			if p >= page.Pages {
				break
			}
		}
		require.EqualValues(t, 5, total)
		require.Len(t, seen, 5)
	})
}

func Test_ListForLawyer_UnknownSortFallsBackToRecent(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)

		oldCase := makeCase(t, tx, lawyer, client, models.CasePending, "Old")
		require.NoError(t, tx.Model(&oldCase).UpdateColumn("updated_at", time.Now().Add(-2*time.Hour)).Error)
		fresh := makeCase(t, tx, lawyer, client, models.CasePending, "Fresh")
		svc := NewService(tx)

		page, err := svc.ListForLawyer(context.Background(), lawyer.ID, 1, 10, "", "definitely-not-a-sort")
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		require.Equal(t, fresh.ID, page.Items[0].ID)
	})
}

func Test_ListForClient_MostRecentFirst(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		first := makeCase(t, tx, lawyer, client, models.CasePending, "First")
		require.NoError(t, tx.Model(&first).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)
		second := makeCase(t, tx, lawyer, client, models.CaseActive, "Second")
		svc := NewService(tx)

		page, err := svc.ListForClient(context.Background(), client.ID, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		require.Equal(t, second.ID, page.Items[0].ID)
		require.Equal(t, first.ID, page.Items[1].ID)
	})
}

func Test_Recent_RoleScoped(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		lawyer := makeUser(t, tx, models.RoleLawyer)
		client := makeUser(t, tx, models.RoleClient)
		otherClient := makeUser(t, tx, models.RoleClient)
		makeCase(t, tx, lawyer, client, models.CasePending, "Mine")
		makeCase(t, tx, lawyer, otherClient, models.CasePending, "Theirs")
		svc := NewService(tx)

		mine, err := svc.Recent(context.Background(), principal(client), 10)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		require.Equal(t, "Mine", mine[0].Title)

		all, err := svc.Recent(context.Background(), principal(lawyer), 10)
		require.NoError(t, err)
		require.Len(t, all, 2)
	})
}

/* ============================================================================
   End to end
   ============================================================================ */

func Test_EndToEnd_CreateAcceptNotifyAndDeny(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		l1 := makeUser(t, tx, models.RoleLawyer)
		c1 := makeUser(t, tx, models.RoleClient)
		c2 := makeUser(t, tx, models.RoleClient)
		svc := NewService(tx)

		cs, err := svc.Create(context.Background(), CreateInput{
			Title:    "Contract Dispute",
			LawyerID: l1.ID,
		}, principal(c1))
		require.NoError(t, err)
		require.Equal(t, models.CasePending, cs.Status)
		require.Regexp(t, caseNumberRe, cs.CaseNumber)
		require.WithinDuration(t, cs.CreatedAt, cs.UpdatedAt, time.Second)

		got, err := svc.UpdateStatus(context.Background(), cs.ID, models.CaseActive, principal(l1))
		require.NoError(t, err)
		require.Equal(t, models.CaseActive, got.Status)

		rows := notificationsFor(t, tx, c1.ID)
		require.Len(t, rows, 1)
		require.Contains(t, rows[0].Message, "Contract Dispute")
		require.Contains(t, rows[0].Message, "accepted")

		_, err = svc.Get(context.Background(), cs.ID, principal(c2))
		require.True(t, apperr.HasKind(err, apperr.KindForbidden), "got %v", err)
	})
}
