package documents

import (
	"errors"
	"math"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Saucyyy8/lawlynk/internal/auth"
	"github.com/Saucyyy8/lawlynk/internal/storage"
	"github.com/Saucyyy8/lawlynk/pkg/models"
)

const maxFileSize = 10 * 1024 * 1024 // per file

type Handler struct {
	db    *gorm.DB
	store *storage.Local
}

func NewHandler(db *gorm.DB, store *storage.Local) *Handler {
	return &Handler{db: db, store: store}
}

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

// loadCaseForParticipant fetches a case and enforces the participant
// rule; documents are visible to exactly the case's lawyer and client.
func (h *Handler) loadCaseForParticipant(caseID string, userID string) (*models.Case, error) {
	if _, err := uuid.Parse(caseID); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid case id")
	}
	var cs models.Case
	if err := h.db.First(&cs, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.ErrNotFound
		}
		return nil, fiber.ErrInternalServerError
	}
	uid, err := uuid.Parse(userID)
	if err != nil || !cs.HasParticipant(uid) {
		return nil, fiber.ErrForbidden
	}
	return &cs, nil
}

func fileExtension(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "unknown"
	}
	return strings.ToLower(ext)
}

/* ================================ Upload ================================ */

func (h *Handler) saveOne(fh *multipart.FileHeader, cs *models.Case, uploader uuid.UUID, description string, category models.DocumentCategory) (*models.Document, error) {
	if fh.Size <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "empty file")
	}
	if fh.Size > maxFileSize {
		return nil, fiber.NewError(fiber.StatusBadRequest, "max 10MB per file")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fiber.ErrInternalServerError
	}
	defer f.Close()

	key := h.store.MakeObjectKey(cs.ID.String(), fh.Filename)
	if err := h.store.Save(key, f); err != nil {
		zap.S().Errorw("document upload failed", "case", cs.ID, "err", err)
		return nil, fiber.ErrInternalServerError
	}

	doc := models.Document{
		Name:        fh.Filename,
		Key:         key,
		Type:        fileExtension(fh.Filename),
		Size:        fh.Size,
		Description: description,
		Category:    category,
		CaseID:      cs.ID,
		UploadedBy:  uploader,
	}
	if err := h.db.Create(&doc).Error; err != nil {
		_ = h.store.Delete(key)
		return nil, fiber.ErrInternalServerError
	}
	return &doc, nil
}

func parseCategory(raw string) (models.DocumentCategory, error) {
	category := models.DocumentCategory(strings.ToUpper(strings.TrimSpace(raw)))
	if !category.Valid() {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid document category")
	}
	return category, nil
}

// @Summary      Upload document
// @Description  Case participant uploads one file (multipart: file, caseId, category, description?)
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Success      201  {object}  models.Document
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /documents [post]
func (h *Handler) Upload(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)

	cs, err := h.loadCaseForParticipant(c.FormValue("caseId"), userID)
	if err != nil {
		return err
	}
	category, err := parseCategory(c.FormValue("category"))
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	uploader, _ := uuid.Parse(userID)
	doc, err := h.saveOne(fh, cs, uploader, strings.TrimSpace(c.FormValue("description")), category)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// @Summary      Upload multiple documents
// @Description  Case participant uploads up to 10 files (multipart: files, caseId, category, description?)
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Success      201  {array}   models.Document
// @Failure      400  {object}  models.ErrorResponse
// @Router       /documents/multiple [post]
func (h *Handler) UploadMultiple(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)

	cs, err := h.loadCaseForParticipant(c.FormValue("caseId"), userID)
	if err != nil {
		return err
	}
	category, err := parseCategory(c.FormValue("category"))
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["files[]"]
	}
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "files are required")
	}
	if len(files) > 10 {
		return fiber.NewError(fiber.StatusBadRequest, "max 10 files allowed")
	}

	uploader, _ := uuid.Parse(userID)
	description := strings.TrimSpace(c.FormValue("description"))

	docs := make([]models.Document, 0, len(files))
	for _, fh := range files {
		doc, err := h.saveOne(fh, cs, uploader, description, category)
		if err != nil {
			return err
		}
		docs = append(docs, *doc)
	}
	return c.Status(fiber.StatusCreated).JSON(docs)
}

/* ================================= Reads ================================ */

// @Summary      List documents
// @Description  Documents on the principal's cases, optionally filtered by caseId
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        caseId    query string false "case id (uuid)"
// @Param        page      query int    false "page"
// @Param        pageSize  query int    false "pageSize"
// @Success      200  {object}  map[string]any
// @Router       /documents [get]
func (h *Handler) List(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	page, size := parsePage(c)

	q := h.db.Model(&models.Document{}).
		Joins("JOIN cases ON cases.id = documents.case_id").
		Where("cases.lawyer_id = ? OR cases.client_id = ?", userID, userID)

	if caseID := strings.TrimSpace(c.Query("caseId")); caseID != "" {
		if _, err := uuid.Parse(caseID); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid case id")
		}
		q = q.Where("documents.case_id = ?", caseID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	rows := make([]models.Document, 0, size)
	if err := q.Order("documents.uploaded_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"page": page, "pageSize": size, "total": total,
		"pages":     int(math.Ceil(float64(total) / float64(size))),
		"documents": rows,
	})
}

// loadForParticipant fetches a document and checks case participation.
func (h *Handler) loadForParticipant(c *fiber.Ctx) (*models.Document, *models.Case, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "invalid document id")
	}

	var doc models.Document
	if err := h.db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fiber.ErrNotFound
		}
		return nil, nil, fiber.ErrInternalServerError
	}

	cs, err := h.loadCaseForParticipant(doc.CaseID.String(), auth.MustUserID(c))
	if err != nil {
		return nil, nil, err
	}
	return &doc, cs, nil
}

// @Summary      Document detail
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path string true "document id (uuid)"
// @Success      200  {object}  models.Document
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /documents/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	doc, _, err := h.loadForParticipant(c)
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// @Summary      Download document
// @Tags         documents
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        id  path string true "document id (uuid)"
// @Success      200  {file}    binary
// @Failure      404  {object}  models.ErrorResponse
// @Router       /documents/{id}/download [get]
func (h *Handler) Download(c *fiber.Ctx) error {
	doc, _, err := h.loadForParticipant(c)
	if err != nil {
		return err
	}

	f, err := h.store.Open(doc.Key)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "file not found on disk")
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+doc.Name+`"`)
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.SendStream(f, int(doc.Size))
}

// @Summary      Delete document
// @Description  Allowed for the uploader or the case's lawyer
// @Tags         documents
// @Security     BearerAuth
// @Param        id  path string true "document id (uuid)"
// @Success      204  "deleted"
// @Failure      403  {object}  models.ErrorResponse
// @Router       /documents/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	doc, cs, err := h.loadForParticipant(c)
	if err != nil {
		return err
	}

	uid, _ := uuid.Parse(auth.MustUserID(c))
	if doc.UploadedBy != uid && cs.LawyerID != uid {
		return fiber.ErrForbidden
	}

	if err := h.store.Delete(doc.Key); err != nil {
		// DB row still goes; the orphaned file is logged, not fatal.
		zap.S().Warnw("failed to delete stored file", "key", doc.Key, "err", err)
	}
	if err := h.db.Delete(doc).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}
