package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shebashongskar/apiserver/internal/services"
	"github.com/shebashongskar/apiserver/internal/store"
	"github.com/shebashongskar/apiserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 5 << 20
	maxImageCount      = 5

	formFieldText     = "text"
	formFieldCategory = "category"
	formFieldPriority = "priority"
	formFieldLocation = "location"
	formFieldImages   = "images"
)

var errImageTooLarge = errors.New("image exceeds the 5MB limit")

// ReportHandler provides HTTP handlers for complaint reports.
type ReportHandler struct {
	reportService *services.ReportService
	userService   *services.UserService
}

// NewReportHandler constructs a handler with the provided services.
func NewReportHandler(reportService *services.ReportService, userService *services.UserService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		userService:   userService,
	}
}

// ReportRouter registers report routes on the given router.
func ReportRouter(
	r chi.Router,
	reportService *services.ReportService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewReportHandler(reportService, userService)
	adminOnly := RequireAdmin(userService)

	r.With(authMiddleware).Get("/", handler.ListReports)
	r.With(authMiddleware).Post("/", handler.CreateReport)
	r.With(authMiddleware, adminOnly).Get("/admin", handler.ListReportsAdmin)
	r.With(authMiddleware, adminOnly).Patch("/admin/{reportID}", handler.UpdateReportStatus)
	r.Route("/{reportID}", func(r chi.Router) {
		r.With(authMiddleware).Get("/", handler.GetReport)
		r.With(authMiddleware).Delete("/", handler.DeleteReport)
	})
}

// CreateReport files a new complaint from a multipart form carrying the
// text fields and up to five image files.
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	input, err := parseReportForm(r)
	if err != nil {
		if errors.Is(err, errImageTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.reportService.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCategory):
			writeError(w, http.StatusBadRequest, "invalid category")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create report")
		}
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// ListReports returns the citizen-facing timeline, newest first.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reportService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// ListReportsAdmin returns the admin listing with owner contact details
// and optional category/status filters.
func (h *ReportHandler) ListReportsAdmin(w http.ResponseWriter, r *http.Request) {
	filter := types.ReportFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Status:   strings.TrimSpace(r.URL.Query().Get("status")),
	}

	reports, err := h.reportService.ListAdmin(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseReportID(r)
	if err != nil {
		// malformed ids and missing rows are deliberately the same outcome
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	report, err := h.reportService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// UpdateReportStatus sets the status and overwrites the admin note.
func (h *ReportHandler) UpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseReportID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	report, err := h.reportService.UpdateStatus(r.Context(), id, req.Status, req.AdminNote)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "invalid status")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "report not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update report")
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseReportID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	caller, err := h.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.reportService.Delete(r.Context(), caller, id); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "not authorized to delete this report")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "report not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete report")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type UpdateStatusRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"adminNote"`
}

func (h *ReportHandler) currentUser(r *http.Request) (types.User, error) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		return types.User{}, err
	}
	return h.userService.GetByID(r.Context(), userID)
}

func parseReportID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "reportID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid report id")
	}
	return id, nil
}

func parseReportForm(r *http.Request) (services.CreateReportInput, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.CreateReportInput{}, errors.New("invalid multipart form")
	}

	text := strings.TrimSpace(r.FormValue(formFieldText))
	if text == "" {
		return services.CreateReportInput{}, errors.New("text is required")
	}

	category := strings.TrimSpace(r.FormValue(formFieldCategory))
	if category == "" {
		return services.CreateReportInput{}, errors.New("category is required")
	}

	images, err := parseImageFiles(r.MultipartForm)
	if err != nil {
		return services.CreateReportInput{}, err
	}

	return services.CreateReportInput{
		Text:     text,
		Category: category,
		Priority: strings.TrimSpace(r.FormValue(formFieldPriority)),
		Location: strings.TrimSpace(r.FormValue(formFieldLocation)),
		Images:   images,
	}, nil
}

func parseImageFiles(form *multipart.Form) ([]services.ImageUpload, error) {
	if form == nil {
		return nil, nil
	}

	files := form.File[formFieldImages]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxImageCount {
		return nil, errors.New("at most 5 images are allowed")
	}

	images := make([]services.ImageUpload, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, errors.New("failed to read image file")
		}

		data, err := readFileLimited(file, maxImageBytes)
		_ = file.Close()
		if err != nil {
			return nil, err
		}

		contentType := http.DetectContentType(data)
		if !strings.HasPrefix(contentType, "image/") {
			return nil, errors.New("only image files are allowed")
		}

		images = append(images, services.ImageUpload{
			Filename:    fileHeader.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}
	return images, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errImageTooLarge
	}
	return data, nil
}
