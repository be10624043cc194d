package handler

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"user-service/internal/apperror"
	"user-service/internal/csvimport"
	"user-service/internal/model"
	"user-service/internal/query"
	"user-service/internal/repository"
	"user-service/internal/service"
	"user-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateUserRequest defines the body of POST /users
type CreateUserRequest struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	BirthDate       string `json:"birthDate" validate:"required"`
	Status          string `json:"status"`
	MarketingSource string `json:"marketingSource"`
}

func (r CreateUserRequest) toModel() (model.User, error) {
	birthDate, err := parseBirthDate(r.BirthDate)
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		FirstName:       strings.TrimSpace(r.FirstName),
		LastName:        strings.TrimSpace(r.LastName),
		Email:           strings.TrimSpace(r.Email),
		Phone:           strings.TrimSpace(r.Phone),
		BirthDate:       birthDate,
		Status:          r.Status,
		MarketingSource: r.MarketingSource,
	}, nil
}

// UpdateUserRequest defines the body of PATCH /users/:id. Absent fields are
// left unchanged; id, createdAt, updatedAt and isDeleted are not accepted.
type UpdateUserRequest struct {
	FirstName       *string `json:"firstName" validate:"omitempty,min=1"`
	LastName        *string `json:"lastName" validate:"omitempty,min=1"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone" validate:"omitempty,min=1"`
	BirthDate       *string `json:"birthDate"`
	Status          *string `json:"status"`
	MarketingSource *string `json:"marketingSource"`
}

func (r UpdateUserRequest) toChanges() (repository.Changes, error) {
	changes := repository.Changes{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Phone:           r.Phone,
		Status:          r.Status,
		MarketingSource: r.MarketingSource,
	}
	if r.BirthDate != nil {
		birthDate, err := parseBirthDate(*r.BirthDate)
		if err != nil {
			return repository.Changes{}, err
		}
		changes.BirthDate = &birthDate
	}
	return changes, nil
}

func parseBirthDate(raw string) (time.Time, error) {
	t, err := query.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperror.Validation("birthDate", "must be an ISO 8601 date, got %q", raw)
	}
	return t, nil
}

// ListUsersResponse is the body of GET /users
type ListUsersResponse struct {
	Data []model.User `json:"data"`
	query.Paging
}

// UserHandler serves the /users resource
type UserHandler struct {
	users          *service.UserService
	importer       *service.Importer
	maxUploadBytes int64
}

func NewUserHandler(users *service.UserService, importer *service.Importer, maxUploadBytes int64) *UserHandler {
	return &UserHandler{users: users, importer: importer, maxUploadBytes: maxUploadBytes}
}

// Register mounts the user routes on g
func (h *UserHandler) Register(g *echo.Group) {
	g.POST("", h.CreateUser)
	g.GET("", h.ListUsers)
	g.POST("/upload", h.UploadUsers)
	g.PATCH("/:id", h.UpdateUser)
	g.DELETE("/:id", h.DeleteUser)
}

// CreateUser creates a new user
func (h *UserHandler) CreateUser(c echo.Context) error {
	log := logger.FromEcho(c)

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return errorJSON(c, http.StatusBadRequest, "Invalid request data")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	candidate, err := req.toModel()
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.users.Create(c.Request().Context(), candidate)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// ListUsers returns a page of active users filtered by the query string
func (h *UserHandler) ListUsers(c echo.Context) error {
	req := h.users.NewRequest()

	err := echo.QueryParamsBinder(c).
		String("firstName", &req.FirstName).
		String("lastName", &req.LastName).
		String("email", &req.Email).
		String("phone", &req.Phone).
		String("birthDate", &req.BirthDate).
		String("marketingSource", &req.MarketingSource).
		String("status", &req.Status).
		String("createdAt", &req.CreatedAt).
		String("updatedAt", &req.UpdatedAt).
		Int("page", &req.Page).
		Int("limit", &req.Limit).
		Int("sort", &req.Sort).
		String("sortBy", &req.SortBy).
		BindError()
	if err != nil {
		field := ""
		if be, ok := err.(*echo.BindingError); ok {
			field = be.Field
		}
		return respondError(c, apperror.Validation(field, "must be an integer"))
	}

	users, paging, err := h.users.List(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ListUsersResponse{Data: users, Paging: paging})
}

// UpdateUser applies a partial update to an active user
func (h *UserHandler) UpdateUser(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	if err := service.ValidateID(id); err != nil {
		return respondError(c, err)
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.String("user_id", id), zap.Error(err))
		return errorJSON(c, http.StatusBadRequest, "Invalid request data")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	changes, err := req.toChanges()
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.users.Update(c.Request().Context(), id, changes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser soft deletes an active user
func (h *UserHandler) DeleteUser(c echo.Context) error {
	user, err := h.users.SoftDelete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UploadUsers imports users from a multipart CSV file in the "file" field
func (h *UserHandler) UploadUsers(c echo.Context) error {
	log := logger.FromEcho(c)

	file, err := c.FormFile("file")
	if err != nil || !isCSV(file.Header.Get(echo.HeaderContentType), file.Filename) {
		log.Warn("Rejected upload without a CSV file", zap.Error(err))
		return errorJSON(c, http.StatusUnprocessableEntity, "Uploaded file is not a CSV file.")
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		log.Warn("Rejected oversized upload", zap.Int64("size", file.Size))
		return errorJSON(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
	}

	src, err := file.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer src.Close()

	rows, err := csvimport.Parse(src)
	if err != nil {
		log.Warn("Unreadable CSV upload", zap.String("filename", file.Filename), zap.Error(err))
		return errorJSON(c, http.StatusUnprocessableEntity, "Uploaded file is not a valid CSV file.")
	}

	result, err := h.importer.ImportBatch(c.Request().Context(), rows)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("CSV upload processed",
		zap.String("filename", file.Filename),
		zap.Int("rows", len(rows)),
		zap.Int("success_count", result.SuccessCount))
	return c.JSON(http.StatusCreated, result)
}

func isCSV(contentType, filename string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/csv") {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}
