package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobhub/internal/domain"
	"jobhub/internal/repository"
)

// JobHandler expone la superficie protegida de ofertas: sirve de consumidor
// real del guard de acceso.
type JobHandler struct {
	logger *zap.Logger
	jobs   repository.JobRepository
}

func NewJobHandler(logger *zap.Logger, jobs repository.JobRepository) *JobHandler {
	return &JobHandler{logger: logger, jobs: jobs}
}

// CreateJob maneja POST /jobs. Solo cuentas hr.
func (h *JobHandler) CreateJob(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Invalid or expired access token")
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description" binding:"required"`
		Location    string `json:"location"`
		Salary      string `json:"salary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create job request", zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	job := domain.Job{
		ID:          uuid.NewString(),
		PostedBy:    claims.UserID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Salary:      req.Salary,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.jobs.Create(c.Request.Context(), job); err != nil {
		h.logger.Error("create job failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Could not create job")
		return
	}

	respond(c, http.StatusCreated, "Job created successfully", job)
}

// ListJobs maneja GET /jobs con paginación por limit/offset.
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.jobs.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list jobs failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Could not list jobs")
		return
	}

	respond(c, http.StatusOK, "Jobs retrieved successfully", jobs)
}
