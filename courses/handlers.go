package courses

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NicoHurtado/prompt2course/models"
	"github.com/NicoHurtado/prompt2course/tasks"
	"github.com/NicoHurtado/prompt2course/worker"
)

type Handler struct {
	DB    *gorm.DB
	Queue worker.Queue
}

func NewHandler(db *gorm.DB, queue worker.Queue) *Handler {
	return &Handler{DB: db, Queue: queue}
}

type CreateCourseRequest struct {
	Prompt    string   `json:"prompt" binding:"required"`
	Level     string   `json:"level"`
	Interests []string `json:"interests"`
	Language  string   `json:"language"`
}

// CreateCourse validates the request, creates the course row, and kicks off
// the metadata stage.
func (h *Handler) CreateCourse(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Level == "" {
		req.Level = models.LevelBeginner
	}
	if req.Language == "" {
		req.Language = models.DefaultLanguage
	}

	course := models.Course{
		UserPrompt:    req.Prompt,
		UserLevel:     req.Level,
		UserInterests: req.Interests,
		Language:      req.Language,
		TotalModules:  4,
		Status:        models.StatusGeneratingMetadata,
	}
	if err := course.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.DB.Create(&course).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create course"})
		return
	}

	task := tasks.MetadataTaskPayload{CourseID: course.ID.String()}
	if err := h.Queue.Enqueue(c.Request.Context(), tasks.QueueCourseMetadata, task); err != nil {
		log.Printf("Error queueing metadata generation for course %s: %v", course.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue course generation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        course.ID,
		"course_id": course.CourseID,
		"status":    course.Status,
		"message":   "Course generation started. Poll the status endpoint for progress.",
	})
}

// ListCourses returns courses ordered newest first.
func (h *Handler) ListCourses(c *gin.Context) {
	var courses []models.Course
	if err := h.DB.Order("created_at DESC").Find(&courses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve courses"})
		return
	}
	c.JSON(http.StatusOK, courses)
}

// GetCourse returns one course with modules, chunks, videos and quizzes.
func (h *Handler) GetCourse(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}

	if err := h.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("module_order") }).
		Preload("Modules.Chunks", func(db *gorm.DB) *gorm.DB { return db.Order("chunk_order") }).
		Preload("Modules.Chunks.Video").
		Preload("Modules.Quizzes").
		First(course, "id = ?", course.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve course"})
		return
	}
	c.JSON(http.StatusOK, course)
}

// GetStatus is the lightweight polling endpoint.
func (h *Handler) GetStatus(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   course.Status,
		"progress": course.Status.ProgressPercentage(),
	})
}

// StartCourse enqueues generation of the remaining modules. The course must
// be READY, i.e. module 1 consumable.
func (h *Handler) StartCourse(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}

	if course.Status != models.StatusReady {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Course is not ready to start. Current status: " + string(course.Status),
		})
		return
	}

	task := tasks.RemainingModulesTaskPayload{CourseID: course.ID.String()}
	if err := h.Queue.Enqueue(c.Request.Context(), tasks.QueueRemainingModules, task); err != nil {
		log.Printf("Error queueing remaining modules for course %s: %v", course.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue module generation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Generating remaining modules",
		"status":  models.StatusGeneratingRemaining,
	})
}

// RegenerateCourse enqueues the idempotent repair of missing modules.
func (h *Handler) RegenerateCourse(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}

	task := tasks.RegenerateTaskPayload{CourseID: course.ID.String()}
	if err := h.Queue.Enqueue(c.Request.Context(), tasks.QueueRegenerateModules, task); err != nil {
		log.Printf("Error queueing regeneration for course %s: %v", course.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue regeneration"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Module regeneration queued"})
}

// GetLogs returns the most recent generation log entries for a course.
func (h *Handler) GetLogs(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}

	var logs []models.GenerationLog
	if err := h.DB.Where("course_id = ?", course.ID).
		Order("created_at DESC").Limit(50).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// loadCourse fetches the course addressed by the :id path parameter, writing
// the error response itself when that fails.
func (h *Handler) loadCourse(c *gin.Context) (*models.Course, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return nil, false
	}

	var course models.Course
	if err := h.DB.First(&course, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return nil, false
	}
	return &course, true
}
