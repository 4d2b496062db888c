package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradebook-server-go/db"
	"gradebook-server-go/models"
	"gradebook-server-go/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store *store.StudentStore
	Log   *zap.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(s *store.StudentStore, log *zap.Logger) *APIHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIHandler{
		Store: s,
		Log:   log,
	}
}

// Register mounts every route under group.
func (h *APIHandler) Register(api *gin.RouterGroup) {
	api.GET("/students", h.ListStudents)
	api.POST("/students", h.AddStudent)
	api.GET("/students/:id", h.GetStudentByID)
	api.GET("/students/:id/grades", h.GetGradesByStudentID)
	api.DELETE("/students/:id", h.DeleteStudent)

	api.GET("/grades/:subject", h.GetGradesBySubject)
	api.GET("/grades/:subject/statistics", h.GetSubjectStatistics)

	api.GET("/low-performers", h.ListLowPerformers)
	api.DELETE("/gradeless", h.DeleteGradeless)

	api.POST("/import/students", h.ImportStudents)
	api.GET("/export/students", h.ExportStudents)

	api.GET("/ping", PingHandler)
}

// --- Student Handlers ---

// ListStudents handles GET /api/students
func (h *APIHandler) ListStudents(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.ListAll())
}

// AddStudent handles POST /api/students
func (h *APIHandler) AddStudent(c *gin.Context) {
	var student models.Student
	if err := c.ShouldBindJSON(&student); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := h.Store.Insert(student); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "student added"})
}

// GetStudentByID handles GET /api/students/:id
func (h *APIHandler) GetStudentByID(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}

	student, err := h.Store.GetByID(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// GetGradesByStudentID handles GET /api/students/:id/grades
func (h *APIHandler) GetGradesByStudentID(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}

	grades, err := h.Store.GradesByID(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grades)
}

// DeleteStudent handles DELETE /api/students/:id
func (h *APIHandler) DeleteStudent(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}

	if err := h.Store.DeleteByID(id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student removed"})
}

// --- Grade Handlers ---

// GetGradesBySubject handles GET /api/grades/:subject
func (h *APIHandler) GetGradesBySubject(c *gin.Context) {
	grades, err := h.Store.GradesBySubject(c.Param("subject"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grades)
}

// GetSubjectStatistics handles GET /api/grades/:subject/statistics
func (h *APIHandler) GetSubjectStatistics(c *gin.Context) {
	stats, err := h.Store.StatisticsBySubject(c.Param("subject"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListLowPerformers handles GET /api/low-performers?threshold=6
func (h *APIHandler) ListLowPerformers(c *gin.Context) {
	threshold := store.DefaultLowThreshold
	if raw, ok := c.GetQuery("threshold"); ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number"})
			return
		}
		threshold = v
	}
	c.JSON(http.StatusOK, h.Store.LowPerformers(threshold))
}

// DeleteGradeless handles DELETE /api/gradeless
func (h *APIHandler) DeleteGradeless(c *gin.Context) {
	removed, err := h.Store.DeleteGradeless()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "students without grades removed",
		"removed": removed,
	})
}

// --- Import / Export Handlers ---

// ImportStudents handles POST /api/import/students. Each row goes through the
// same validation as AddStudent; rows that fail are skipped.
func (h *APIHandler) ImportStudents(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.Log.Info("received file upload", zap.String("filename", header.Filename))

	students, skipped, err := db.ParseStudentsWorkbook(file, h.Log)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read workbook: " + err.Error()})
		return
	}

	imported := 0
	for _, student := range students {
		if err := h.Store.Insert(student); err != nil {
			if errors.Is(err, store.ErrValidation) {
				h.Log.Info("skipping invalid student during import", zap.Int("id", student.ID), zap.Error(err))
				skipped++
				continue
			}
			h.respondError(c, err)
			return
		}
		imported++
	}

	h.Log.Info("import finished", zap.String("filename", header.Filename), zap.Int("imported", imported), zap.Int("skipped", skipped))
	c.JSON(http.StatusOK, gin.H{
		"message":  "Import successful",
		"imported": imported,
		"skipped":  skipped,
	})
}

// ExportStudents handles GET /api/export/students
func (h *APIHandler) ExportStudents(c *gin.Context) {
	f, err := db.WriteStudentsWorkbook(h.Store.ListAll())
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="students.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// studentID parses the :id path parameter, answering 400 when it is not an
// integer.
func studentID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student ID must be an integer"})
		return 0, false
	}
	return id, true
}

// respondError maps store errors to HTTP statuses.
func (h *APIHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
