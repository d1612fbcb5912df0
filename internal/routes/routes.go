package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/handlers"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// RegisterRoutes mounts the read-only lookup API. db may be nil; the audit
// log endpoint is only mounted when it is not.
func RegisterRoutes(
	r *gin.Engine,
	repo domain.QueryRepository,
	db *gorm.DB,
	auditTable string,
	logger zerolog.Logger,
) {

	// ======================================================
	// MIDDLEWARE
	// ======================================================
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// USE CASES
	// ======================================================
	searchUC := ucAppointment.NewSearchAppointments(repo)
	statsUC := ucAppointment.NewGetStatistics(repo)
	getAppointmentUC := ucAppointment.NewGetAppointment(repo)
	getPatientUC := ucAppointment.NewGetPatient(repo)

	// ======================================================
	// HANDLERS
	// ======================================================
	appointmentHandler := handlers.NewAppointmentHandler(
		searchUC,
		statsUC,
		getAppointmentUC,
	)
	patientHandler := handlers.NewPatientHandler(getPatientUC)

	// ======================================================
	// ROUTES
	// ======================================================
	r.GET("/health", handlers.Health)

	// static segments are registered before :id
	r.GET("/appointments/search", appointmentHandler.Search)
	r.GET("/appointments/statistics", appointmentHandler.Statistics)
	r.GET("/appointments/:id", appointmentHandler.Get)

	r.GET("/patients/:id", patientHandler.Get)

	if db != nil {
		auditLogsHandler := handlers.NewAuditLogsHandler(db, auditTable)
		r.GET("/audit-logs", auditLogsHandler.List)
	}
}
