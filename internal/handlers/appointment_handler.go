package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	search *ucAppointment.SearchAppointments
	stats  *ucAppointment.GetStatistics
	get    *ucAppointment.GetAppointment
}

func NewAppointmentHandler(
	search *ucAppointment.SearchAppointments,
	stats *ucAppointment.GetStatistics,
	get *ucAppointment.GetAppointment,
) *AppointmentHandler {
	return &AppointmentHandler{
		search: search,
		stats:  stats,
		get:    get,
	}
}

// ======================================================
// SEARCH
// ======================================================

func (h *AppointmentHandler) Search(c *gin.Context) {
	params := ucAppointment.SearchParams{
		AppointmentID: c.Query("appointmentId"),
		PatientID:     c.Query("patientId"),
		PatientEmail:  c.Query("patientEmail"),
		Status:        c.Query("status"),
		StartDate:     c.Query("startDate"),
		EndDate:       c.Query("endDate"),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			httperr.BadRequest(c, "invalid_limit", "limit must be a positive integer")
			return
		}
		params.Limit = limit
	}

	res, err := h.search.Execute(c.Request.Context(), params)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, res)
}

// ======================================================
// STATISTICS
// ======================================================

func (h *AppointmentHandler) Statistics(c *gin.Context) {
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")

	if startDate == "" || endDate == "" {
		httperr.BadRequest(c, "missing_date_range", "startDate and endDate are required for statistics")
		return
	}

	stats, err := h.stats.Execute(c.Request.Context(), startDate, endDate)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, stats)
}

// ======================================================
// GET BY ID
// ======================================================

func (h *AppointmentHandler) Get(c *gin.Context) {
	id := c.Param("id")

	ap, err := h.get.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAppointmentNotFound) {
			httperr.NotFound(c, "appointment_not_found", fmt.Sprintf("Appointment %s not found", id))
			return
		}
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, ap)
}
