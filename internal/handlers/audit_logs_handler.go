package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// ======================================================
// HANDLER
// ======================================================

// AuditLogsHandler reads the audit trail. It is only mounted when audit
// events are persisted through gorm.
type AuditLogsHandler struct {
	db    *gorm.DB
	table string
}

func NewAuditLogsHandler(db *gorm.DB, table string) *AuditLogsHandler {
	return &AuditLogsHandler{db: db, table: table}
}

type auditFilter struct {
	AppointmentID string
	PatientID     string
	Action        string
	From          *time.Time
	To            *time.Time
	Page          int
	Limit         int
}

func parseAuditFilter(c *gin.Context) auditFilter {
	f := auditFilter{
		AppointmentID: c.Query("appointmentId"),
		PatientID:     c.Query("patientId"),
		Action:        c.Query("action"),
	}

	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if f.Page <= 0 {
		f.Page = 1
	}

	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	if from, err := time.Parse(timeutil.DateLayout, c.Query("from")); err == nil {
		f.From = &from
	}
	if to, err := time.Parse(timeutil.DateLayout, c.Query("to")); err == nil {
		end := to.Add(24 * time.Hour)
		f.To = &end
	}
	return f
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	f := parseAuditFilter(c)

	q := h.db.WithContext(c.Request.Context()).Table(h.table).Model(&models.AuditLog{})

	// --------------------------------------------------
	// Optional filters
	// --------------------------------------------------

	if f.AppointmentID != "" {
		q = q.Where("appointment_id = ?", f.AppointmentID)
	}
	if f.PatientID != "" {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "audit_count_failed", "Failed to count audit logs")
		return
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&logs).Error; err != nil {

		httperr.Internal(c, "audit_list_failed", "Failed to list audit logs")
		return
	}

	httpresp.Page(c, logs, total, f.Page, f.Limit)
}
