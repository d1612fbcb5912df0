package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// GormRecorder writes events to an audit table.
type GormRecorder struct {
	db    *gorm.DB
	table string
}

func NewGormRecorder(db *gorm.DB, table string) *GormRecorder {
	return &GormRecorder{db: db, table: table}
}

func (r *GormRecorder) Record(ctx context.Context, ev Event) error {
	log := models.AuditLog{
		AppointmentID: ev.AppointmentID,
		PatientID:     ev.PatientID,
		Action:        ev.Action,
		Metadata:      encodeMetadata(ev.Metadata),
		CreatedAt:     ev.At,
	}

	return r.db.WithContext(ctx).Table(r.table).Create(&log).Error
}

// LogRecorder emits events as structured log lines.
type LogRecorder struct {
	logger zerolog.Logger
}

func NewLogRecorder(logger zerolog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, ev Event) error {
	r.logger.Info().
		Str("action", ev.Action).
		Str("appointment_id", ev.AppointmentID).
		Str("patient_id", ev.PatientID).
		RawJSON("metadata", []byte(orNull(encodeMetadata(ev.Metadata)))).
		Time("at", ev.At).
		Msg("audit")
	return nil
}

func encodeMetadata(metadata any) string {
	if metadata == nil {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}

func orNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}
