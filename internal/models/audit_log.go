package models

import "time"

type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AppointmentID string `gorm:"size:36;index" json:"appointmentId"`
	PatientID     string `gorm:"size:64" json:"patientId"`
	Action        string `gorm:"size:50;not null" json:"action"`
	Metadata      string `gorm:"type:text" json:"metadata"`

	CreatedAt time.Time `json:"createdAt"`
}
