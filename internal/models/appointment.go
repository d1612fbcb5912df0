package models

import "time"

type Appointment struct {
	AppointmentID string `gorm:"primaryKey;size:36" json:"appointmentId" dynamodbav:"appointmentId"`
	PatientID     string `gorm:"size:64;not null;index:idx_patient_date,priority:1" json:"patientId" dynamodbav:"patientId"`

	AppointmentDate string `gorm:"size:10;not null;index:idx_patient_date,priority:2;index:idx_status_date,priority:2" json:"appointmentDate" dynamodbav:"appointmentDate"`
	StartTime       string `gorm:"size:5;not null" json:"startTime" dynamodbav:"startTime"`
	EndTime         string `gorm:"size:5;not null" json:"endTime" dynamodbav:"endTime"`

	Status string `gorm:"size:20;not null;index:idx_status_date,priority:1" json:"status" dynamodbav:"status"`

	Notes        string `gorm:"size:500" json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	ReminderSent bool   `gorm:"not null;default:false" json:"reminderSent" dynamodbav:"reminderSent"`

	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt" dynamodbav:"updatedAt"`

	// ExpiresAt is the retention horizon; the store purges the record after it.
	ExpiresAt time.Time `json:"expiresAt" dynamodbav:"ttl,unixtime"`
}
