package models

import "time"

type Patient struct {
	PatientID string `gorm:"primaryKey;size:64" json:"patientId" dynamodbav:"patientId"`
	FirstName string `gorm:"size:100" json:"firstName" dynamodbav:"firstName"`
	LastName  string `gorm:"size:100" json:"lastName" dynamodbav:"lastName"`
	Email     string `gorm:"size:255;index" json:"email" dynamodbav:"email"`
	Phone     string `gorm:"size:30" json:"phone" dynamodbav:"phone"`

	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
