package dto

// Queue message attribute names and values.
const (
	AttrMessageType  = "MessageType"
	AttrReminderTime = "ReminderTime"

	MessageTypeRequest      = "APPOINTMENT_REQUEST"
	MessageTypeConfirmation = "APPOINTMENT_CONFIRMATION"
	MessageTypeReminder     = "APPOINTMENT_REMINDER"
)

type ConfirmationMessage struct {
	AppointmentID string `json:"appointmentId"`
	PatientID     string `json:"patientId"`
	Action        string `json:"action"`
	Timestamp     string `json:"timestamp"`
}

// ReminderMessage carries a snapshot of the patient contact fields taken when
// the reminder was scheduled. The reminder stage does not re-read them.
type ReminderMessage struct {
	AppointmentID   string `json:"appointmentId"`
	PatientID       string `json:"patientId"`
	ReminderTime    string `json:"reminderTime"`
	AppointmentDate string `json:"appointmentDate"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	PatientName     string `json:"patientName"`
	PatientEmail    string `json:"patientEmail"`
	PatientPhone    string `json:"patientPhone"`
	Timestamp       string `json:"timestamp"`
}
