package dto

import "github.com/BruksfildServices01/clinic-scheduler/internal/models"

type SearchResult struct {
	Count      int                  `json:"count"`
	Results    []models.Appointment `json:"results"`
	SearchType string               `json:"searchType"`
	Error      string               `json:"error,omitempty"`
}

type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type Statistics struct {
	DateRange                 DateRange      `json:"dateRange"`
	TotalAppointments         int            `json:"totalAppointments"`
	UniquePatients            int            `json:"uniquePatients"`
	StatusBreakdown           map[string]int `json:"statusBreakdown"`
	AverageAppointmentsPerDay float64        `json:"averageAppointmentsPerDay"`
}
