package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

type PatientHandler struct {
	get *ucAppointment.GetPatient
}

func NewPatientHandler(get *ucAppointment.GetPatient) *PatientHandler {
	return &PatientHandler{get: get}
}

func (h *PatientHandler) Get(c *gin.Context) {
	id := c.Param("id")

	p, err := h.get.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			httperr.NotFound(c, "patient_not_found", fmt.Sprintf("Patient %s not found", id))
			return
		}
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, p)
}
