package v1

import (
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PatientHandler serves /patients. Every route sits behind RequireAuth, so
// the caller is always set.
type PatientHandler struct {
	svc *service.PatientService
	log *zap.Logger
}

func NewPatientHandler(svc *service.PatientService, log *zap.Logger) *PatientHandler {
	return &PatientHandler{svc: svc, log: log}
}

func (h *PatientHandler) View(c *gin.Context) {
	ps, err := h.svc.ListPatients(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, newPatientList(ps))
}

func (h *PatientHandler) Get(c *gin.Context) {
	p, err := h.svc.GetPatient(c.Request.Context(), middleware.GetCaller(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, newPatientResponse(p))
}

func (h *PatientHandler) Sort(c *gin.Context) {
	ps, err := h.svc.SortPatients(c.Request.Context(), middleware.GetCaller(c), c.Query("sort_by"), c.DefaultQuery("order", string(patient.OrderAsc)))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, newPatientList(ps))
}

func (h *PatientHandler) GroupByDisease(c *gin.Context) {
	h.group(c, patient.GroupByDisease)
}

func (h *PatientHandler) GroupByCondition(c *gin.Context) {
	h.group(c, patient.GroupByCondition)
}

func (h *PatientHandler) group(c *gin.Context, dim patient.GroupDimension) {
	groups, err := h.svc.GroupPatients(c.Request.Context(), middleware.GetCaller(c), dim)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, newGroupResponse(groups))
}

func (h *PatientHandler) Filter(c *gin.Context) {
	ps, err := h.svc.FilterPatients(c.Request.Context(), middleware.GetCaller(c), service.FilterParams{
		DiseaseName:          c.Query("disease_name"),
		Condition:            c.Query("condition"),
		DiagnosedAfterMonths: c.Query("diagnosed_after_months"),
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, newPatientList(ps))
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd, errs := req.toCommand()
	if len(errs) > 0 {
		respondServiceError(c, h.log, &service.ValidationError{Fields: errs})
		return
	}

	if _, err := h.svc.CreatePatient(c.Request.Context(), middleware.GetCaller(c), cmd); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondMessage(c, http.StatusCreated, "patient created successfully")
}

func (h *PatientHandler) Update(c *gin.Context) {
	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd, errs := req.toCommand()
	if len(errs) > 0 {
		respondServiceError(c, h.log, &service.ValidationError{Fields: errs})
		return
	}

	if _, err := h.svc.UpdatePatient(c.Request.Context(), middleware.GetCaller(c), c.Param("id"), cmd); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondMessage(c, http.StatusOK, "patient updated")
}

func (h *PatientHandler) Delete(c *gin.Context) {
	if err := h.svc.DeletePatient(c.Request.Context(), middleware.GetCaller(c), c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondMessage(c, http.StatusOK, "patient deleted")
}
