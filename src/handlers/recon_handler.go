package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/username/moneydesk/backend/src/logger"
	"github.com/username/moneydesk/backend/src/models"
	"github.com/username/moneydesk/backend/src/services"
	"github.com/username/moneydesk/backend/src/utils"
)

type ReconHandler struct {
	reconService services.ReconService
}

func NewReconHandler(reconService services.ReconService) *ReconHandler {
	return &ReconHandler{reconService: reconService}
}

// HandlePreview parses pasted spreadsheet text and returns the classified
// matches. Read-only; nothing is committed.
func (h *ReconHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/api/recon/preview"))
	defer timer.ObserveDuration()

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/api/recon/preview", "400").Inc()
		utils.SendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	matches, err := h.reconService.Preview(r.Context(), body.Text)
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/api/recon/preview", "500").Inc()
		logger.L.Error("Reconciliation preview failed", "error", err)
		utils.SendJSONError(w, "Reconciliation preview failed", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []models.ReconcileMatch{}
	}
	writeJSON(w, http.StatusOK, matches, "POST", "/api/recon/preview")
}

// HandleSettle commits a batch of ticket ids. The response always carries one
// outcome per requested ticket; a partial failure is a 200 with mixed
// outcomes, not an error.
func (h *ReconHandler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/api/recon/settle"))
	defer timer.ObserveDuration()

	var body struct {
		OrderIDs []string `json:"orderIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/api/recon/settle", "400").Inc()
		utils.SendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(body.OrderIDs) == 0 {
		httpRequestsTotal.WithLabelValues("POST", "/api/recon/settle", "400").Inc()
		utils.SendJSONError(w, "No order ids to settle", http.StatusBadRequest)
		return
	}

	outcomes, err := h.reconService.Settle(r.Context(), body.OrderIDs)
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/api/recon/settle", "500").Inc()
		logger.L.Error("Batch settle failed", "error", err)
		utils.SendJSONError(w, "Batch settle failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, outcomes, "POST", "/api/recon/settle")
}
