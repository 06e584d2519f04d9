package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/username/moneydesk/backend/src/logger"
	"github.com/username/moneydesk/backend/src/models"
	"github.com/username/moneydesk/backend/src/services"
	"github.com/username/moneydesk/backend/src/utils"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneydesk_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moneydesk_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)

type TransactionHandler struct {
	transferService services.TransferService
}

func NewTransactionHandler(transferService services.TransferService) *TransactionHandler {
	return &TransactionHandler{transferService: transferService}
}

func (h *TransactionHandler) HandleListTransfers(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", "/api/transfers"))
	defer timer.ObserveDuration()

	records := h.transferService.ListRecords()
	if records == nil {
		records = []*models.TransactionRecord{}
	}
	writeJSON(w, http.StatusOK, records, "GET", "/api/transfers")
}

func (h *TransactionHandler) HandleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/api/transfers"))
	defer timer.ObserveDuration()

	var record models.TransactionRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/api/transfers", "400").Inc()
		utils.SendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if userID, ok := GetUserIDFromContext(r.Context()); ok && record.Owner == "" {
		record.Owner = userID
	}

	created, err := h.transferService.AddRecord(r.Context(), &record)
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/api/transfers", "500").Inc()
		logger.L.Error("Failed to create transfer record", "error", err)
		utils.SendJSONError(w, "Failed to create transfer record", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created, "POST", "/api/transfers")
}

func (h *TransactionHandler) HandleUpdateTransfer(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("PUT", "/api/transfers/{id}"))
	defer timer.ObserveDuration()

	var record models.TransactionRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		httpRequestsTotal.WithLabelValues("PUT", "/api/transfers/{id}", "400").Inc()
		utils.SendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	record.ID = r.PathValue("id")
	if record.ID == "" {
		httpRequestsTotal.WithLabelValues("PUT", "/api/transfers/{id}", "400").Inc()
		utils.SendJSONError(w, "Missing record id", http.StatusBadRequest)
		return
	}

	updated, err := h.transferService.UpdateRecord(r.Context(), &record)
	if err != nil {
		h.respondServiceError(w, err, "PUT", "/api/transfers/{id}")
		return
	}
	writeJSON(w, http.StatusOK, updated, "PUT", "/api/transfers/{id}")
}

func (h *TransactionHandler) HandleSetTransferStatus(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("PATCH", "/api/transfers/{id}/status"))
	defer timer.ObserveDuration()

	var body struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpRequestsTotal.WithLabelValues("PATCH", "/api/transfers/{id}/status", "400").Inc()
		utils.SendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	updated, err := h.transferService.SetCompleted(r.Context(), r.PathValue("id"), body.Completed)
	if err != nil {
		h.respondServiceError(w, err, "PATCH", "/api/transfers/{id}/status")
		return
	}
	writeJSON(w, http.StatusOK, updated, "PATCH", "/api/transfers/{id}/status")
}

func (h *TransactionHandler) HandleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("DELETE", "/api/transfers/{id}"))
	defer timer.ObserveDuration()

	if err := h.transferService.DeleteRecord(r.Context(), r.PathValue("id")); err != nil {
		h.respondServiceError(w, err, "DELETE", "/api/transfers/{id}")
		return
	}
	httpRequestsTotal.WithLabelValues("DELETE", "/api/transfers/{id}", "204").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// HandleFilterTransfers evaluates one FilterSpec. A response marked
// superseded means a newer filter request arrived while this one ran; the
// client must drop it instead of rendering stale rows.
func (h *TransactionHandler) HandleFilterTransfers(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/api/transfers/filter"))
	defer timer.ObserveDuration()

	var spec models.FilterSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/api/transfers/filter", "400").Inc()
		utils.SendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	outcome, err := h.transferService.Filter(r.Context(), spec)
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/api/transfers/filter", "400").Inc()
		logger.L.Warn("Filter request rejected", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if outcome.Records == nil {
		outcome.Records = []*models.TransactionRecord{}
	}
	writeJSON(w, http.StatusOK, outcome, "POST", "/api/transfers/filter")
}

func (h *TransactionHandler) HandleDailySummary(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", "/api/reports/daily-summary"))
	defer timer.ObserveDuration()

	summaries, err := h.transferService.DailySummary()
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/api/reports/daily-summary", "500").Inc()
		logger.L.Error("Failed to compute daily summary", "error", err)
		utils.SendJSONError(w, "Failed to compute daily summary", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []models.DaySummary{}
	}

	etag, err := utils.GenerateETag(summaries)
	if err == nil {
		if r.Header.Get("If-None-Match") == etag {
			httpRequestsTotal.WithLabelValues("GET", "/api/reports/daily-summary", "304").Inc()
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	writeJSON(w, http.StatusOK, summaries, "GET", "/api/reports/daily-summary")
}

func (h *TransactionHandler) respondServiceError(w http.ResponseWriter, err error, method, endpoint string) {
	if errors.Is(err, services.ErrRecordNotFound) {
		httpRequestsTotal.WithLabelValues(method, endpoint, "404").Inc()
		utils.SendJSONError(w, "Transfer record not found", http.StatusNotFound)
		return
	}
	httpRequestsTotal.WithLabelValues(method, endpoint, "500").Inc()
	logger.L.Error("Transfer request failed", "method", method, "endpoint", endpoint, "error", err)
	utils.SendJSONError(w, "Internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Error encoding JSON response", "method", method, "endpoint", endpoint, "error", err)
	}
}
