package handlers

import (
	"net/http"

	"spaces/internal/api/middleware"
)

type MetricsHandler struct {
	handler http.Handler
}

func NewMetricsHandler(metrics *middleware.Metrics) *MetricsHandler {
	return &MetricsHandler{handler: metrics.Handler()}
}

func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}
