package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/samply/laplace-go/internal/privacy"
	"github.com/samply/laplace-go/internal/report"
	"github.com/samply/laplace-go/pkg/constants"
	"github.com/samply/laplace-go/pkg/errors"
)

// Handlers contains all HTTP handlers of the obfuscation service
type Handlers struct {
	config  *Config
	metrics *Metrics
	logger  *logrus.Logger
}

// NewHandlers creates the handler set for the service.
func NewHandlers(config *Config, metrics *Metrics, logger *logrus.Logger) *Handlers {
	return &Handlers{
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// Obfuscate rewrites the counts of the posted JSON report and returns the
// obfuscated report. A fresh cache is created per request, so repeated counts
// within one report stay consistent while separate requests draw independent
// noise.
func (h *Handlers) Obfuscate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.metrics.ObserveReport("error")
		h.writeError(w, r, errors.NewSerializationError("failed to read request body", err))
		return
	}
	if len(body) == 0 {
		h.metrics.ObserveReport("error")
		h.writeError(w, r, errors.WrapError(errors.ErrReportEmpty,
			errors.ErrorTypeValidation, "REPORT_EMPTY", "request body is empty"))
		return
	}

	rewriter, err := report.NewRewriter(h.config.Obfuscation, privacy.NewCache(), privacy.NewSource(), h.logger)
	if err != nil {
		h.metrics.ObserveReport("error")
		h.writeError(w, r, err)
		return
	}

	obfuscated, err := rewriter.ObfuscateJSON(body)
	if err != nil {
		h.metrics.ObserveReport("error")
		h.writeError(w, r, err)
		return
	}

	stats := rewriter.Stats()
	for category, n := range stats.ObfuscatedCounts {
		h.metrics.ObserveCounts(category.String(), n)
	}
	h.metrics.ObserveSkippedGroups(stats.SkippedGroups)
	h.metrics.ObserveReport("ok")

	h.logger.WithFields(logrus.Fields{
		"request_id":     getRequestID(r),
		"counts":         stats.ObfuscatedCounts,
		"skipped_groups": stats.SkippedGroups,
	}).Info("Report obfuscated")

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	w.Write(obfuscated)
}

// Health handles health check requests
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, constants.AppVersion)
}

// Version handles version requests
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"name":    constants.AppName,
		"version": constants.AppVersion,
	})
}

// NotFound handles unknown routes
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"error": {"code": "NOT_FOUND", "message": "Resource not found"}}`)
}

// writeError writes a structured error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.GetHTTPStatus(err)
	code := errors.GetErrorCode(err)

	h.logger.WithFields(logrus.Fields{
		"request_id": getRequestID(r),
		"code":       code,
		"error":      err.Error(),
	}).Error("Request failed")

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": err.Error(),
		},
	})
}
