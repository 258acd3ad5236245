package report

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// uploadResponse is the 201 payload: the stored report plus the signed
// URLs gating its paid parts
type uploadResponse struct {
	Report *Report           `json:"report"`
	Links  map[string]string `json:"links"`
}

// previewResponse is the free view of a report
type previewResponse struct {
	*Report
	Paid          bool    `json:"paid"`
	AnnualSavings float64 `json:"annual_savings"`
}

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// statusFromError maps service errors to HTTP status codes
func statusFromError(err error) int {
	switch {
	case errors.Is(err, ErrBadSignature):
		return http.StatusForbidden
	case errors.Is(err, ErrNotPaid):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "running"}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListReports returns a list of all reports
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.service.ListReports()
	if err != nil {
		slog.Error("Error listing reports", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if reports == nil {
		reports = []*Report{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reports); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUploadReport handles invoice upload and analysis
func (s *Server) handleUploadReport(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form (max 50MB to handle scanned multi-page invoices)
	maxFormSize := int64(50 << 20) // 50MB
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		json.NewEncoder(w).Encode(map[string]string{
			"error": errorMsg,
		})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		json.NewEncoder(w).Encode(map[string]string{
			"error": errorMsg,
		})
		return
	}
	defer f.Close()

	// Check file size before reading
	if header.Size > maxFormSize {
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "File is too large. Maximum size is 50MB.",
		})
		return
	}

	company := strings.TrimSpace(r.FormValue("company_name"))
	name := strings.TrimSpace(r.FormValue("signature_name"))
	tone := r.FormValue("tone")
	if company == "" || name == "" {
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "company_name and signature_name are required",
		})
		return
	}

	// Read file data
	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Error reading file. Please try again.",
		})
		return
	}

	// Determine content type
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".pdf":
			contentType = "application/pdf"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	// Analyze invoice
	report, err := s.service.ProcessDocument(header.Filename, data, contentType, company, name, tone)
	if err != nil {
		slog.Error("Error processing document", "filename", header.Filename, "error", err)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}

	response := uploadResponse{
		Report: report,
		Links:  s.service.Links(report.ID),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetReport returns the free preview of a report
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Report ID required", http.StatusBadRequest)
		return
	}
	report, err := s.service.GetReport(id)
	if err != nil {
		corsError(w, "Report not found", http.StatusNotFound)
		return
	}

	paid, err := s.service.IsPaid(id)
	if err != nil {
		slog.Error("Error checking payment status", "report_id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := previewResponse{
		Report:        report,
		Paid:          paid,
		AnnualSavings: s.service.AnnualSavings(report),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUnlockReport returns the full report once token and payment check out
func (s *Server) handleUnlockReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Report ID required", http.StatusBadRequest)
		return
	}

	full, err := s.service.UnlockReport(id, r.URL.Query().Get("t"))
	if err != nil {
		status := statusFromError(err)
		switch status {
		case http.StatusForbidden:
			corsError(w, "Invalid link", status)
		case http.StatusPaymentRequired:
			corsError(w, "Payment required", status)
		case http.StatusNotFound:
			corsError(w, "Report not found", status)
		default:
			slog.Error("Error unlocking report", "report_id", id, "error", err)
			corsError(w, "Internal server error", status)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(full); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetReportFile returns the stored document for a report
func (s *Server) handleGetReportFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Report ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetReportFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteReport deletes a report
func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Report ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteReport(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Report not found", http.StatusNotFound)
			return
		}
		corsError(w, "Error deleting report", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCreatePayment opens a payment for a report
func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReportID string `json:"report_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payment, err := s.service.CreatePayment(req.ReportID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Report not found", http.StatusNotFound)
			return
		}
		slog.Error("Error creating payment", "report_id", req.ReportID, "error", err)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}

	response := map[string]string{
		"client_secret": payment.ClientSecret,
		"reference":     payment.Reference,
		"amount":        s.service.PriceDisplay(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleConfirmPayment is the payment callback: it marks the report paid
func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Report ID required", http.StatusBadRequest)
		return
	}

	if err := s.service.ConfirmPayment(id, r.URL.Query().Get("t")); err != nil {
		switch {
		case errors.Is(err, ErrBadSignature):
			corsError(w, "Invalid link", http.StatusForbidden)
		case errors.Is(err, ErrNotFound):
			corsError(w, "Report not found", http.StatusNotFound)
		default:
			slog.Error("Error confirming payment", "report_id", id, "error", err)
			corsError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]bool{"received": true}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
