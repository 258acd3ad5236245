package report

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/fbreton/spendguard/internal/document"
	"github.com/fbreton/spendguard/internal/invoice"
)

// Sentinel errors the HTTP layer maps to status codes
var (
	ErrNotFound     = errors.New("report not found")
	ErrNotPaid      = errors.New("payment required")
	ErrBadSignature = errors.New("invalid signature")
)

// defaultTone is applied when the upload form leaves the tone empty
const defaultTone = "Pro"

// IDGenerator generates unique IDs for reports
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates UUID v4 identifiers
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles report operations
type Service struct {
	db          DB
	extractor   document.Extractor
	storage     Storage
	payments    PaymentProvider
	signer      *Signer
	price       *money.Money
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, extractor document.Extractor, storage Storage, payments PaymentProvider, signer *Signer, price *money.Money) *Service {
	return NewServiceWithDeps(db, extractor, storage, payments, signer, price, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor document.Extractor, storage Storage, payments PaymentProvider, signer *Signer, price *money.Money, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		payments:    payments,
		signer:      signer,
		price:       price,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	// Get the extension
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Remove special characters, keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	// Replace multiple spaces with single space
	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	// Trim spaces
	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	// If base is empty after sanitization, use a default
	if base == "" {
		base = "invoice"
	}

	return base + ext
}

// ProcessDocument stores an uploaded invoice, runs the text analysis and
// saves the resulting report. Empty extracted text is not a failure; the
// analysis then records its sentinel values.
func (s *Service) ProcessDocument(filename string, data []byte, contentType, company, name, tone string) (*Report, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	if strings.TrimSpace(tone) == "" {
		tone = defaultTone
	}

	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	text, err := s.extractor.ExtractText(data, contentType)
	if err != nil {
		slog.Error("Failed to extract document text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since extraction failed
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	result := invoice.Analyze(text)

	report := &Report{
		ID:         id,
		Company:    company,
		Name:       name,
		Tone:       tone,
		Vendor:     result.Vendor,
		Currency:   string(result.Currency),
		Total:      result.Total,
		Savings:    result.Savings,
		VATRate:    result.VAT.Rate,
		VATAmount:  result.VAT.Amount,
		Recurrence: string(result.Recurrence),
		Category:   string(result.Category),
		Filename:   savedPath,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.db.SaveReport(report); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving report to database: %w", err)
	}

	return report, nil
}

// GetReport retrieves a report by ID
func (s *Service) GetReport(id string) (*Report, error) {
	report, err := s.db.GetReport(id)
	if err != nil {
		return nil, fmt.Errorf("getting report %s: %w", id, ErrNotFound)
	}
	return report, nil
}

// ListReports returns all reports
func (s *Service) ListReports() ([]*Report, error) {
	reports, err := s.db.ListReports()
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

// DeleteReport removes a report, its document and its ledger entry
func (s *Service) DeleteReport(id string) error {
	report, err := s.db.GetReport(id)
	if err != nil {
		return fmt.Errorf("getting report for deletion: %w", ErrNotFound)
	}

	// Delete file
	if err := s.storage.Delete(report.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete document", "filename", report.Filename, "error", err)
	}

	// Delete from database
	if err := s.db.DeleteReport(id); err != nil {
		return fmt.Errorf("deleting report from database: %w", err)
	}
	return nil
}

// GetReportFile retrieves the stored document for a report. The content
// type is sniffed from the bytes rather than trusted from the upload.
func (s *Service) GetReportFile(id string) ([]byte, string, error) {
	report, err := s.db.GetReport(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting report %s: %w", id, ErrNotFound)
	}

	data, err := s.storage.Get(report.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting report document: %w", err)
	}

	return data, mimetype.Detect(data).String(), nil
}

// CreatePayment opens a payment for a report at the configured price
func (s *Service) CreatePayment(reportID string) (*Payment, error) {
	if _, err := s.db.GetReport(reportID); err != nil {
		return nil, fmt.Errorf("getting report %s for payment: %w", reportID, ErrNotFound)
	}

	payment, err := s.payments.CreatePayment(reportID, s.price)
	if err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}
	return payment, nil
}

// ConfirmPayment marks a report paid once its access token checks out
func (s *Service) ConfirmPayment(reportID, token string) error {
	if !s.signer.Verify(reportID, token) {
		return ErrBadSignature
	}
	if _, err := s.db.GetReport(reportID); err != nil {
		return fmt.Errorf("getting report %s for confirmation: %w", reportID, ErrNotFound)
	}
	if err := s.db.MarkPaid(reportID, s.timeSource.Now()); err != nil {
		return fmt.Errorf("marking report paid: %w", err)
	}
	return nil
}

// IsPaid checks the local ledger first and falls back to the payment
// provider, caching a positive provider answer into the ledger
func (s *Service) IsPaid(reportID string) (bool, error) {
	paid, err := s.db.IsPaid(reportID)
	if err != nil {
		return false, fmt.Errorf("checking payments ledger: %w", err)
	}
	if paid {
		return true, nil
	}

	settled, err := s.payments.IsPaid(reportID)
	if err != nil {
		return false, fmt.Errorf("checking payment provider: %w", err)
	}
	if !settled {
		return false, nil
	}

	if err := s.db.MarkPaid(reportID, s.timeSource.Now()); err != nil {
		return false, fmt.Errorf("caching settled payment: %w", err)
	}
	return true, nil
}

// UnlockReport verifies the access token and payment, then assembles the
// full report
func (s *Service) UnlockReport(reportID, token string) (*FullReport, error) {
	if !s.signer.Verify(reportID, token) {
		return nil, ErrBadSignature
	}

	report, err := s.db.GetReport(reportID)
	if err != nil {
		return nil, fmt.Errorf("getting report %s: %w", reportID, ErrNotFound)
	}

	paid, err := s.IsPaid(reportID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, ErrNotPaid
	}

	return s.assembleFullReport(report), nil
}

// Links returns the signed URLs that gate the paid parts of a report
func (s *Service) Links(reportID string) map[string]string {
	token := s.signer.Sign(reportID)
	return map[string]string{
		"full":    fmt.Sprintf("/api/reports/%s/full?t=%s", reportID, token),
		"confirm": fmt.Sprintf("/api/payments/%s/confirm?t=%s", reportID, token),
	}
}

// AnnualSavings projects a report's savings over a year
func (s *Service) AnnualSavings(r *Report) float64 {
	return annualProjection(r.Savings)
}

// PriceDisplay renders the configured unlock price
func (s *Service) PriceDisplay() string {
	return s.price.Display()
}

// assembleFullReport builds the unlocked view of a stored report
func (s *Service) assembleFullReport(r *Report) *FullReport {
	subject, body := buildEmail(r)
	return &FullReport{
		Report:         *r,
		AnnualSavings:  annualProjection(r.Savings),
		AnnualNote:     annualProjectionNote,
		EmailSubject:   subject,
		EmailBody:      body,
		EmailText:      fmt.Sprintf("Sujet: %s\n\n%s", subject, body),
		Checklist:      negotiationChecklist,
		TotalDisplay:   displayAmount(r.Total, r.Currency),
		SavingsDisplay: displayAmount(r.Savings, r.Currency),
	}
}
