package report

import (
	"fmt"
	"log/slog"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// Payment describes a pending payment opened for unlocking a report
type Payment struct {
	Reference    string `json:"reference"`
	ClientSecret string `json:"client_secret"`
}

// PaymentProvider defines the interface for payment backends
type PaymentProvider interface {
	// CreatePayment opens a payment for a report at the given price
	CreatePayment(reportID string, price *money.Money) (*Payment, error)

	// IsPaid reports whether the provider has settled payment for a report
	IsPaid(reportID string) (bool, error)
}

// ManualProvider is a PaymentProvider with no remote backend. It hands out
// local references and never settles on its own; payments become real only
// through the confirmation endpoint.
type ManualProvider struct{}

// CreatePayment issues a local payment reference and client secret
func (p *ManualProvider) CreatePayment(reportID string, price *money.Money) (*Payment, error) {
	ref := fmt.Sprintf("pay_%s", uuid.NewString())
	slog.Info("Payment opened", "report_id", reportID, "reference", ref, "amount", price.Display())
	return &Payment{
		Reference:    ref,
		ClientSecret: fmt.Sprintf("%s_secret_%s", ref, uuid.NewString()),
	}, nil
}

// IsPaid always reports false for the manual provider
func (p *ManualProvider) IsPaid(reportID string) (bool, error) {
	return false, nil
}
