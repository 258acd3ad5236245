package report

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// negotiationChecklist is the action list shipped with every unlocked report
var negotiationChecklist = []string{
	"✅ Envoyer l’email",
	"✅ Demander remise annuelle / downgrade",
	"✅ Vérifier licences inutilisées",
	"✅ Revue mensuelle des abonnements",
}

// annualProjectionNote qualifies the annual figure, which assumes the
// analyzed invoice is a monthly spend
const annualProjectionNote = "(si cette dépense est mensuelle)"

// buildEmail composes the negotiation email for a report
func buildEmail(r *Report) (subject, body string) {
	subject = fmt.Sprintf("Demande d’amélioration tarifaire - %s", r.Company)
	body = fmt.Sprintf(`Bonjour,

Nous utilisons %s. Avant renouvellement, nous souhaitons discuter d’un ajustement tarifaire.
Avez-vous une remise annuelle, une offre fidélité, ou un plan plus adapté ?

Cordialement,
%s`, r.Vendor, r.Name)
	return subject, body
}

// annualProjection multiplies a monthly saving out to a year, rounded
// half to even to two decimals
func annualProjection(savings float64) float64 {
	return decimal.NewFromFloat(savings).Mul(decimal.NewFromInt(12)).RoundBank(2).InexactFloat64()
}

// displayAmount renders an amount through go-money, falling back to a
// plain rendering when the currency code is not a real one
func displayAmount(amount float64, currency string) string {
	code := money.GetCurrency(currency)
	if code == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(code.Fraction)).Round(0).IntPart()
	return money.New(minor, code.Code).Display()
}
