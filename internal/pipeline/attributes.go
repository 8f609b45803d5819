package pipeline

import (
	"regexp"
	"strings"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

// Separators are required so bare account numbers are never taken for phone numbers.
var phonePattern = regexp.MustCompile(`(?:\+?1[\s.-])?\(?\b\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}\b`)

var visitReasons = []struct {
	keywords []string
	reason   string
}{
	{keywords: []string{"open an account", "new account", "abrir una cuenta", "cuenta nueva"}, reason: "account opening"},
	{keywords: []string{"close my account", "cerrar mi cuenta"}, reason: "account closing"},
	{keywords: []string{"lost my card", "stolen", "debit card", "credit card", "tarjeta"}, reason: "card services"},
	{keywords: []string{"loan", "mortgage", "préstamo", "prestamo", "hipoteca"}, reason: "loan inquiry"},
	{keywords: []string{"wire", "transfer", "transferencia"}, reason: "transfer"},
	{keywords: []string{"deposit", "depositar", "depósito"}, reason: "deposit"},
	{keywords: []string{"withdraw", "retirar"}, reason: "withdrawal"},
	{keywords: []string{"balance", "saldo"}, reason: "balance inquiry"},
	{keywords: []string{"cash a check", "cashier's check", "checkbook", "cheque"}, reason: "check services"},
}

// ExtractAttributes pulls customer details out of one utterance. The name comes from the
// first PERSON entity.
func ExtractAttributes(text string, entities []domain.Entity) domain.CustomerAttributes {
	var attrs domain.CustomerAttributes

	for _, e := range entities {
		if e.Type == domain.EntityPerson {
			attrs.Name = e.Text
			break
		}
	}

	if phone := phonePattern.FindString(text); phone != "" {
		attrs.Phone = strings.TrimSpace(phone)
	}

	lower := strings.ToLower(text)
	for _, vr := range visitReasons {
		for _, kw := range vr.keywords {
			if strings.Contains(lower, kw) {
				attrs.VisitReason = vr.reason
				return attrs
			}
		}
	}
	return attrs
}
