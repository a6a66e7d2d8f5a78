package enums

import "strings"

// DefaultCurrency is applied when a payment request omits the currency.
const DefaultCurrency = "USD"

// NormalizeCurrency trims a currency code, defaulting to USD when empty.
// Codes are stored as supplied and not checked against a registry.
func NormalizeCurrency(value string) string {
	code := strings.TrimSpace(value)
	if code == "" {
		return DefaultCurrency
	}
	return code
}
