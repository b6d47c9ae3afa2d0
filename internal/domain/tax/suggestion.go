package tax

import "strings"

// euMembers lists ISO 3166-1 alpha-2 codes of EU member states
var euMembers = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// countryAliases maps common spellings to ISO codes
var countryAliases = map[string]string{
	"FRANCE":      "FR",
	"GERMANY":     "DE",
	"ALLEMAGNE":   "DE",
	"BELGIUM":     "BE",
	"BELGIQUE":    "BE",
	"SPAIN":       "ES",
	"ESPAGNE":     "ES",
	"ITALY":       "IT",
	"ITALIE":      "IT",
	"NETHERLANDS": "NL",
	"PAYS-BAS":    "NL",
	"LUXEMBOURG":  "LU",
	"PORTUGAL":    "PT",
	"AUSTRIA":     "AT",
	"AUTRICHE":    "AT",
}

// SuggestBillingType proposes a regime from the vehicle's origin country.
// Vehicles bought second-hand inside the EU carry no deductible input VAT,
// so the margin scheme applies; imports from outside the EU use apparent VAT.
// An unknown origin defaults to the margin scheme. The engine never enforces this.
func SuggestBillingType(originCountry string) BillingType {
	if IsEUCountry(originCountry) || strings.TrimSpace(originCountry) == "" {
		return BillingTypeMargin
	}
	return BillingTypeVAT
}

// IsEUCountry reports whether the country code or name is an EU member state
func IsEUCountry(country string) bool {
	code := strings.ToUpper(strings.TrimSpace(country))
	if alias, ok := countryAliases[code]; ok {
		code = alias
	}
	_, ok := euMembers[code]
	return ok
}
