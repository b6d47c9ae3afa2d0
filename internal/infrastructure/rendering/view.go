package rendering

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.French)

// line is one label/value row of a rendered document
type line struct {
	Label  string
	Value  string
	Strong bool
}

// view is everything a renderer prints, derived from the document alone
type view struct {
	Title     string
	Number    string
	IssuedOn  string
	Cancelled bool
	CancelMsg string
	Company   []string
	Client    []string
	Vehicle   []line
	Amounts   []line
	Mentions  []string
}

func titleFor(doc *document.Document) string {
	switch doc.Kind {
	case document.KindOrderForm:
		return "Bon de commande"
	case document.KindMarginInvoice, document.KindVATInvoice:
		return "Facture"
	case document.KindAdministrativeCertificate:
		switch doc.CertificateType {
		case document.CertificatePurchaseDeclaration:
			return "Déclaration d'achat"
		case document.CertificateRegistrationRequest:
			return "Demande d'immatriculation"
		default:
			return "Certificat de cession"
		}
	}
	return "Document"
}

// buildView reads the snapshots and frozen amounts of doc
func buildView(doc *document.Document) (*view, error) {
	if err := doc.EnsureRenderable(); err != nil {
		return nil, err
	}

	issued := doc.CreatedAt
	if doc.FinalizedAt != nil {
		issued = *doc.FinalizedAt
	}

	v := &view{
		Title:     titleFor(doc),
		Number:    doc.DocumentNumber,
		IssuedOn:  formatDate(issued),
		Cancelled: doc.Status == document.StatusCancelled,
	}
	if v.Cancelled {
		v.CancelMsg = "ANNULÉ"
		if doc.CancelReason != "" {
			v.CancelMsg += " : " + doc.CancelReason
		}
	}

	if c := doc.CompanySnapshot; c != nil {
		v.Company = nonEmpty(c.Name, c.Address, joinSpace(c.PostalCode, c.City), c.Phone, c.Email)
		if c.LegalID != "" {
			v.Company = append(v.Company, "SIRET "+c.LegalID)
		}
		if c.VATNumber != "" {
			v.Company = append(v.Company, "TVA intracom. "+c.VATNumber)
		}
	}

	cl := doc.ClientSnapshot
	v.Client = nonEmpty(cl.FullName(), cl.Address, joinSpace(cl.PostalCode, cl.City), cl.Phone, cl.Email)

	vs := doc.VehicleSnapshot
	v.Vehicle = []line{
		{Label: "Véhicule", Value: joinSpace(vs.Brand, vs.Model, vs.Trim)},
		{Label: "VIN", Value: vs.VIN},
		{Label: "Année", Value: yearOrDash(vs.Year)},
		{Label: "Kilométrage", Value: printer.Sprintf("%d km", vs.Mileage)},
		{Label: "Couleur", Value: dashIfEmpty(vs.Color)},
	}
	if vs.RegistrationPlate != "" {
		v.Vehicle = append(v.Vehicle, line{Label: "Immatriculation", Value: vs.RegistrationPlate})
	}

	if doc.Kind.CarriesAmounts() {
		v.Amounts, v.Mentions = amountLines(doc)
	}
	return v, nil
}

func amountLines(doc *document.Document) ([]line, []string) {
	a := doc.Amounts
	var lines []line
	var mentions []string

	if doc.BillingType == tax.BillingTypeVAT {
		lines = append(lines,
			line{Label: "Prix du véhicule HT", Value: formatMoney(a.PriceExclTax)},
			line{Label: fmt.Sprintf("TVA %s %%", formatRate(a.VATRate)), Value: formatMoney(a.VATAmount)},
			line{Label: "Frais de mise à la route", Value: formatMoney(a.HandlingFee)},
		)
	} else {
		lines = append(lines,
			line{Label: "Prix du véhicule", Value: formatMoney(a.SalePrice)},
			line{Label: "Frais de mise à la route", Value: formatMoney(a.HandlingFee)},
		)
		mentions = append(mentions, "TVA sur la marge, régime particulier des biens d'occasion (art. 297 A du CGI)")
	}
	lines = append(lines, line{Label: "Total TTC", Value: formatMoney(a.TotalAmount), Strong: true})

	if a.TradeInDeduction.IsPositive() {
		lines = append(lines,
			line{Label: "Reprise véhicule (pour information)", Value: "- " + formatMoney(a.TradeInDeduction)},
			line{Label: "Reste à régler", Value: formatMoney(a.BalanceDue())},
		)
	}
	return lines, mentions
}

// formatMoney renders 30350 as "30 350,00 €" without going through float64
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return sign + strings.Replace(fixed, ".", ",", 1) + " €"
	}
	return sign + printer.Sprintf("%d", n) + "," + frac + " €"
}

func formatRate(rate decimal.Decimal) string {
	return strings.Replace(rate.Mul(decimal.NewFromInt(100)).String(), ".", ",", 1)
}

func yearOrDash(y int) string {
	if y == 0 {
		return "-"
	}
	return strconv.Itoa(y)
}

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func joinSpace(parts ...string) string {
	return strings.Join(nonEmpty(parts...), " ")
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
