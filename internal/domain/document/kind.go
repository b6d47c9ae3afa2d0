package document

import "github.com/autodealer/backend/internal/domain/tax"

// Kind identifies a family of numbered documents
type Kind string

const (
	KindOrderForm                 Kind = "order_form"
	KindMarginInvoice             Kind = "margin_invoice"
	KindVATInvoice                Kind = "vat_invoice"
	KindAdministrativeCertificate Kind = "administrative_certificate"
)

// IsValid checks if the kind is known
func (k Kind) IsValid() bool {
	switch k {
	case KindOrderForm, KindMarginInvoice, KindVATInvoice, KindAdministrativeCertificate:
		return true
	}
	return false
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// IsInvoice reports whether the kind is a sales invoice
func (k Kind) IsInvoice() bool {
	return k == KindMarginInvoice || k == KindVATInvoice
}

// CarriesAmounts reports whether the document prints a tax computation
func (k Kind) CarriesAmounts() bool {
	return k != KindAdministrativeCertificate
}

// CertificateType is the administrative form behind a certificate
type CertificateType string

const (
	// CertificateCession is the transfer certificate signed when a vehicle changes hands
	CertificateCession CertificateType = "cession"
	// CertificatePurchaseDeclaration is the dealer's declaration of purchase
	CertificatePurchaseDeclaration CertificateType = "purchase_declaration"
	// CertificateRegistrationRequest is the registration application filed for the buyer
	CertificateRegistrationRequest CertificateType = "registration_request"
)

// IsValid checks if the certificate type is known
func (c CertificateType) IsValid() bool {
	switch c {
	case CertificateCession, CertificatePurchaseDeclaration, CertificateRegistrationRequest:
		return true
	}
	return false
}

// Document family prefixes; each has its own yearly sequence
const (
	PrefixOrderForm           = "BC"
	PrefixMarginInvoice       = "FM"
	PrefixVATInvoice          = "FV"
	PrefixCession             = "CC"
	PrefixPurchaseDeclaration = "DA"
	PrefixRegistrationRequest = "DI"
)

// Prefix returns the numbering family for a kind.
// certificateType is only read for administrative certificates.
func Prefix(kind Kind, certificateType CertificateType) string {
	switch kind {
	case KindOrderForm:
		return PrefixOrderForm
	case KindMarginInvoice:
		return PrefixMarginInvoice
	case KindVATInvoice:
		return PrefixVATInvoice
	case KindAdministrativeCertificate:
		switch certificateType {
		case CertificatePurchaseDeclaration:
			return PrefixPurchaseDeclaration
		case CertificateRegistrationRequest:
			return PrefixRegistrationRequest
		default:
			return PrefixCession
		}
	}
	return ""
}

// InvoiceKindFor maps a billing regime to its invoice family
func InvoiceKindFor(billingType tax.BillingType) Kind {
	if billingType == tax.BillingTypeVAT {
		return KindVATInvoice
	}
	return KindMarginInvoice
}

// KnownPrefixes lists every numbering family
func KnownPrefixes() []string {
	return []string{
		PrefixOrderForm,
		PrefixMarginInvoice,
		PrefixVATInvoice,
		PrefixCession,
		PrefixPurchaseDeclaration,
		PrefixRegistrationRequest,
	}
}
