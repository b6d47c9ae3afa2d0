package document

import (
	"encoding/json"
	"time"

	stockapp "github.com/autodealer/backend/internal/application/stock"
	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// KindInvoice lets callers ask for "an invoice" and have the billing type pick the family
const KindInvoice = "invoice"

// CreateDocumentRequest represents a request to issue a document
type CreateDocumentRequest struct {
	Kind            string     `json:"kind" binding:"required,oneof=invoice order_form margin_invoice vat_invoice administrative_certificate"`
	CertificateType string     `json:"certificate_type" binding:"omitempty,oneof=cession purchase_declaration registration_request"`
	VehicleID       uuid.UUID  `json:"vehicle_id" binding:"required"`
	ClientID        uuid.UUID  `json:"client_id" binding:"required"`
	BillingType     string     `json:"billing_type" binding:"omitempty,oneof=margin vat"`
	TradeInID       *uuid.UUID `json:"trade_in_id"`
	// SalePrice overrides the vehicle's selling price when set
	SalePrice stockapp.Amount `json:"sale_price"`
}

// CancelDocumentRequest represents a request to cancel a document
type CancelDocumentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// DocumentListFilter represents filter options for document lists and exports
type DocumentListFilter struct {
	Search      string     `form:"search"`
	Kind        string     `form:"kind" binding:"omitempty,oneof=order_form margin_invoice vat_invoice administrative_certificate"`
	Status      string     `form:"status" binding:"omitempty,oneof=draft finalized cancelled"`
	Prefix      string     `form:"prefix" binding:"omitempty,oneof=BC FM FV CC DA DI"`
	Year        int        `form:"year" binding:"omitempty,gte=2000,lte=2100"`
	BillingType string     `form:"billing_type" binding:"omitempty,oneof=margin vat"`
	VehicleID   *uuid.UUID `form:"vehicle_id"`
	ClientID    *uuid.UUID `form:"client_id"`
	IncludeVoid bool       `form:"include_void"`
	IssuedFrom  string     `form:"issued_from" binding:"omitempty,datetime=2006-01-02"`
	IssuedTo    string     `form:"issued_to" binding:"omitempty,datetime=2006-01-02"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TaxQuoteRequest previews the amounts of a sale without issuing anything
type TaxQuoteRequest struct {
	SalePrice    stockapp.Amount `json:"sale_price" binding:"required"`
	BillingType  string          `json:"billing_type" binding:"required,oneof=margin vat"`
	TradeInValue stockapp.Amount `json:"trade_in_value"`
}

// AmountsResponse holds the frozen figures of a document.
// HT and VAT lines are only present under the apparent-VAT regime.
type AmountsResponse struct {
	SalePrice        decimal.Decimal  `json:"sale_price"`
	HandlingFee      decimal.Decimal  `json:"handling_fee"`
	VATRate          *decimal.Decimal `json:"vat_rate,omitempty"`
	PriceExclTax     *decimal.Decimal `json:"price_excl_tax,omitempty"`
	VATAmount        *decimal.Decimal `json:"vat_amount,omitempty"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	TradeInDeduction decimal.Decimal  `json:"trade_in_deduction"`
	BalanceDue       decimal.Decimal  `json:"balance_due"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID              uuid.UUID                 `json:"id"`
	Number          string                    `json:"number"`
	Prefix          string                    `json:"prefix"`
	Year            int                       `json:"year"`
	Sequence        int64                     `json:"sequence"`
	Kind            string                    `json:"kind"`
	CertificateType string                    `json:"certificate_type,omitempty"`
	Status          string                    `json:"status"`
	BillingType     string                    `json:"billing_type,omitempty"`
	TotalAmount     decimal.Decimal           `json:"total_amount"`
	Amounts         *AmountsResponse          `json:"amounts,omitempty"`
	VehicleID       uuid.UUID                 `json:"vehicle_id"`
	ClientID        uuid.UUID                 `json:"client_id"`
	TradeInID       *uuid.UUID                `json:"trade_in_reference,omitempty"`
	VehicleSnapshot *document.VehicleSnapshot `json:"vehicle_snapshot"`
	ClientSnapshot  *document.ClientSnapshot  `json:"client_snapshot"`
	CompanySnapshot *document.CompanySnapshot `json:"company_snapshot"`
	Redownloadable  bool                      `json:"redownloadable"`
	Void            bool                      `json:"void,omitempty"`
	FinalizedAt     *time.Time                `json:"finalized_at,omitempty"`
	CancelledAt     *time.Time                `json:"cancelled_at,omitempty"`
	CancelReason    string                    `json:"cancel_reason,omitempty"`
	ArtifactKey     string                    `json:"artifact_key,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
	// Replayed is set when an Idempotency-Key matched an earlier request
	Replayed bool `json:"replayed,omitempty"`
}

// DocumentListResponse represents a document in list responses
type DocumentListResponse struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	BillingType string          `json:"billing_type,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ClientName  string          `json:"client_name"`
	Vehicle     string          `json:"vehicle"`
	Void        bool            `json:"void,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// HistoryEntryResponse is one lifecycle event of a document
type HistoryEntryResponse struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// TaxQuoteResponse is the result of a tax preview
type TaxQuoteResponse struct {
	BillingType      tax.BillingType  `json:"billing_type"`
	SalePrice        decimal.Decimal  `json:"sale_price"`
	HandlingFee      decimal.Decimal  `json:"handling_fee"`
	VATRate          *decimal.Decimal `json:"vat_rate,omitempty"`
	PriceExclTax     *decimal.Decimal `json:"price_excl_tax,omitempty"`
	VATAmount        *decimal.Decimal `json:"vat_amount,omitempty"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	TradeInDeduction decimal.Decimal  `json:"trade_in_deduction"`
	BalanceDue       decimal.Decimal  `json:"balance_due"`
}

// RenderedDocument is a PDF ready to be served
type RenderedDocument struct {
	Filename string
	Data     []byte
	// FromStore is true when the bytes came from artifact storage
	FromStore bool
}

// ArtifactLinkResponse is a time-limited download link for a stored PDF
type ArtifactLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToDocumentResponse converts a domain Document to DocumentResponse
func ToDocumentResponse(d *document.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:              d.ID,
		Number:          d.DocumentNumber,
		Prefix:          d.Number.Prefix,
		Year:            d.Number.Year,
		Sequence:        d.Number.Sequence,
		Kind:            string(d.Kind),
		CertificateType: string(d.CertificateType),
		Status:          string(d.Status),
		BillingType:     string(d.BillingType),
		TotalAmount:     d.Amounts.TotalAmount,
		VehicleID:       d.VehicleID,
		ClientID:        d.ClientID,
		TradeInID:       d.TradeInID,
		VehicleSnapshot: d.VehicleSnapshot,
		ClientSnapshot:  d.ClientSnapshot,
		CompanySnapshot: d.CompanySnapshot,
		Redownloadable:  d.Redownloadable(),
		Void:            d.Void,
		FinalizedAt:     d.FinalizedAt,
		CancelledAt:     d.CancelledAt,
		CancelReason:    d.CancelReason,
		ArtifactKey:     d.ArtifactKey,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Kind.CarriesAmounts() {
		a := d.Amounts
		amounts := &AmountsResponse{
			SalePrice:        a.SalePrice,
			HandlingFee:      a.HandlingFee,
			TotalAmount:      a.TotalAmount,
			TradeInDeduction: a.TradeInDeduction,
			BalanceDue:       a.BalanceDue(),
		}
		if d.BillingType == tax.BillingTypeVAT {
			amounts.VATRate = &a.VATRate
			amounts.PriceExclTax = &a.PriceExclTax
			amounts.VATAmount = &a.VATAmount
		}
		resp.Amounts = amounts
	}
	return resp
}

// ToDocumentListResponses converts documents for list responses
func ToDocumentListResponses(docs []document.Document) []DocumentListResponse {
	out := make([]DocumentListResponse, len(docs))
	for i := range docs {
		d := &docs[i]
		item := DocumentListResponse{
			ID:          d.ID,
			Number:      d.DocumentNumber,
			Kind:        string(d.Kind),
			Status:      string(d.Status),
			BillingType: string(d.BillingType),
			TotalAmount: d.Amounts.TotalAmount,
			Void:        d.Void,
			CreatedAt:   d.CreatedAt,
		}
		if d.ClientSnapshot != nil {
			item.ClientName = d.ClientSnapshot.FullName()
		}
		if v := d.VehicleSnapshot; v != nil {
			item.Vehicle = v.Brand + " " + v.Model
		}
		out[i] = item
	}
	return out
}

// ToTaxQuoteResponse converts a tax computation
func ToTaxQuoteResponse(c tax.Computation) TaxQuoteResponse {
	resp := TaxQuoteResponse{
		BillingType:      c.BillingType,
		SalePrice:        c.SalePrice,
		HandlingFee:      c.HandlingFee,
		TotalAmount:      c.TotalAmount,
		TradeInDeduction: c.TradeInDeduction,
		BalanceDue:       c.BalanceDue,
	}
	if c.ShowsBreakdown() {
		resp.VATRate = &c.VATRate
		resp.PriceExclTax = &c.PriceExclTax
		resp.VATAmount = &c.VATAmount
	}
	return resp
}
