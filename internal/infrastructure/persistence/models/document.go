package models

import (
	"time"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for issued documents.
// The (prefix, year, sequence) unique index is the last line of defence against
// two documents sharing a number.
type DocumentModel struct {
	AggregateModel
	Kind             document.Kind             `gorm:"size:32;not null;index"`
	CertificateType  document.CertificateType  `gorm:"size:32"`
	Prefix           string                    `gorm:"size:8;not null;uniqueIndex:idx_documents_number,priority:1"`
	Year             int                       `gorm:"not null;uniqueIndex:idx_documents_number,priority:2"`
	Sequence         int64                     `gorm:"not null;uniqueIndex:idx_documents_number,priority:3"`
	DocumentNumber   string                    `gorm:"size:32;not null;index"`
	Status           document.Status           `gorm:"size:16;not null;index"`
	BillingType      tax.BillingType           `gorm:"size:16"`
	SalePrice        decimal.Decimal           `gorm:"type:decimal(14,2);not null;default:0"`
	HandlingFee      decimal.Decimal           `gorm:"type:decimal(14,2);not null;default:0"`
	VATRate          decimal.Decimal           `gorm:"type:decimal(6,4);not null;default:0"`
	PriceExclTax     decimal.Decimal           `gorm:"type:decimal(14,2);not null;default:0"`
	VATAmount        decimal.Decimal           `gorm:"type:decimal(14,2);not null;default:0"`
	TotalAmount      decimal.Decimal           `gorm:"type:decimal(14,2);not null;default:0"`
	TradeInDeduction decimal.Decimal           `gorm:"type:decimal(14,2);not null;default:0"`
	VehicleID        uuid.UUID                 `gorm:"size:36;not null;index"`
	ClientID         uuid.UUID                 `gorm:"size:36;index"`
	TradeInID        *uuid.UUID                `gorm:"size:36"`
	VehicleSnapshot  *document.VehicleSnapshot `gorm:"type:text;serializer:json"`
	ClientSnapshot   *document.ClientSnapshot  `gorm:"type:text;serializer:json"`
	CompanySnapshot  *document.CompanySnapshot `gorm:"type:text;serializer:json"`
	FinalizedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:text"`
	Void             bool   `gorm:"not null;default:false"`
	ArtifactKey      string `gorm:"size:255"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document
func (m *DocumentModel) ToDomain() *document.Document {
	return &document.Document{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Kind:              m.Kind,
		CertificateType:   m.CertificateType,
		Number:            document.Number{Prefix: m.Prefix, Year: m.Year, Sequence: m.Sequence},
		DocumentNumber:    m.DocumentNumber,
		Status:            m.Status,
		BillingType:       m.BillingType,
		Amounts: document.Amounts{
			SalePrice:        m.SalePrice,
			HandlingFee:      m.HandlingFee,
			VATRate:          m.VATRate,
			PriceExclTax:     m.PriceExclTax,
			VATAmount:        m.VATAmount,
			TotalAmount:      m.TotalAmount,
			TradeInDeduction: m.TradeInDeduction,
		},
		VehicleID:       m.VehicleID,
		ClientID:        m.ClientID,
		TradeInID:       m.TradeInID,
		VehicleSnapshot: m.VehicleSnapshot,
		ClientSnapshot:  m.ClientSnapshot,
		CompanySnapshot: m.CompanySnapshot,
		FinalizedAt:     m.FinalizedAt,
		CancelledAt:     m.CancelledAt,
		CancelReason:    m.CancelReason,
		Void:            m.Void,
		ArtifactKey:     m.ArtifactKey,
	}
}

// DocumentModelFromDomain creates a persistence model from a domain Document
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{
		Kind:             d.Kind,
		CertificateType:  d.CertificateType,
		Prefix:           d.Number.Prefix,
		Year:             d.Number.Year,
		Sequence:         d.Number.Sequence,
		DocumentNumber:   d.DocumentNumber,
		Status:           d.Status,
		BillingType:      d.BillingType,
		SalePrice:        d.Amounts.SalePrice,
		HandlingFee:      d.Amounts.HandlingFee,
		VATRate:          d.Amounts.VATRate,
		PriceExclTax:     d.Amounts.PriceExclTax,
		VATAmount:        d.Amounts.VATAmount,
		TotalAmount:      d.Amounts.TotalAmount,
		TradeInDeduction: d.Amounts.TradeInDeduction,
		VehicleID:        d.VehicleID,
		ClientID:         d.ClientID,
		TradeInID:        d.TradeInID,
		VehicleSnapshot:  d.VehicleSnapshot,
		ClientSnapshot:   d.ClientSnapshot,
		CompanySnapshot:  d.CompanySnapshot,
		FinalizedAt:      d.FinalizedAt,
		CancelledAt:      d.CancelledAt,
		CancelReason:     d.CancelReason,
		Void:             d.Void,
		ArtifactKey:      d.ArtifactKey,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}

// DocumentSequenceModel holds the last issued sequence per (prefix, year).
// Rows are only ever touched by the single-statement upsert in the allocator.
type DocumentSequenceModel struct {
	Prefix    string `gorm:"size:8;primaryKey"`
	Year      int    `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
