package document

import (
	"strings"
	"time"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/google/uuid"
)

// Document is a numbered commercial or administrative document.
// Once finalized or cancelled, its number, amounts and snapshots never change;
// only status and cancellation metadata may move.
type Document struct {
	shared.BaseAggregateRoot
	Kind            Kind
	CertificateType CertificateType
	Number          Number
	DocumentNumber  string
	Status          Status
	BillingType     tax.BillingType
	Amounts         Amounts
	VehicleID       uuid.UUID
	ClientID        uuid.UUID
	TradeInID       *uuid.UUID
	VehicleSnapshot *VehicleSnapshot
	ClientSnapshot  *ClientSnapshot
	CompanySnapshot *CompanySnapshot
	FinalizedAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
	// Void marks a record written for a number that was allocated but whose
	// document could not be saved
	Void        bool
	ArtifactKey string
}

// IssueParams carries everything needed to issue a document
type IssueParams struct {
	Kind            Kind
	CertificateType CertificateType
	Number          Number
	Padding         int
	BillingType     tax.BillingType
	Amounts         Amounts
	VehicleID       uuid.UUID
	ClientID        uuid.UUID
	TradeInID       *uuid.UUID
	VehicleSnapshot *VehicleSnapshot
	ClientSnapshot  *ClientSnapshot
	CompanySnapshot *CompanySnapshot
}

// NewDraft creates a draft document holding an already allocated number
func NewDraft(p IssueParams) (*Document, error) {
	if !p.Kind.IsValid() {
		return nil, shared.NewValidationError("kind", "Unknown document kind: "+string(p.Kind))
	}
	if p.Number.IsZero() || p.Number.Sequence < 1 {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document requires an allocated number")
	}
	if p.Number.Prefix != Prefix(p.Kind, p.CertificateType) {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Number prefix "+p.Number.Prefix+" does not match kind "+string(p.Kind))
	}
	if p.Kind.IsInvoice() && !p.BillingType.IsValid() {
		return nil, shared.NewValidationError("billing_type", "Invoices require a billing type")
	}

	d := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              p.Kind,
		CertificateType:   p.CertificateType,
		Number:            p.Number,
		DocumentNumber:    p.Number.Format(p.Padding),
		Status:            StatusDraft,
		BillingType:       p.BillingType,
		Amounts:           p.Amounts,
		VehicleID:         p.VehicleID,
		ClientID:          p.ClientID,
		TradeInID:         p.TradeInID,
		VehicleSnapshot:   p.VehicleSnapshot,
		ClientSnapshot:    p.ClientSnapshot,
		CompanySnapshot:   p.CompanySnapshot,
	}
	if p.Kind == KindAdministrativeCertificate && d.CertificateType == "" {
		d.CertificateType = CertificateCession
	}
	d.AddDomainEvent(NewDocumentIssuedEvent(d))
	return d, nil
}

// NewFinalized creates a document directly in finalized status
func NewFinalized(p IssueParams) (*Document, error) {
	d, err := NewDraft(p)
	if err != nil {
		return nil, err
	}
	if err := d.Finalize(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewVoid creates the record kept for an allocated number whose document failed to save.
// It carries no amounts so that nothing in the failed figures can stop it from being stored.
func NewVoid(p IssueParams, reason string) *Document {
	now := time.Now()
	d := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              p.Kind,
		CertificateType:   p.CertificateType,
		Number:            p.Number,
		DocumentNumber:    p.Number.Format(p.Padding),
		Status:            StatusCancelled,
		BillingType:       p.BillingType,
		VehicleID:         p.VehicleID,
		ClientID:          p.ClientID,
		TradeInID:         p.TradeInID,
		VehicleSnapshot:   p.VehicleSnapshot,
		ClientSnapshot:    p.ClientSnapshot,
		CompanySnapshot:   p.CompanySnapshot,
		CancelledAt:       &now,
		CancelReason:      "void: " + reason,
		Void:              true,
	}
	d.AddDomainEvent(NewDocumentVoidedEvent(d, reason))
	return d
}

// Finalize transitions draft -> finalized
func (d *Document) Finalize() error {
	if !d.Status.CanTransitionTo(StatusFinalized) {
		return shared.NewDomainError("INVALID_STATE", "Cannot finalize document in "+string(d.Status)+" status")
	}
	now := time.Now()
	d.Status = StatusFinalized
	d.FinalizedAt = &now
	d.UpdatedAt = now
	d.AddDomainEvent(NewDocumentFinalizedEvent(d))
	return nil
}

// Cancel transitions any non-terminal status to cancelled.
// The number stays attached to the document and is never reissued.
func (d *Document) Cancel(reason string) error {
	if !d.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel document in "+string(d.Status)+" status")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("reason", "Cancellation reason is required")
	}
	previous := d.Status
	now := time.Now()
	d.Status = StatusCancelled
	d.CancelledAt = &now
	d.CancelReason = reason
	d.UpdatedAt = now
	d.AddDomainEvent(NewDocumentCancelledEvent(d, previous, reason))
	return nil
}

// Redownloadable reports whether the document can be re-rendered from its own snapshots
func (d *Document) Redownloadable() bool {
	return d.VehicleSnapshot != nil && d.ClientSnapshot != nil
}

// EnsureRenderable returns ErrSnapshotMissing when the document cannot be regenerated
func (d *Document) EnsureRenderable() error {
	if !d.Redownloadable() {
		return ErrSnapshotMissing
	}
	return nil
}

// AttachArtifact records where the rendered artifact was stored.
// This is delivery metadata and does not touch the issued content.
func (d *Document) AttachArtifact(key string) {
	d.ArtifactKey = key
	d.UpdatedAt = time.Now()
}

// IsActive reports a finalized document that was not cancelled
func (d *Document) IsActive() bool {
	return d.Status == StatusFinalized
}

// Prefix returns the numbering family of the document
func (d *Document) Prefix() string {
	return d.Number.Prefix
}
