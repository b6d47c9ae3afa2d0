// Package document issues, finalizes and cancels numbered documents.
//
// A number returned by the SequenceAllocator is consumed for good. Everything
// that can reject a request runs before allocation; a failure after allocation
// is recorded as a void document holding the burned number.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/autodealer/backend/internal/domain/partner"
	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/autodealer/backend/internal/domain/tradein"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors of the issuing workflow
var (
	ErrRequestInProgress      = shared.NewDomainError("REQUEST_IN_PROGRESS", "A request with this Idempotency-Key is still being processed")
	ErrIdempotencyKeyConsumed = shared.NewDomainError("IDEMPOTENCY_KEY_CONSUMED", "This Idempotency-Key already consumed a document number that could not be saved; retry with a new key")
	ErrRenderingUnavailable   = shared.NewDomainError("RENDERING_UNAVAILABLE", "Document rendering is not configured")
	ErrExportUnavailable      = shared.NewDomainError("EXPORT_UNAVAILABLE", "Document register export is not configured")
	ErrArtifactNotStored      = shared.NewDomainError("ARTIFACT_NOT_STORED", "No stored PDF exists for this document yet")
)

const (
	idempotencyScope  = "documents:create:"
	consumedMarker    = "consumed:"
	pdfContentType    = "application/pdf"
	maxLifecycleTries = 3
)

// LedgerSettings holds the configurable parts of the ledger
type LedgerSettings struct {
	Padding              int
	MaxAllocationRetries int
	IdempotencyTTL       time.Duration
	ExportLimit          int
	Company              document.CompanySnapshot
	// Clock must be the one the allocator reads the year from
	Clock document.Clock
}

func (s LedgerSettings) withDefaults() LedgerSettings {
	if s.Clock == nil {
		s.Clock = document.SystemClock
	}
	if s.Padding < 1 {
		s.Padding = document.DefaultPadding
	}
	if s.MaxAllocationRetries < 1 {
		s.MaxAllocationRetries = 3
	}
	if s.IdempotencyTTL <= 0 {
		s.IdempotencyTTL = shared.DefaultIdempotencyConfig().TTL
	}
	if s.ExportLimit < 1 {
		s.ExportLimit = 5000
	}
	return s
}

// LedgerService is the document ledger
type LedgerService struct {
	documents document.DocumentRepository
	vehicles  stock.VehicleRepository
	clients   partner.ClientRepository
	tradeIns  tradein.TradeInRepository
	allocator document.SequenceAllocator
	engine    *tax.Engine
	settings  LedgerSettings
	logger    *zap.Logger

	publisher   shared.EventPublisher
	idempotency shared.IdempotencyStore
	artifacts   ArtifactStore
	renderer    Renderer
	exporter    RegisterExporter
	history     document.HistoryRepository
	metrics     Metrics
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	documents document.DocumentRepository,
	vehicles stock.VehicleRepository,
	clients partner.ClientRepository,
	tradeIns tradein.TradeInRepository,
	allocator document.SequenceAllocator,
	engine *tax.Engine,
	settings LedgerSettings,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		documents: documents,
		vehicles:  vehicles,
		clients:   clients,
		tradeIns:  tradeIns,
		allocator: allocator,
		engine:    engine,
		settings:  settings.withDefaults(),
		logger:    logger,
		metrics:   NopMetrics{},
	}
}

// SetEventPublisher sets the publisher for document lifecycle events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetIdempotencyStore enables Idempotency-Key handling on creation
func (s *LedgerService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetRendering sets the PDF renderer and, optionally, the store keeping rendered files
func (s *LedgerService) SetRendering(renderer Renderer, artifacts ArtifactStore) {
	s.renderer = renderer
	s.artifacts = artifacts
}

// SetExporter sets the register exporter
func (s *LedgerService) SetExporter(exporter RegisterExporter) {
	s.exporter = exporter
}

// SetHistoryRepository sets the audit trail source
func (s *LedgerService) SetHistoryRepository(history document.HistoryRepository) {
	s.history = history
}

// SetMetrics sets the ledger metrics sink
func (s *LedgerService) SetMetrics(metrics Metrics) {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	s.metrics = metrics
}

// Create issues a finalized document
func (s *LedgerService) Create(ctx context.Context, req CreateDocumentRequest, idempotencyKey string) (*DocumentResponse, error) {
	return s.create(ctx, req, idempotencyKey, false)
}

// CreateDraft issues a draft document. The number is allocated immediately.
func (s *LedgerService) CreateDraft(ctx context.Context, req CreateDocumentRequest, idempotencyKey string) (*DocumentResponse, error) {
	return s.create(ctx, req, idempotencyKey, true)
}

func (s *LedgerService) create(ctx context.Context, req CreateDocumentRequest, idempotencyKey string, draft bool) (*DocumentResponse, error) {
	key := strings.TrimSpace(idempotencyKey)
	if key == "" || s.idempotency == nil {
		doc, err := s.issue(ctx, req, draft)
		if err != nil {
			return nil, err
		}
		response := ToDocumentResponse(doc)
		return &response, nil
	}

	key = idempotencyScope + key
	if response, done, err := s.replay(ctx, key); done {
		return response, err
	}
	claimed, err := s.idempotency.Claim(ctx, key, s.settings.IdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if !claimed {
		return nil, ErrRequestInProgress
	}

	doc, err := s.issue(ctx, req, draft)
	storeCtx := context.WithoutCancel(ctx)
	if err != nil {
		// a retry under this key must not burn another number
		if marker, consumed := consumedResult(err); consumed {
			if rerr := s.idempotency.Resolve(storeCtx, key, marker, s.settings.IdempotencyTTL); rerr != nil {
				s.logger.Warn("failed to record consumed idempotency key", zap.Error(rerr))
			}
		} else if rerr := s.idempotency.Release(storeCtx, key); rerr != nil {
			s.logger.Warn("failed to release idempotency key", zap.Error(rerr))
		}
		return nil, err
	}
	if rerr := s.idempotency.Resolve(storeCtx, key, doc.ID.String(), s.settings.IdempotencyTTL); rerr != nil {
		s.logger.Warn("failed to resolve idempotency key",
			zap.String("document_id", doc.ID.String()),
			zap.Error(rerr),
		)
	}
	response := ToDocumentResponse(doc)
	return &response, nil
}

// consumedResult is the idempotency result kept for a failure that used up,
// or may have used up, a document number
func consumedResult(err error) (string, bool) {
	var pf *document.PersistenceFailure
	if errors.As(err, &pf) {
		return consumedMarker + pf.Formatted, true
	}
	var ua *document.UncertainAllocation
	if errors.As(err, &ua) {
		return fmt.Sprintf("%s%s-%d-?", consumedMarker, ua.Prefix, ua.Year), true
	}
	return "", false
}

// replay answers a request whose key was already seen. done is false for a fresh key.
func (s *LedgerService) replay(ctx context.Context, key string) (*DocumentResponse, bool, error) {
	result, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, true, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	if result == "" {
		return nil, true, ErrRequestInProgress
	}
	if strings.HasPrefix(result, consumedMarker) {
		return nil, true, ErrIdempotencyKeyConsumed
	}
	id, err := uuid.Parse(result)
	if err != nil {
		return nil, true, fmt.Errorf("corrupt idempotency result %q: %w", result, err)
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, true, err
	}
	response := ToDocumentResponse(doc)
	response.Replayed = true
	return &response, true, nil
}

// issue validates the request, then allocates and persists
func (s *LedgerService) issue(ctx context.Context, req CreateDocumentRequest, draft bool) (*document.Document, error) {
	params, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.allocateAndSave(ctx, params, draft)
}

// prepare runs every check that may reject the request. Nothing is consumed here.
func (s *LedgerService) prepare(ctx context.Context, req CreateDocumentRequest) (document.IssueParams, error) {
	kind, billing, err := resolveKind(req.Kind, tax.BillingType(req.BillingType))
	if err != nil {
		return document.IssueParams{}, err
	}
	certificate := document.CertificateType(req.CertificateType)
	if kind == document.KindAdministrativeCertificate {
		if certificate == "" {
			certificate = document.CertificateCession
		}
		if !certificate.IsValid() {
			return document.IssueParams{}, shared.NewValidationError("certificate_type", "Unknown certificate type: "+req.CertificateType)
		}
	} else {
		certificate = ""
	}

	vehicle, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return document.IssueParams{}, shared.NewValidationError("vehicle_id", "Vehicle not found")
		}
		return document.IssueParams{}, err
	}
	client, err := s.clients.FindByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return document.IssueParams{}, shared.NewValidationError("client_id", "Client not found")
		}
		return document.IssueParams{}, err
	}
	if kind == document.KindAdministrativeCertificate && !vehicle.HasRegistrationPlate() {
		return document.IssueParams{}, document.ErrMissingRegistrationPlate
	}

	tradeInID, tradeInValue, err := s.resolveTradeIn(ctx, req.TradeInID, vehicle.ID, kind)
	if err != nil {
		return document.IssueParams{}, err
	}

	var amounts document.Amounts
	if kind.CarriesAmounts() {
		price := vehicle.SellingPrice
		if req.SalePrice.IsSet() {
			if price, err = req.SalePrice.Parse("sale_price"); err != nil {
				return document.IssueParams{}, err
			}
		}
		if !price.IsPositive() {
			return document.IssueParams{}, shared.NewValidationError("sale_price", "Vehicle has no selling price")
		}
		if billing == "" {
			billing = tax.SuggestBillingType(vehicle.OriginCountry)
		}
		computation, err := s.compute(price, billing, tradeInValue)
		if err != nil {
			return document.IssueParams{}, err
		}
		amounts = document.AmountsFrom(computation)
	}

	company := s.settings.Company
	return document.IssueParams{
		Kind:            kind,
		CertificateType: certificate,
		Padding:         s.settings.Padding,
		BillingType:     billing,
		Amounts:         amounts,
		VehicleID:       vehicle.ID,
		ClientID:        client.ID,
		TradeInID:       tradeInID,
		VehicleSnapshot: document.SnapshotVehicle(vehicle),
		ClientSnapshot:  document.SnapshotClient(client),
		CompanySnapshot: &company,
	}, nil
}

// resolveKind maps the requested kind and billing type onto a document family
func resolveKind(requested string, billing tax.BillingType) (document.Kind, tax.BillingType, error) {
	if billing != "" && !billing.IsValid() {
		return "", "", shared.NewValidationError("billing_type", "Unknown billing type: "+string(billing))
	}
	switch requested {
	case KindInvoice:
		if billing == "" {
			return "", "", shared.NewValidationError("billing_type", "Invoices require a billing type")
		}
		return document.InvoiceKindFor(billing), billing, nil
	case string(document.KindMarginInvoice), string(document.KindVATInvoice):
		kind := document.Kind(requested)
		expected := tax.BillingTypeMargin
		if kind == document.KindVATInvoice {
			expected = tax.BillingTypeVAT
		}
		if billing != "" && billing != expected {
			return "", "", shared.NewValidationError("billing_type", "Billing type "+string(billing)+" does not match "+requested)
		}
		return kind, expected, nil
	case string(document.KindAdministrativeCertificate):
		return document.KindAdministrativeCertificate, "", nil
	}
	kind := document.Kind(requested)
	if !kind.IsValid() {
		return "", "", shared.NewValidationError("kind", "Unknown document kind: "+requested)
	}
	return kind, billing, nil
}

// resolveTradeIn returns the trade-in to reference and the value deducted on the document.
// Amount-carrying documents pick up the sale's trade-in on their own.
func (s *LedgerService) resolveTradeIn(ctx context.Context, requested *uuid.UUID, vehicleID uuid.UUID, kind document.Kind) (*uuid.UUID, decimal.Decimal, error) {
	var link *tradein.TradeIn
	if requested != nil {
		t, err := s.tradeIns.FindByID(ctx, *requested)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, decimal.Zero, shared.NewValidationError("trade_in_id", "Trade-in not found")
			}
			return nil, decimal.Zero, err
		}
		if t.SaleVehicleID != vehicleID && t.TradeInVehicleID != vehicleID {
			return nil, decimal.Zero, shared.NewValidationError("trade_in_id", "Trade-in does not concern this vehicle")
		}
		link = t
	} else if kind.CarriesAmounts() {
		t, err := s.tradeIns.FindBySaleVehicle(ctx, vehicleID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, decimal.Zero, err
		}
		link = t
	}
	if link == nil {
		return nil, decimal.Zero, nil
	}

	id := link.ID
	value := decimal.Zero
	if link.SaleVehicleID == vehicleID {
		value = link.Value
	}
	return &id, value, nil
}

// allocateAndSave binds a fresh number to the document and stores it.
// Lost races are retried with a new number; any other failure after
// allocation produces a void record and a PersistenceFailure.
func (s *LedgerService) allocateAndSave(ctx context.Context, params document.IssueParams, draft bool) (*document.Document, error) {
	prefix := document.Prefix(params.Kind, params.CertificateType)
	start := time.Now()
	year := s.settings.Clock().Year()
	var lastErr error

	for attempt := 1; attempt <= s.settings.MaxAllocationRetries; attempt++ {
		number, err := s.allocator.Next(ctx, prefix)
		if err != nil {
			if errors.Is(err, document.ErrAllocationConflict) {
				lastErr = err
				s.metrics.AllocationConflict(ctx, prefix)
				s.logger.Warn("sequence allocation conflict, retrying",
					zap.String("prefix", prefix),
					zap.Int("attempt", attempt),
				)
				continue
			}
			if errors.Is(err, document.ErrAllocationOutcomeUnknown) {
				s.logger.Error("sequence allocation outcome unknown, a number may be missing from the register",
					zap.String("prefix", prefix),
					zap.Int("year", year),
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
				return nil, &document.UncertainAllocation{Prefix: prefix, Year: year, Cause: err}
			}
			return nil, &document.AllocationError{Prefix: prefix, Year: year, Attempts: attempt, Cause: err}
		}
		year = number.Year
		params.Number = number

		var doc *document.Document
		if draft {
			doc, err = document.NewDraft(params)
		} else {
			doc, err = document.NewFinalized(params)
		}
		if err != nil {
			return nil, s.recordVoid(ctx, params, err)
		}

		err = s.documents.Create(ctx, doc)
		if err == nil {
			s.metrics.DocumentIssued(ctx, prefix, doc.Status, time.Since(start))
			s.logger.Info("document issued",
				zap.String("document_id", doc.ID.String()),
				zap.String("number", doc.DocumentNumber),
				zap.String("prefix", prefix),
				zap.Int("year", number.Year),
				zap.Int64("sequence", number.Sequence),
				zap.String("status", string(doc.Status)),
				zap.String("total_amount", doc.Amounts.TotalAmount.StringFixed(2)),
			)
			s.publish(ctx, doc)
			return doc, nil
		}
		if errors.Is(err, document.ErrDuplicateNumber) {
			// the number already belongs to another document, so nothing was burned
			lastErr = err
			s.metrics.AllocationConflict(ctx, prefix)
			s.logger.Warn("allocated number already taken, retrying",
				zap.String("number", doc.DocumentNumber),
				zap.Int("attempt", attempt),
			)
			continue
		}
		return nil, s.recordVoid(ctx, params, err)
	}

	s.logger.Error("sequence allocation exhausted",
		zap.String("prefix", prefix),
		zap.Int("attempts", s.settings.MaxAllocationRetries),
		zap.Error(lastErr),
	)
	return nil, &document.AllocationError{
		Prefix:   prefix,
		Year:     year,
		Attempts: s.settings.MaxAllocationRetries,
		Cause:    lastErr,
	}
}

// recordVoid writes the void record for a consumed number and builds the failure.
// It runs on a context detached from the request so a cancelled caller still leaves a trace.
func (s *LedgerService) recordVoid(ctx context.Context, params document.IssueParams, cause error) error {
	ctx = context.WithoutCancel(ctx)
	void := document.NewVoid(params, cause.Error())
	failure := &document.PersistenceFailure{
		Number:    params.Number,
		Formatted: void.DocumentNumber,
		Cause:     cause,
	}

	if err := s.documents.Create(ctx, void); err != nil {
		s.logger.Error("void record could not be saved",
			zap.String("number", void.DocumentNumber),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
	} else {
		failure.VoidRecorded = true
		s.metrics.DocumentVoided(ctx, params.Number.Prefix)
		s.publish(ctx, void)
	}

	s.logger.Error("document number issued but not saved",
		zap.String("number", void.DocumentNumber),
		zap.String("prefix", params.Number.Prefix),
		zap.Int("year", params.Number.Year),
		zap.Int64("sequence", params.Number.Sequence),
		zap.Bool("void_recorded", failure.VoidRecorded),
		zap.Error(cause),
	)
	return failure
}

// Finalize moves a draft to finalized
func (s *LedgerService) Finalize(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.transition(ctx, id, func(d *document.Document) error {
		return d.Finalize()
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("document finalized",
		zap.String("document_id", doc.ID.String()),
		zap.String("number", doc.DocumentNumber),
	)
	response := ToDocumentResponse(doc)
	return &response, nil
}

// Cancel cancels a draft or finalized document. Its number is never reissued.
func (s *LedgerService) Cancel(ctx context.Context, id uuid.UUID, req CancelDocumentRequest) (*DocumentResponse, error) {
	doc, err := s.transition(ctx, id, func(d *document.Document) error {
		return d.Cancel(req.Reason)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.DocumentCancelled(ctx, doc.Prefix())
	s.logger.Info("document cancelled",
		zap.String("document_id", doc.ID.String()),
		zap.String("number", doc.DocumentNumber),
		zap.String("reason", doc.CancelReason),
	)
	response := ToDocumentResponse(doc)
	return &response, nil
}

// transition applies a lifecycle change, reloading when another writer got there first
func (s *LedgerService) transition(ctx context.Context, id uuid.UUID, apply func(*document.Document) error) (*document.Document, error) {
	for attempt := 1; ; attempt++ {
		doc, err := s.documents.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := apply(doc); err != nil {
			return nil, err
		}
		err = s.documents.UpdateLifecycle(ctx, doc)
		if err == nil {
			s.publish(ctx, doc)
			return doc, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= maxLifecycleTries {
			return nil, err
		}
	}
}

// GetByID retrieves a document
func (s *LedgerService) GetByID(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(doc)
	return &response, nil
}

// List retrieves documents with filtering and pagination. Void records are hidden unless asked for.
func (s *LedgerService) List(ctx context.Context, filter DocumentListFilter) ([]DocumentListResponse, int64, error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	docs, err := s.documents.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.documents.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToDocumentListResponses(docs), total, nil
}

func toDomainFilter(filter DocumentListFilter) (shared.Filter, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	f.Search = filter.Search

	set := func(key, value string) {
		if value != "" {
			f.Filters[key] = value
		}
	}
	set("kind", filter.Kind)
	set("status", filter.Status)
	set("prefix", strings.ToUpper(filter.Prefix))
	set("billing_type", filter.BillingType)
	if filter.Year > 0 {
		f.Filters["year"] = filter.Year
	}
	if filter.VehicleID != nil {
		f.Filters["vehicle_id"] = *filter.VehicleID
	}
	if filter.ClientID != nil {
		f.Filters["client_id"] = *filter.ClientID
	}
	if !filter.IncludeVoid {
		f.Filters["void"] = false
	}
	if filter.IssuedFrom != "" {
		from, err := time.Parse(time.DateOnly, filter.IssuedFrom)
		if err != nil {
			return shared.Filter{}, shared.NewValidationError("issued_from", "issued_from must be a date")
		}
		f.Filters["issued_from"] = from
	}
	if filter.IssuedTo != "" {
		to, err := time.Parse(time.DateOnly, filter.IssuedTo)
		if err != nil {
			return shared.Filter{}, shared.NewValidationError("issued_to", "issued_to must be a date")
		}
		// inclusive of the whole day
		f.Filters["issued_to"] = to.AddDate(0, 0, 1)
	}
	return f, nil
}

// History returns the recorded lifecycle events of a document, oldest first
func (s *LedgerService) History(ctx context.Context, id uuid.UUID) ([]HistoryEntryResponse, error) {
	if _, err := s.documents.FindByID(ctx, id); err != nil {
		return nil, err
	}
	out := make([]HistoryEntryResponse, 0)
	if s.history == nil {
		return out, nil
	}
	entries, err := s.history.ListByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			EventID:    e.EventID,
			EventType:  e.EventType,
			OccurredAt: e.OccurredAt,
			Payload:    e.Payload,
		})
	}
	return out, nil
}

// RenderPDF returns the PDF of a document from its own snapshots.
// Finalized documents are served from artifact storage once rendered.
func (s *LedgerService) RenderPDF(ctx context.Context, id uuid.UUID) (*RenderedDocument, error) {
	if s.renderer == nil {
		return nil, ErrRenderingUnavailable
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := doc.EnsureRenderable(); err != nil {
		return nil, err
	}

	filename := doc.DocumentNumber + ".pdf"
	key := ArtifactKey(doc)
	cacheable := s.artifacts != nil && doc.IsActive()

	if cacheable && doc.ArtifactKey == key {
		data, err := s.artifacts.Get(ctx, key)
		if err == nil {
			return &RenderedDocument{Filename: filename, Data: data, FromStore: true}, nil
		}
		s.logger.Warn("stored artifact unreadable, rendering again",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	start := time.Now()
	data, err := s.renderer.Render(ctx, doc)
	s.metrics.RenderCompleted(ctx, doc.Prefix(), time.Since(start), err)
	if err != nil {
		s.logger.Warn("document rendering failed",
			zap.String("document_id", doc.ID.String()),
			zap.String("number", doc.DocumentNumber),
			zap.Error(err),
		)
		return nil, err
	}

	if cacheable {
		s.storeArtifact(ctx, doc, key, data)
	}
	return &RenderedDocument{Filename: filename, Data: data}, nil
}

// storeArtifact keeps the rendered file. Failures only cost a later re-render.
func (s *LedgerService) storeArtifact(ctx context.Context, doc *document.Document, key string, data []byte) {
	if err := s.artifacts.Put(ctx, key, data, pdfContentType); err != nil {
		s.logger.Warn("failed to store rendered document", zap.String("key", key), zap.Error(err))
		return
	}
	if doc.ArtifactKey == key {
		return
	}
	doc.AttachArtifact(key)
	if err := s.documents.UpdateLifecycle(ctx, doc); err != nil {
		s.logger.Warn("failed to record artifact key",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
	}
}

// ArtifactLink returns a time-limited download URL for a stored PDF
func (s *LedgerService) ArtifactLink(ctx context.Context, id uuid.UUID, expiresIn time.Duration) (*ArtifactLinkResponse, error) {
	if s.artifacts == nil {
		return nil, ErrRenderingUnavailable
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.ArtifactKey == "" {
		return nil, ErrArtifactNotStored
	}
	exists, err := s.artifacts.Exists(ctx, doc.ArtifactKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrArtifactNotStored
	}
	url, expiresAt, err := s.artifacts.DownloadURL(ctx, doc.ArtifactKey, expiresIn)
	if err != nil {
		return nil, err
	}
	return &ArtifactLinkResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// ExportRegister writes the documents matching filter as a spreadsheet
func (s *LedgerService) ExportRegister(ctx context.Context, filter DocumentListFilter) ([]byte, error) {
	if s.exporter == nil {
		return nil, ErrExportUnavailable
	}
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return nil, err
	}
	domainFilter.Page = 1
	domainFilter.PageSize = s.settings.ExportLimit
	if filter.OrderBy == "" {
		domainFilter.OrderBy = "document_number"
		domainFilter.OrderDir = "asc"
	}

	docs, err := s.documents.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	if len(docs) == s.settings.ExportLimit {
		s.logger.Warn("register export truncated", zap.Int("limit", s.settings.ExportLimit))
	}
	return s.exporter.Export(docs)
}

// TaxQuote previews the amounts of a sale. No number is allocated.
func (s *LedgerService) TaxQuote(req TaxQuoteRequest) (*TaxQuoteResponse, error) {
	price, err := req.SalePrice.Parse("sale_price")
	if err != nil {
		return nil, err
	}
	billing := tax.BillingType(req.BillingType)
	if !billing.IsValid() {
		return nil, shared.NewValidationError("billing_type", "Unknown billing type: "+req.BillingType)
	}
	tradeIn := decimal.Zero
	if req.TradeInValue.IsSet() {
		if tradeIn, err = req.TradeInValue.Parse("trade_in_value"); err != nil {
			return nil, err
		}
	}
	computation, err := s.compute(price, billing, tradeIn)
	if err != nil {
		return nil, err
	}
	response := ToTaxQuoteResponse(computation)
	return &response, nil
}

// compute runs the tax engine and rejects totals the documents table cannot hold
func (s *LedgerService) compute(price decimal.Decimal, billing tax.BillingType, tradeIn decimal.Decimal) (tax.Computation, error) {
	c := s.engine.Compute(price, billing, tradeIn)
	if err := stock.CheckAmountRange("sale_price", c.TotalAmount); err != nil {
		return tax.Computation{}, err
	}
	return c, nil
}

func (s *LedgerService) publish(ctx context.Context, doc *document.Document) {
	events := doc.GetDomainEvents()
	doc.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish document events",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
	}
}
