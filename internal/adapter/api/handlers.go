package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/factorlink/factoring-backend/internal/domain"
	"github.com/factorlink/factoring-backend/internal/usecase/operation"
)

// OperationService drives the factoring lifecycle
type OperationService interface {
	Create(ctx context.Context, input operation.CreateInput) (*domain.Operation, error)
	Approve(ctx context.Context, operationID uuid.UUID, correlationID string) (*domain.Operation, error)
	Reject(ctx context.Context, operationID uuid.UUID, reason, correlationID string) (*domain.Operation, error)
	Disburse(ctx context.Context, operationID uuid.UUID, correlationID string) (*domain.Operation, error)
	Complete(ctx context.Context, operationID uuid.UUID, correlationID string) (*domain.Operation, error)
	Get(ctx context.Context, operationID uuid.UUID) (*domain.Operation, error)
	List(ctx context.Context, filter domain.OperationFilter) ([]*domain.Operation, error)
	ListEvents(ctx context.Context, operationID uuid.UUID) ([]*domain.OperationEvent, error)
}

// InvoiceService manages invoice registration and settlement
type InvoiceService interface {
	Register(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	MarkVoid(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
}

// ClientService manages client onboarding and lifecycle status
type ClientService interface {
	Register(ctx context.Context, client *domain.Client) (*domain.Client, error)
	Activate(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	Suspend(ctx context.Context, id uuid.UUID) (*domain.Client, error)
}

// Handler holds the services behind the HTTP surface
type Handler struct {
	operations OperationService
	invoices   InvoiceService
	clients    ClientService
}

// NewHandler creates a handler backed by the given services
func NewHandler(operations OperationService, invoices InvoiceService, clients ClientService) *Handler {
	return &Handler{
		operations: operations,
		invoices:   invoices,
		clients:    clients,
	}
}

// correlationID ties domain events to the HTTP request that caused them
func correlationID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// CreateOperation handles POST /api/operations
func (h *Handler) CreateOperation(w http.ResponseWriter, r *http.Request) {
	var req CreateOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		writeFieldError(w, r, "cliente", "client_id must be a valid UUID")
		return
	}

	invoiceIDs := make([]uuid.UUID, 0, len(req.InvoiceIDs))
	for _, raw := range req.InvoiceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeFieldError(w, r, "facturas_ids", "invoice_ids must be valid UUIDs")
			return
		}
		invoiceIDs = append(invoiceIDs, id)
	}

	var rate *decimal.Decimal
	if req.DiscountRate != nil {
		parsed, err := decimal.NewFromString(*req.DiscountRate)
		if err != nil {
			writeFieldError(w, r, "tasa_descuento", "discount_rate must be a decimal number")
			return
		}
		rate = &parsed
	}

	op, err := h.operations.Create(r.Context(), operation.CreateInput{
		ClientID:      clientID,
		InvoiceIDs:    invoiceIDs,
		Rate:          rate,
		CorrelationID: correlationID(r),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toOperationDTO(op))
}

// GetOperation handles GET /api/operations/{id}
func (h *Handler) GetOperation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	op, err := h.operations.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOperationDTO(op))
}

// ListOperations handles GET /api/operations with optional client_id and
// status query filters.
func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	var filter domain.OperationFilter

	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeFieldError(w, r, "cliente", "client_id must be a valid UUID")
			return
		}
		filter.ClientID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.OperationStatus(raw)
		if !status.Valid() {
			writeFieldError(w, r, "estado", "unknown operation status")
			return
		}
		filter.Status = status
	}

	ops, err := h.operations.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]OperationDTO, len(ops))
	for i, op := range ops {
		dtos[i] = toOperationDTO(op)
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

// ListOperationEvents handles GET /api/operations/{id}/events
func (h *Handler) ListOperationEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	events, err := h.operations.ListEvents(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]EventDTO, len(events))
	for i, event := range events {
		dtos[i] = toEventDTO(event)
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

// ApproveOperation handles POST /api/operations/{id}/approve
func (h *Handler) ApproveOperation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.operations.Approve)
}

// DisburseOperation handles POST /api/operations/{id}/disburse
func (h *Handler) DisburseOperation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.operations.Disburse)
}

// CompleteOperation handles POST /api/operations/{id}/complete
func (h *Handler) CompleteOperation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.operations.Complete)
}

func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID, correlationID string) (*domain.Operation, error),
) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	op, err := fn(r.Context(), id, correlationID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOperationDTO(op))
}

// RejectOperation handles POST /api/operations/{id}/reject
func (h *Handler) RejectOperation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req RejectOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}

	op, err := h.operations.Reject(r.Context(), id, req.Reason, correlationID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOperationDTO(op))
}

// RegisterInvoice handles POST /api/invoices
func (h *Handler) RegisterInvoice(w http.ResponseWriter, r *http.Request) {
	var req RegisterInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		writeFieldError(w, r, "cliente", "client_id must be a valid UUID")
		return
	}
	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		writeFieldError(w, r, "monto_total", "principal must be a decimal number")
		return
	}
	issuedAt, err := time.Parse(dateLayout, req.IssuedAt)
	if err != nil {
		writeFieldError(w, r, "fecha_emision", "issued_at must be YYYY-MM-DD")
		return
	}
	maturity, err := time.Parse(dateLayout, req.MaturityDate)
	if err != nil {
		writeFieldError(w, r, "fecha_vencimiento", "maturity_date must be YYYY-MM-DD")
		return
	}

	invoice, err := h.invoices.Register(r.Context(), &domain.Invoice{
		ClientID:     clientID,
		Number:       req.Number,
		DebtorRUT:    req.DebtorRUT,
		DebtorName:   req.DebtorName,
		Principal:    principal,
		IssuedAt:     issuedAt,
		MaturityDate: maturity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toInvoiceDTO(invoice))
}

// PayInvoice handles POST /api/invoices/{id}/pay
func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	h.invoiceTransition(w, r, h.invoices.MarkPaid)
}

// VoidInvoice handles POST /api/invoices/{id}/void
func (h *Handler) VoidInvoice(w http.ResponseWriter, r *http.Request) {
	h.invoiceTransition(w, r, h.invoices.MarkVoid)
}

func (h *Handler) invoiceTransition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID) (*domain.Invoice, error),
) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	invoice, err := fn(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toInvoiceDTO(invoice))
}

// RegisterClient handles POST /api/clients
func (h *Handler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req RegisterClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}

	limit, err := decimal.NewFromString(req.CreditLimit)
	if err != nil {
		writeFieldError(w, r, "linea_credito", "credit_limit must be a decimal number")
		return
	}

	client, err := h.clients.Register(r.Context(), &domain.Client{
		RUT:         req.RUT,
		LegalName:   req.LegalName,
		Email:       req.Email,
		CreditLimit: limit,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toClientDTO(client))
}

// ActivateClient handles POST /api/clients/{id}/activate
func (h *Handler) ActivateClient(w http.ResponseWriter, r *http.Request) {
	h.clientTransition(w, r, h.clients.Activate)
}

// SuspendClient handles POST /api/clients/{id}/suspend
func (h *Handler) SuspendClient(w http.ResponseWriter, r *http.Request) {
	h.clientTransition(w, r, h.clients.Suspend)
}

func (h *Handler) clientTransition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id uuid.UUID) (*domain.Client, error),
) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	client, err := fn(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toClientDTO(client))
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, r, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
