package api

import (
	"time"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// CreateOperationRequest is the request body for pledging invoices.
// DiscountRate is optional; the configured default applies when absent.
type CreateOperationRequest struct {
	ClientID     string   `json:"client_id"`
	InvoiceIDs   []string `json:"invoice_ids"`
	DiscountRate *string  `json:"discount_rate,omitempty"`
}

// RejectOperationRequest carries the mandatory rejection reason
type RejectOperationRequest struct {
	Reason string `json:"reason"`
}

// RegisterClientRequest is the request body for onboarding a client
type RegisterClientRequest struct {
	RUT         string `json:"rut"`
	LegalName   string `json:"legal_name"`
	Email       string `json:"email"`
	CreditLimit string `json:"credit_limit"`
}

// RegisterInvoiceRequest is the request body for registering an invoice
type RegisterInvoiceRequest struct {
	ClientID     string `json:"client_id"`
	Number       string `json:"number"`
	DebtorRUT    string `json:"debtor_rut"`
	DebtorName   string `json:"debtor_name"`
	Principal    string `json:"principal"`
	IssuedAt     string `json:"issued_at"`
	MaturityDate string `json:"maturity_date"`
}

// OperationDTO represents an operation in API responses
type OperationDTO struct {
	ID              string   `json:"id"`
	ClientID        string   `json:"client_id"`
	InvoiceIDs      []string `json:"invoice_ids"`
	RequestedAt     string   `json:"requested_at"`
	ApprovedAt      string   `json:"approved_at,omitempty"`
	DisbursedAt     string   `json:"disbursed_at,omitempty"`
	CompletedAt     string   `json:"completed_at,omitempty"`
	PrincipalTotal  string   `json:"principal_total"`
	DiscountRate    string   `json:"discount_rate"`
	DiscountAmount  string   `json:"discount_amount"`
	PayoutAmount    string   `json:"payout_amount"`
	Status          string   `json:"status"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
}

// EventDTO represents one audit trail entry in API responses
type EventDTO struct {
	ID            string             `json:"id"`
	OperationID   string             `json:"operation_id"`
	Type          string             `json:"type"`
	OccurredAt    string             `json:"occurred_at"`
	PriorStatus   string             `json:"prior_status,omitempty"`
	NewStatus     string             `json:"new_status"`
	Detail        domain.EventDetail `json:"detail"`
	CorrelationID string             `json:"correlation_id,omitempty"`
}

// ClientDTO represents a client in API responses
type ClientDTO struct {
	ID              string `json:"id"`
	RUT             string `json:"rut"`
	LegalName       string `json:"legal_name"`
	Email           string `json:"email"`
	CreditLimit     string `json:"credit_limit"`
	CreditAvailable string `json:"credit_available"`
	Status          string `json:"status"`
	RegisteredAt    string `json:"registered_at"`
}

// InvoiceDTO represents an invoice in API responses
type InvoiceDTO struct {
	ID           string `json:"id"`
	ClientID     string `json:"client_id"`
	Number       string `json:"number"`
	DebtorRUT    string `json:"debtor_rut"`
	DebtorName   string `json:"debtor_name"`
	Principal    string `json:"principal"`
	IssuedAt     string `json:"issued_at"`
	MaturityDate string `json:"maturity_date"`
	Status       string `json:"status"`
}

const dateLayout = "2006-01-02"

func toOperationDTO(op *domain.Operation) OperationDTO {
	ids := make([]string, len(op.InvoiceIDs))
	for i, id := range op.InvoiceIDs {
		ids[i] = id.String()
	}

	return OperationDTO{
		ID:              op.ID.String(),
		ClientID:        op.ClientID.String(),
		InvoiceIDs:      ids,
		RequestedAt:     op.RequestedAt.Format(time.RFC3339),
		ApprovedAt:      formatOptional(op.ApprovedAt),
		DisbursedAt:     formatOptional(op.DisbursedAt),
		CompletedAt:     formatOptional(op.CompletedAt),
		PrincipalTotal:  op.PrincipalTotal.StringFixed(2),
		DiscountRate:    op.DiscountRate.StringFixed(2),
		DiscountAmount:  op.DiscountAmount.StringFixed(2),
		PayoutAmount:    op.PayoutAmount.StringFixed(2),
		Status:          string(op.Status),
		RejectionReason: op.RejectionReason,
	}
}

func toEventDTO(event *domain.OperationEvent) EventDTO {
	return EventDTO{
		ID:            event.ID.String(),
		OperationID:   event.OperationID.String(),
		Type:          string(event.Type),
		OccurredAt:    event.OccurredAt.Format(time.RFC3339),
		PriorStatus:   string(event.PriorStatus),
		NewStatus:     string(event.NewStatus),
		Detail:        event.Detail,
		CorrelationID: event.CorrelationID,
	}
}

func toClientDTO(client *domain.Client) ClientDTO {
	return ClientDTO{
		ID:              client.ID.String(),
		RUT:             client.RUT,
		LegalName:       client.LegalName,
		Email:           client.Email,
		CreditLimit:     client.CreditLimit.StringFixed(2),
		CreditAvailable: client.CreditAvailable.StringFixed(2),
		Status:          string(client.Status),
		RegisteredAt:    client.RegisteredAt.Format(time.RFC3339),
	}
}

func toInvoiceDTO(invoice *domain.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:           invoice.ID.String(),
		ClientID:     invoice.ClientID.String(),
		Number:       invoice.Number,
		DebtorRUT:    invoice.DebtorRUT,
		DebtorName:   invoice.DebtorName,
		Principal:    invoice.Principal.StringFixed(2),
		IssuedAt:     invoice.IssuedAt.Format(dateLayout),
		MaturityDate: invoice.MaturityDate.Format(dateLayout),
		Status:       string(invoice.Status),
	}
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
