package dto

import (
	"github.com/shopspring/decimal"
)

// OutstandingBalanceResponse summarizes what a student still owes, with the
// split between invoices still awaiting money and invoices fully settled
type OutstandingBalanceResponse struct {
	StudentID         string             `json:"student_id"`
	OutstandingAmount decimal.Decimal    `json:"outstanding_amount"`
	UnsettledInvoices []*InvoiceResponse `json:"unsettled_invoices"`
	PendingCount      int                `json:"pending_count"`
	PaidCount         int                `json:"paid_count"`
}

// StudentPaymentHistoryResponse is a student's full payment history
type StudentPaymentHistoryResponse struct {
	StudentID string             `json:"student_id"`
	Payments  []*PaymentResponse `json:"payments"`
	Total     int                `json:"total"`
}
