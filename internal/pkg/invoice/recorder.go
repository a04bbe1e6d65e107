package invoice

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/app/repository"
)

// RecordInput carries the customer snapshot and purchase facts for one
// invoice. Values are captured at purchase time and never re-derived.
type RecordInput struct {
	CustomerName   string
	CustomerEmail  string
	CustomerAvatar string
	Plan           string
	InvoiceDate    time.Time
	DueDate        time.Time
	TotalAmount    int64
	SubscriptionID uint
}

// Renderer produces the human-readable billing document. Layout is an
// external concern; the recorder only needs bytes and a content type.
type Renderer interface {
	RenderInvoice(in RecordInput) ([]byte, string, error)
}

// Store persists a rendered document and returns a retrievable reference.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Recorder writes the invoice row after a successful purchase, delegating
// rendering and document storage to its collaborators.
type Recorder struct {
	invoices repository.InvoiceRepository
	renderer Renderer
	store    Store
}

// NewRecorder creates an invoice recorder from injected collaborators.
func NewRecorder(invoices repository.InvoiceRepository, renderer Renderer, store Store) *Recorder {
	return &Recorder{invoices: invoices, renderer: renderer, store: store}
}

// Record renders, stores and persists the invoice for a completed purchase.
func (r *Recorder) Record(ctx context.Context, in RecordInput) (*models.Invoice, error) {
	body, contentType, err := r.renderer.RenderInvoice(in)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("invoices/invoice_%d_%d.html", in.SubscriptionID, in.InvoiceDate.Unix())
	ref, err := r.store.Put(ctx, key, body, contentType)
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		CustomerName:      in.CustomerName,
		CustomerEmail:     in.CustomerEmail,
		CustomerAvatarURL: in.CustomerAvatar,
		Plan:              in.Plan,
		InvoiceDate:       in.InvoiceDate,
		DueDate:           in.DueDate,
		Status:            models.INVOICE_STATUS_OPEN,
		TotalAmount:       in.TotalAmount,
		DocumentRef:       ref,
		PaymentStatus:     models.INVOICE_PAYMENT_COMPLETED,
	}
	if err := r.invoices.Create(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Invoice</title></head>
<body>
  <h1>Invoice for Subscription Plan: {{.Plan}}</h1>
  <p>Customer Name: {{.CustomerName}}</p>
  <p>Customer Email: {{.CustomerEmail}}</p>
  <p>Subscription Plan: {{.Plan}}</p>
  <p>Start Date: {{.InvoiceDate.Format "Jan 2, 2006"}}</p>
  <p>End Date: {{.DueDate.Format "Jan 2, 2006"}}</p>
  <p>Total Amount: ${{printf "%.2f" .TotalDollars}}</p>
</body>
</html>
`))

// HTMLRenderer is the built-in renderer. A dedicated PDF renderer can
// replace it behind the same interface without touching the recorder.
type HTMLRenderer struct{}

func (HTMLRenderer) RenderInvoice(in RecordInput) ([]byte, string, error) {
	data := struct {
		RecordInput
		TotalDollars float64
	}{RecordInput: in, TotalDollars: float64(in.TotalAmount) / 100}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "text/html; charset=utf-8", nil
}
