package invoice

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ikram-mever-codes/csb-backend/app/models"
)

type fakeInvoiceRepo struct {
	invoices []models.Invoice
}

func (r *fakeInvoiceRepo) Create(inv *models.Invoice) error {
	inv.ID = uint(len(r.invoices) + 1)
	r.invoices = append(r.invoices, *inv)
	return nil
}

func (r *fakeInvoiceRepo) ListAll() ([]models.Invoice, error) { return r.invoices, nil }

func (r *fakeInvoiceRepo) ListByCustomerEmail(string) ([]models.Invoice, error) {
	return nil, gorm.ErrRecordNotFound
}

func sampleInput() RecordInput {
	return RecordInput{
		CustomerName:   "Ada Lovelace",
		CustomerEmail:  "ada@example.com",
		Plan:           "basic",
		InvoiceDate:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
		TotalAmount:    3900,
		SubscriptionID: 7,
	}
}

func TestHTMLRendererFormatsAmount(t *testing.T) {
	body, contentType, err := HTMLRenderer{}.RenderInvoice(sampleInput())
	if err != nil {
		t.Fatalf("RenderInvoice() error = %v", err)
	}
	if contentType != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", contentType)
	}

	html := string(body)
	for _, want := range []string{"Ada Lovelace", "ada@example.com", "basic", "$39.00", "Mar 1, 2026", "Apr 1, 2026"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered invoice missing %q:\n%s", want, html)
		}
	}
}

func TestHTMLRendererEscapesCustomerInput(t *testing.T) {
	in := sampleInput()
	in.CustomerName = `<script>alert("x")</script>`

	body, _, err := HTMLRenderer{}.RenderInvoice(in)
	if err != nil {
		t.Fatalf("RenderInvoice() error = %v", err)
	}
	if strings.Contains(string(body), "<script>") {
		t.Fatalf("customer name must be escaped in the document")
	}
}

func TestRecordWritesDocumentAndRow(t *testing.T) {
	repo := &fakeInvoiceRepo{}
	dir := t.TempDir()
	recorder := NewRecorder(repo, HTMLRenderer{}, NewFSStore(dir))

	in := sampleInput()
	inv, err := recorder.Record(context.Background(), in)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if inv.Status != models.INVOICE_STATUS_OPEN || inv.PaymentStatus != models.INVOICE_PAYMENT_COMPLETED {
		t.Fatalf("unexpected invoice state: %+v", inv)
	}
	if inv.TotalAmount != 3900 || inv.CustomerEmail != "ada@example.com" {
		t.Fatalf("invoice row diverged from input: %+v", inv)
	}
	if len(repo.invoices) != 1 {
		t.Fatalf("expected 1 persisted row, got %d", len(repo.invoices))
	}

	wantKey := filepath.Join("invoices", "invoice_7_"+strconv.FormatInt(in.InvoiceDate.Unix(), 10)+".html")
	doc, err := os.ReadFile(filepath.Join(dir, wantKey))
	if err != nil {
		t.Fatalf("stored document missing: %v", err)
	}
	if !strings.Contains(string(doc), "Ada Lovelace") {
		t.Fatalf("stored document incomplete")
	}
	if inv.DocumentRef == "" || !strings.HasSuffix(inv.DocumentRef, ".html") {
		t.Fatalf("unexpected document ref %q", inv.DocumentRef)
	}
}
