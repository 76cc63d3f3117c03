package memory

import (
	"sync"

	"github.com/code-payments/code-payout-server/pkg/lightning"
)

// Decoder is a map-backed lightning.InvoiceDecoder
type Decoder struct {
	mu       sync.RWMutex
	invoices map[string]*lightning.Invoice
}

func NewDecoder() *Decoder {
	return &Decoder{
		invoices: make(map[string]*lightning.Invoice),
	}
}

// Add registers an invoice under its payment request
func (d *Decoder) Add(invoice *lightning.Invoice) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cloned := *invoice
	d.invoices[invoice.PaymentRequest] = &cloned
}

// Decode implements lightning.InvoiceDecoder.Decode
func (d *Decoder) Decode(paymentRequest string) (*lightning.Invoice, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	invoice, ok := d.invoices[lightning.TrimScheme(paymentRequest)]
	if !ok {
		return nil, lightning.ErrInvalidInvoice
	}

	cloned := *invoice
	return &cloned, nil
}
