package models

import (
	"math"
	"testing"
)

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		items        []*InvoiceItem
		wantSubtotal float64
		wantTax      float64
		wantTotal    float64
	}{
		{
			name:         "no items",
			items:        nil,
			wantSubtotal: 0,
			wantTax:      0,
			wantTotal:    0,
		},
		{
			name: "single item with GST",
			items: []*InvoiceItem{
				{TotalPrice: 1000, TaxRate: 18},
			},
			wantSubtotal: 1000,
			wantTax:      180,
			wantTotal:    1180,
		},
		{
			name: "mixed tax rates",
			items: []*InvoiceItem{
				{TotalPrice: 1000, TaxRate: 18},
				{TotalPrice: 500, TaxRate: 5},
				{TotalPrice: 200, TaxRate: 0},
			},
			wantSubtotal: 1700,
			wantTax:      205,
			wantTotal:    1905,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv := &Invoice{Items: tt.items}
			inv.ComputeTotals()

			if math.Abs(inv.Subtotal-tt.wantSubtotal) > 1e-9 {
				t.Errorf("Subtotal = %v, want %v", inv.Subtotal, tt.wantSubtotal)
			}
			if math.Abs(inv.TaxAmount-tt.wantTax) > 1e-9 {
				t.Errorf("TaxAmount = %v, want %v", inv.TaxAmount, tt.wantTax)
			}
			if math.Abs(inv.TotalAmount-tt.wantTotal) > 1e-9 {
				t.Errorf("TotalAmount = %v, want %v", inv.TotalAmount, tt.wantTotal)
			}
		})
	}
}

func TestDeriveInvoiceStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		paid    float64
		total   float64
		current InvoiceStatus
		want    InvoiceStatus
	}{
		{name: "nothing paid keeps sent", paid: 0, total: 1180, current: InvoiceStatusSent, want: InvoiceStatusSent},
		{name: "nothing paid keeps draft", paid: 0, total: 1180, current: InvoiceStatusDraft, want: InvoiceStatusDraft},
		{name: "partial payment", paid: 500, total: 1180, current: InvoiceStatusSent, want: InvoiceStatusPartiallyPaid},
		{name: "exact payment", paid: 1180, total: 1180, current: InvoiceStatusSent, want: InvoiceStatusPaid},
		{name: "overpayment", paid: 1500, total: 1180, current: InvoiceStatusPartiallyPaid, want: InvoiceStatusPaid},
		{name: "partial stays partial", paid: 600, total: 1180, current: InvoiceStatusPartiallyPaid, want: InvoiceStatusPartiallyPaid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DeriveInvoiceStatus(tt.paid, tt.total, tt.current); got != tt.want {
				t.Errorf("DeriveInvoiceStatus(%v, %v, %q) = %q, want %q", tt.paid, tt.total, tt.current, got, tt.want)
			}
		})
	}
}

func TestValidInvoiceStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"draft", "sent", "partially_paid", "paid", "overdue", "cancelled"} {
		if !ValidInvoiceStatus(valid) {
			t.Errorf("ValidInvoiceStatus(%q) = false", valid)
		}
	}
	for _, invalid := range []string{"", "DRAFT", "open"} {
		if ValidInvoiceStatus(invalid) {
			t.Errorf("ValidInvoiceStatus(%q) = true", invalid)
		}
	}
}

func TestValidAccountType(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"Asset", "Liability", "Equity", "Revenue", "Expense"} {
		if !ValidAccountType(valid) {
			t.Errorf("ValidAccountType(%q) = false", valid)
		}
	}
	if ValidAccountType("asset") {
		t.Error("ValidAccountType is case sensitive, lowercase should fail")
	}
}
