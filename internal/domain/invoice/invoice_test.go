package invoice_test

import (
	"errors"
	"testing"

	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/invoice"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		inv     invoice.Invoice
		wantErr bool
		field   string
	}{
		{"valid", invoice.Invoice{ID: "INV-1", Status: invoice.StatusPaid}, false, ""},
		{"missing id", invoice.Invoice{Status: invoice.StatusPaid}, true, "id"},
		{"blank id", invoice.Invoice{ID: "  ", Status: invoice.StatusPaid}, true, "id"},
		{"unknown status", invoice.Invoice{ID: "INV-1", Status: "settled"}, true, "status"},
		{"negative amount", invoice.Invoice{ID: "INV-1", Status: invoice.StatusIssued, AmountCents: -1}, true, "amountCents"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.inv.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("Fields = %v, want key %q", verr.Fields, tt.field)
			}
		})
	}
}
