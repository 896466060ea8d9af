package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_SameMovement(t *testing.T) {
	base := Transaction{Date: "2025-10-12", Description: "OXXO Reforma", Amount: 150.00}

	tests := []struct {
		name  string
		other Transaction
		want  bool
	}{
		{"identical", base, true},
		{"case and whitespace", Transaction{Date: "2025-10-12", Description: "  oxxo reforma ", Amount: 150.00}, true},
		{"within tolerance", Transaction{Date: "2025-10-12", Description: "OXXO Reforma", Amount: 150.005}, true},
		{"outside tolerance", Transaction{Date: "2025-10-12", Description: "OXXO Reforma", Amount: 150.02}, false},
		{"different date", Transaction{Date: "2025-10-13", Description: "OXXO Reforma", Amount: 150.00}, false},
		{"different description", Transaction{Date: "2025-10-12", Description: "OXXO Centro", Amount: 150.00}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.SameMovement(tt.other))
			assert.Equal(t, tt.want, tt.other.SameMovement(base))
		})
	}
}

func TestTransaction_IsInstallment(t *testing.T) {
	assert.True(t, Transaction{Type: TxTypeCharge, InstallmentPlan: IntPtr(12)}.IsInstallment())
	assert.False(t, Transaction{Type: TxTypeCharge, InstallmentPlan: IntPtr(0)}.IsInstallment())
	assert.False(t, Transaction{Type: TxTypeCharge}.IsInstallment())
	assert.False(t, Transaction{Type: TxTypePayment, InstallmentPlan: IntPtr(6)}.IsInstallment())
}
