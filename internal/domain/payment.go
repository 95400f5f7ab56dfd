package domain

import (
	"fmt"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

// PaymentStatus is the disbursement state of a payment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// PaymentStatuses lists every payment status.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentCancelled}
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	for _, known := range PaymentStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether s is final.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentCancelled
}

// PaymentMethod is how the award is disbursed.
type PaymentMethod string

const (
	MethodBankTransfer  PaymentMethod = "bank_transfer"
	MethodCheck         PaymentMethod = "check"
	MethodDirectDeposit PaymentMethod = "direct_deposit"
	MethodDigitalWallet PaymentMethod = "digital_wallet"
	MethodOther         PaymentMethod = "other"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodCheck, MethodDirectDeposit, MethodDigitalWallet, MethodOther:
		return true
	}
	return false
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCancelled},
	PaymentProcessing: {PaymentCompleted, PaymentFailed},
	PaymentFailed:     {PaymentProcessing},
}

// TransitionPayment validates a payment status change. Payments are never
// retried automatically; failed -> processing is a manual re-process.
func TransitionPayment(from, to PaymentStatus) error {
	if !to.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown payment status %q", to))
	}
	for _, next := range paymentTransitions[from] {
		if next == to {
			return nil
		}
	}
	return apperrors.NewConflictError(fmt.Sprintf("payment cannot move from %s to %s", from, to)).
		WithCode("INVALID_TRANSITION")
}
