package lending

import (
	"encoding/hex"
	"strconv"

	"nftlend/core/types"
)

const (
	EventTypeLoanRequested     = "lending.request.created"
	EventTypeLoanCancelled     = "lending.request.cancelled"
	EventTypeLoanGranted       = "lending.loan.granted"
	EventTypeBorrowerWithdrawn = "lending.loan.borrower_withdrawn"
	EventTypeLoanRepaid        = "lending.loan.repaid"
	EventTypeLoanRefreshed     = "lending.loan.refreshed"
	EventTypeLoanSeized        = "lending.loan.seized"
	EventTypeLenderWithdrawn   = "lending.loan.lender_withdrawn"
	EventTypeFeeWithdrawn      = "lending.fee.withdrawn"
)

// NewRequestedEvent returns the canonical event payload for a newly opened
// loan request.
func NewRequestedEvent(r *LoanRequest) *types.Event {
	attrs := make(map[string]string)
	if r == nil {
		return &types.Event{Type: EventTypeLoanRequested, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(r.ID[:])
	attrs["borrower"] = hex.EncodeToString(r.Borrower[:])
	attrs["nftMint"] = r.NFTMint.String()
	attrs["nftWorth"] = strconv.FormatUint(r.NFTWorth, 10)
	attrs["requestedAmount"] = strconv.FormatUint(r.RequestedAmount, 10)
	attrs["token"] = r.RequestedToken.String()
	attrs["slotDuration"] = strconv.FormatUint(r.SlotDuration, 10)
	return &types.Event{Type: EventTypeLoanRequested, Attributes: attrs}
}

// NewCancelledEvent returns the payload emitted when an ungranted request is
// withdrawn by the borrower.
func NewCancelledEvent(r *LoanRequest) *types.Event {
	attrs := make(map[string]string)
	if r != nil {
		attrs["id"] = hex.EncodeToString(r.ID[:])
		attrs["borrower"] = hex.EncodeToString(r.Borrower[:])
	}
	return &types.Event{Type: EventTypeLoanCancelled, Attributes: attrs}
}

// NewGrantedEvent returns the payload emitted when a lender matches a request
// and a loan record is created.
func NewGrantedEvent(l *Loan, lender [20]byte) *types.Event {
	attrs := loanAttrs(l)
	attrs["lender"] = hex.EncodeToString(lender[:])
	return &types.Event{Type: EventTypeLoanGranted, Attributes: attrs}
}

// NewBorrowerWithdrawnEvent returns the payload emitted when the borrower
// claims escrowed principal.
func NewBorrowerWithdrawnEvent(l *Loan, amount uint64) *types.Event {
	attrs := loanAttrs(l)
	attrs["amount"] = strconv.FormatUint(amount, 10)
	return &types.Event{Type: EventTypeBorrowerWithdrawn, Attributes: attrs}
}

// NewRepaidEvent returns the payload for a repayment instalment; fullyRepaid
// distinguishes the terminal payment from partial ones.
func NewRepaidEvent(l *Loan, amount uint64, fullyRepaid bool) *types.Event {
	attrs := loanAttrs(l)
	attrs["amount"] = strconv.FormatUint(amount, 10)
	attrs["fullyRepaid"] = strconv.FormatBool(fullyRepaid)
	return &types.Event{Type: EventTypeLoanRepaid, Attributes: attrs}
}

// NewRefreshedEvent returns the payload emitted after a debt recomputation.
func NewRefreshedEvent(l *Loan) *types.Event {
	return &types.Event{Type: EventTypeLoanRefreshed, Attributes: loanAttrs(l)}
}

// NewSeizedEvent returns the payload emitted when the lender claims the
// collateral of a defaulted loan.
func NewSeizedEvent(l *Loan, lender [20]byte) *types.Event {
	attrs := loanAttrs(l)
	attrs["lender"] = hex.EncodeToString(lender[:])
	return &types.Event{Type: EventTypeLoanSeized, Attributes: attrs}
}

// NewLenderWithdrawnEvent returns the payload emitted when the lender collects
// repayments from escrow.
func NewLenderWithdrawnEvent(l *Loan, amount uint64) *types.Event {
	attrs := loanAttrs(l)
	attrs["amount"] = strconv.FormatUint(amount, 10)
	return &types.Event{Type: EventTypeLenderWithdrawn, Attributes: attrs}
}

// NewFeeWithdrawnEvent returns the payload emitted when a platform owner
// collects a fee share.
func NewFeeWithdrawnEvent(f *LoanFee, owner [20]byte, share uint64) *types.Event {
	attrs := make(map[string]string)
	if f != nil {
		attrs["id"] = hex.EncodeToString(f.ID[:])
		attrs["loan"] = hex.EncodeToString(f.Loan[:])
		attrs["token"] = f.Token.String()
	}
	attrs["owner"] = hex.EncodeToString(owner[:])
	attrs["share"] = strconv.FormatUint(share, 10)
	return &types.Event{Type: EventTypeFeeWithdrawn, Attributes: attrs}
}

func loanAttrs(l *Loan) map[string]string {
	attrs := make(map[string]string)
	if l == nil {
		return attrs
	}
	attrs["id"] = hex.EncodeToString(l.ID[:])
	attrs["token"] = l.RequestedToken.String()
	attrs["principal"] = strconv.FormatUint(l.Principal, 10)
	attrs["outstandingDebt"] = strconv.FormatUint(l.OutstandingDebt, 10)
	attrs["paidAmount"] = strconv.FormatUint(l.PaidAmount, 10)
	attrs["status"] = l.Status.String()
	return attrs
}
