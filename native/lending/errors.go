package lending

import "nftlend/native/common"

// Coded conditions surfaced by the lending module. Codes are stable; messages
// are the published human-readable descriptions.
var (
	ErrMaxBorrowExceeded = common.NewError(common.CodeMaxBorrowExceeded, "maximum borrow amount exceeded")
	ErrInsufficientFunds = common.NewError(common.CodeInsufficientFunds, "insufficient funds")
	ErrUnableToCancel    = common.NewError(common.CodeUnableToCancel, "unable to cancel loan request")
	ErrInvalidLoanState  = common.NewError(common.CodeInvalidLoanState, "unable to perform action at this time")
	ErrInvalidStatus     = common.NewError(common.CodeInvalidStatus, "wrong loan status")
	ErrLoanEnded         = common.NewError(common.CodeLoanEnded, "loan has ended")
	ErrCantRefresh       = common.NewError(common.CodeCantRefreshLoan, "unable to refresh loan at this time")
	ErrOverpayment       = common.NewError(common.CodeOverpayment, "repayment exceeds outstanding debt")
	ErrFeeWithdrawn      = common.NewError(common.CodeFeeAlreadyWithdrawn, "admin has already withdrawn allocated fees")
	ErrAlreadyWithdrawn  = common.NewError(common.CodeAlreadyWithdrawn, "escrowed funds already withdrawn")
	ErrInvalidOwner      = common.NewError(common.CodeInvalidOwner, "the given owner is not part of this multisig")
	ErrInvalidAccount    = common.NewError(common.CodeInvalidAccount, "account provided is not correct")
	ErrEscrowNotEmpty    = common.NewError(common.CodeEscrowNotEmpty, "escrow balance must be zero before close")
	ErrNotFound          = common.NewError(common.CodeNotFound, "record not found")
	ErrMathOverflow      = common.NewError(common.CodeMathOverflow, "math operation overflow")
)
