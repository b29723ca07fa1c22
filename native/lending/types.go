package lending

import (
	"nftlend/core/types"
)

// LoanStatus tracks a loan through its lifecycle. Repaid and Seized are the
// two mutually exclusive terminal states; no transition skips a state.
type LoanStatus uint8

const (
	// LoanActive is the initial status after a grant: principal sits in
	// escrow awaiting borrower withdrawal.
	LoanActive LoanStatus = iota
	// LoanBorrowerWithdrawn marks that the borrower has claimed the net
	// principal from escrow.
	LoanBorrowerWithdrawn
	// LoanRepaid marks the success-path terminal state: debt cleared,
	// collateral returned.
	LoanRepaid
	// LoanDefaulted marks a loan whose deadline elapsed before full
	// repayment; set lazily by RefreshLoan.
	LoanDefaulted
	// LoanSeized marks the default-path terminal state: the lender has
	// taken the collateral.
	LoanSeized
)

// Valid reports whether the status value is within the supported range.
func (s LoanStatus) Valid() bool {
	return s <= LoanSeized
}

func (s LoanStatus) String() string {
	switch s {
	case LoanActive:
		return "active"
	case LoanBorrowerWithdrawn:
		return "borrower_withdrawn"
	case LoanRepaid:
		return "repaid"
	case LoanDefaulted:
		return "defaulted"
	case LoanSeized:
		return "seized"
	default:
		return "unknown"
	}
}

// LoanRequest records a borrower's open ask: collateral locked in escrow
// against a requested amount and duration. The record identifier is derived
// from the disposable borrow-proof mint, so holders of that token can always
// relocate the request.
type LoanRequest struct {
	ID              [32]byte
	Borrower        [20]byte
	NFTMint         types.MintID
	NFTWorth        uint64
	RequestedAmount uint64
	// RequestedToken is the currency the borrower wants; the zero value is
	// the native-currency sentinel.
	RequestedToken types.TokenID
	SlotDuration   uint64
	BorrowNFTMint  types.MintID
	// Loan is the identifier of the loan created by a grant; zero while the
	// request is still open.
	Loan [32]byte
}

// Granted reports whether a lender has already matched this request.
func (r *LoanRequest) Granted() bool {
	return r != nil && r.Loan != [32]byte{}
}

// GrantLoan is the lender-side record of a match, tied to the disposable
// lend-proof mint the same way LoanRequest is tied to the borrow-proof mint.
type GrantLoan struct {
	ID             [32]byte
	Lender         [20]byte
	NFTWorth       uint64
	GrantedAmount  uint64
	RequestedToken types.TokenID
	LoanRequest    [32]byte
	SlotDuration   uint64
	Loan           [32]byte
	LendNFTMint    types.MintID
}

// Loan is the matched request+grant with risk parameters snapshotted at grant
// time. Later platform-fee changes never alter an existing loan.
type Loan struct {
	ID             [32]byte
	NFTMint        types.MintID
	BorrowNFTMint  types.MintID
	LendNFTMint    types.MintID
	RequestedToken types.TokenID

	// Per-mille parameters frozen at grant time.
	LTV           uint32
	FeePercentage uint32
	InterestRate  uint32

	NFTWorth        uint64
	Principal       uint64
	OutstandingDebt uint64
	PaidAmount      uint64

	Status       LoanStatus
	SlotDuration uint64
	StartSlot    uint64

	AdminFeeWithdrawn bool
	LenderWithdrawn   bool
}

// Clone returns a copy the caller can mutate without touching stored state.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}

// LoanFee escrows the platform's cut of one loan. Each owner listed at grant
// time collects a pro-rata share exactly once; Withdrawn flips when the last
// share leaves the escrow.
type LoanFee struct {
	ID     [32]byte
	Amount uint64
	Token  types.TokenID
	Loan   [32]byte
	// OwnerCount is the multisig owner count at grant time; shares are
	// Amount / OwnerCount with the dust remainder paid to the last claimant.
	OwnerCount uint64
	// PendingOwners lists owners who have not yet collected their share.
	PendingOwners [][20]byte
	Withdrawn     bool
}

// Pending reports whether the owner still has an uncollected share.
func (f *LoanFee) Pending(owner [20]byte) bool {
	if f == nil {
		return false
	}
	for _, o := range f.PendingOwners {
		if o == owner {
			return true
		}
	}
	return false
}

// Escrow marks an open protocol-custody account. The account address is
// derived (no private key exists for it) and the record is deleted when the
// escrow is closed, so a lookup failure is proof of closure.
type Escrow struct {
	ID      [32]byte
	Account [20]byte
	// Token is the fungible currency held, or the native sentinel. NFT
	// escrows hold exactly one unit of Mint instead.
	Token types.TokenID
	Mint  types.MintID
	// Bump is the derivation disambiguator recorded so callers can
	// reproduce the address without re-probing.
	Bump uint8
}
