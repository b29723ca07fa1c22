package lending

import (
	"errors"

	"nftlend/core/events"
	"nftlend/core/types"
	"nftlend/crypto"
	"nftlend/native/params"
)

var (
	errNilState      = errors.New("lending engine: state not configured")
	errNilParams     = errors.New("lending engine: platform fees not configured")
	errInvalidAmount = errors.New("lending engine: amount must be positive")
	errInvalidWorth  = errors.New("lending engine: collateral worth must be positive")
	errInvalidLength = errors.New("lending engine: duration must be positive")
)

// Derivation seeds for escrow accounts and record identifiers. Changing any of
// these breaks address reproduction for existing records.
var (
	seedLoanRequest = []byte("loan_request")
	seedGrantLoan   = []byte("grant_loan")
	seedLoan        = []byte("loan")
	seedNFTEscrow   = []byte("nft_escrow")
	seedTokenEscrow = []byte("loan_token_escrow")
	seedFeeEscrow   = []byte("loan_fee")
)

type lendingEvent struct {
	evt *types.Event
}

func (e lendingEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e lendingEvent) Event() *types.Event { return e.evt }

// FeeSource provides the current governance-controlled risk parameters. The
// boolean reports whether the record has been initialised.
type FeeSource interface {
	PlatformFees() (params.PlatformFees, bool, error)
}

type engineState interface {
	Balance(token types.TokenID, addr [20]byte) (uint64, error)
	Transfer(token types.TokenID, from, to [20]byte, amount uint64) error

	NFTOwner(mint types.MintID) ([20]byte, bool, error)
	NFTMint(mint types.MintID, owner [20]byte) error
	NFTTransfer(mint types.MintID, from, to [20]byte) error
	NFTBurn(mint types.MintID, owner [20]byte) error

	LendingGetRequest(id [32]byte) (*LoanRequest, bool, error)
	LendingPutRequest(request *LoanRequest) error
	LendingDeleteRequest(id [32]byte) error
	LendingGetGrant(id [32]byte) (*GrantLoan, bool, error)
	LendingPutGrant(grant *GrantLoan) error
	LendingGetLoan(id [32]byte) (*Loan, bool, error)
	LendingPutLoan(loan *Loan) error
	LendingGetFee(id [32]byte) (*LoanFee, bool, error)
	LendingPutFee(fee *LoanFee) error
	LendingGetEscrow(id [32]byte) (*Escrow, bool, error)
	LendingPutEscrow(escrow *Escrow) error
	LendingDeleteEscrow(id [32]byte) error

	MultisigOwners() ([][20]byte, error)
}

// Engine orchestrates the loan lifecycle: request, grant, withdrawal,
// repayment, refresh, seizure and the fee split. All mutations go through the
// wired state backend; the engine itself is stateless between calls.
type Engine struct {
	state   engineState
	fees    FeeSource
	emitter events.Emitter
	slotFn  func() uint64
}

// NewEngine constructs a lending engine with a no-op emitter and a zero slot
// clock. Callers wire state, parameters and the clock before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		slotFn:  func() uint64 { return 0 },
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetFeeSource wires the governance parameter source consulted on request and
// grant.
func (e *Engine) SetFeeSource(fees FeeSource) {
	if e == nil {
		return
	}
	e.fees = fees
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetSlotFunc overrides the slot clock. Primarily intended for tests and for
// hosts that track the canonical slot height themselves.
func (e *Engine) SetSlotFunc(slot func() uint64) {
	if e == nil {
		return
	}
	if slot == nil {
		slot = func() uint64 { return 0 }
	}
	e.slotFn = slot
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(lendingEvent{evt: event})
}

func (e *Engine) currentSlot() uint64 {
	if e == nil || e.slotFn == nil {
		return 0
	}
	return e.slotFn()
}

func (e *Engine) requireState() (engineState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state, nil
}

func (e *Engine) platformFees() (params.PlatformFees, error) {
	if e == nil || e.fees == nil {
		return params.PlatformFees{}, errNilParams
	}
	fees, ok, err := e.fees.PlatformFees()
	if err != nil {
		return params.PlatformFees{}, err
	}
	if !ok {
		return params.PlatformFees{}, errNilParams
	}
	return fees, nil
}

// RequestLoanID returns the record identifier of a request tied to the given
// borrow-proof mint.
func RequestLoanID(borrowMint types.MintID) [32]byte {
	return crypto.DeriveRecordID(seedLoanRequest, borrowMint[:])
}

// GrantLoanID returns the record identifier of a grant tied to the given
// lend-proof mint.
func GrantLoanID(lendMint types.MintID) [32]byte {
	return crypto.DeriveRecordID(seedGrantLoan, lendMint[:])
}

// LoanID returns the loan identifier derived from the request it settles.
func LoanID(requestID [32]byte) [32]byte {
	return crypto.DeriveRecordID(seedLoan, requestID[:])
}

// TokenEscrowID returns the identifier of the principal escrow for a loan.
func TokenEscrowID(loanID [32]byte) [32]byte {
	return crypto.DeriveRecordID(seedTokenEscrow, loanID[:])
}

// FeeEscrowID returns the identifier shared by a loan's fee escrow and its
// fee record.
func FeeEscrowID(loanID [32]byte) [32]byte {
	return crypto.DeriveRecordID(seedFeeEscrow, loanID[:])
}

// NFTEscrowID returns the identifier of the collateral escrow for a mint.
func NFTEscrowID(mint types.MintID) [32]byte {
	return crypto.DeriveRecordID(seedNFTEscrow, mint[:])
}

// openEscrow derives a fresh protocol-custody account from the seeds, stores
// its record and returns it. The derived address has no private key.
func (e *Engine) openEscrow(token types.TokenID, mint types.MintID, seeds ...[]byte) (*Escrow, error) {
	addr, bump, err := crypto.DeriveAddress(seeds...)
	if err != nil {
		return nil, err
	}
	esc := &Escrow{
		ID:      crypto.DeriveRecordID(seeds...),
		Account: addr.Raw(),
		Token:   token,
		Mint:    mint,
		Bump:    bump,
	}
	if err := e.state.LendingPutEscrow(esc); err != nil {
		return nil, err
	}
	return esc, nil
}

func (e *Engine) escrowBySeeds(seeds ...[]byte) (*Escrow, error) {
	esc, ok, err := e.state.LendingGetEscrow(crypto.DeriveRecordID(seeds...))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyWithdrawn
	}
	return esc, nil
}

// closeTokenEscrow deletes an escrow record after verifying its balance hit
// zero. A non-empty escrow can never be closed.
func (e *Engine) closeTokenEscrow(esc *Escrow) error {
	balance, err := e.state.Balance(esc.Token, esc.Account)
	if err != nil {
		return err
	}
	if balance != 0 {
		return ErrEscrowNotEmpty
	}
	return e.state.LendingDeleteEscrow(esc.ID)
}

// RequestForLoan opens a loan request: the collateral NFT moves into a derived
// escrow account and a disposable borrow-proof mint is issued to the borrower.
// The compounded end-of-term debt must stay within the loan-to-value ceiling.
func (e *Engine) RequestForLoan(borrower [20]byte, nftMint, borrowMint types.MintID, nftWorth, requestedAmount uint64, token types.TokenID, slotDuration uint64) (*LoanRequest, error) {
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	if requestedAmount == 0 {
		return nil, errInvalidAmount
	}
	if nftWorth == 0 {
		return nil, errInvalidWorth
	}
	if slotDuration == 0 {
		return nil, errInvalidLength
	}
	fees, err := e.platformFees()
	if err != nil {
		return nil, err
	}
	debt := CompoundInterest(requestedAmount, fees.InterestRate, slotDuration)
	if debt.Cmp(MaxAllowedAmount(nftWorth, fees.LTV)) > 0 {
		return nil, ErrMaxBorrowExceeded
	}

	owner, ok, err := state.NFTOwner(nftMint)
	if err != nil {
		return nil, err
	}
	if !ok || owner != borrower {
		return nil, ErrInvalidAccount
	}

	requestID := RequestLoanID(borrowMint)
	if _, exists, err := state.LendingGetRequest(requestID); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrInvalidLoanState
	}
	if err := state.NFTMint(borrowMint, borrower); err != nil {
		return nil, err
	}

	esc, err := e.openEscrow(types.NativeToken, nftMint, seedNFTEscrow, nftMint[:])
	if err != nil {
		return nil, err
	}
	if err := state.NFTTransfer(nftMint, borrower, esc.Account); err != nil {
		return nil, err
	}

	request := &LoanRequest{
		ID:              requestID,
		Borrower:        borrower,
		NFTMint:         nftMint,
		NFTWorth:        nftWorth,
		RequestedAmount: requestedAmount,
		RequestedToken:  token,
		SlotDuration:    slotDuration,
		BorrowNFTMint:   borrowMint,
	}
	if err := state.LendingPutRequest(request); err != nil {
		return nil, err
	}
	e.emit(NewRequestedEvent(request))
	return request, nil
}

// CancelLoanRequest withdraws an open request. Only the holder of the
// borrow-proof mint may cancel, and only while no lender has granted the
// request. The collateral returns to the caller and the proof is burned.
func (e *Engine) CancelLoanRequest(caller [20]byte, requestID [32]byte) error {
	state, err := e.requireState()
	if err != nil {
		return err
	}
	request, ok, err := state.LendingGetRequest(requestID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if request.Granted() {
		return ErrUnableToCancel
	}
	holder, ok, err := state.NFTOwner(request.BorrowNFTMint)
	if err != nil {
		return err
	}
	if !ok || holder != caller {
		return ErrInvalidOwner
	}

	esc, err := e.escrowBySeeds(seedNFTEscrow, request.NFTMint[:])
	if err != nil {
		return err
	}
	if err := state.NFTTransfer(request.NFTMint, esc.Account, caller); err != nil {
		return err
	}
	if err := state.LendingDeleteEscrow(esc.ID); err != nil {
		return err
	}
	if err := state.NFTBurn(request.BorrowNFTMint, caller); err != nil {
		return err
	}
	if err := state.LendingDeleteRequest(requestID); err != nil {
		return err
	}
	e.emit(NewCancelledEvent(request))
	return nil
}

// GrantLoan matches a lender against an open request. The lender funds the
// full requested amount: the platform's cut moves into a per-loan fee escrow
// and the remainder into the principal escrow awaiting borrower withdrawal.
// Risk parameters are snapshotted into the loan at this point.
func (e *Engine) GrantLoan(lender [20]byte, requestID [32]byte, lendMint types.MintID) (*Loan, error) {
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	request, ok, err := state.LendingGetRequest(requestID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if request.Granted() {
		return nil, ErrInvalidLoanState
	}
	fees, err := e.platformFees()
	if err != nil {
		return nil, err
	}
	debt := CompoundInterest(request.RequestedAmount, fees.InterestRate, request.SlotDuration)
	if debt.Cmp(MaxAllowedAmount(request.NFTWorth, fees.LTV)) > 0 {
		return nil, ErrMaxBorrowExceeded
	}
	balance, err := state.Balance(request.RequestedToken, lender)
	if err != nil {
		return nil, err
	}
	if balance < request.RequestedAmount {
		return nil, ErrInsufficientFunds
	}

	loanID := LoanID(requestID)
	fee := CalculateFees(request.RequestedAmount, fees.FeePercentage)
	net := request.RequestedAmount - fee

	if err := state.NFTMint(lendMint, lender); err != nil {
		return nil, err
	}
	tokenEsc, err := e.openEscrow(request.RequestedToken, types.MintID{}, seedTokenEscrow, loanID[:])
	if err != nil {
		return nil, err
	}
	if err := state.Transfer(request.RequestedToken, lender, tokenEsc.Account, net); err != nil {
		return nil, err
	}

	owners, err := state.MultisigOwners()
	if err != nil {
		return nil, err
	}
	feeEsc, err := e.openEscrow(request.RequestedToken, types.MintID{}, seedFeeEscrow, loanID[:])
	if err != nil {
		return nil, err
	}
	if fee > 0 {
		if err := state.Transfer(request.RequestedToken, lender, feeEsc.Account, fee); err != nil {
			return nil, err
		}
	}
	pending := make([][20]byte, len(owners))
	copy(pending, owners)
	loanFee := &LoanFee{
		ID:            feeEsc.ID,
		Amount:        fee,
		Token:         request.RequestedToken,
		Loan:          loanID,
		OwnerCount:    uint64(len(owners)),
		PendingOwners: pending,
	}
	if err := state.LendingPutFee(loanFee); err != nil {
		return nil, err
	}

	loan := &Loan{
		ID:              loanID,
		NFTMint:         request.NFTMint,
		BorrowNFTMint:   request.BorrowNFTMint,
		LendNFTMint:     lendMint,
		RequestedToken:  request.RequestedToken,
		LTV:             fees.LTV,
		FeePercentage:   fees.FeePercentage,
		InterestRate:    fees.InterestRate,
		NFTWorth:        request.NFTWorth,
		Principal:       request.RequestedAmount,
		OutstandingDebt: request.RequestedAmount,
		Status:          LoanActive,
		SlotDuration:    request.SlotDuration,
		StartSlot:       e.currentSlot(),
	}
	if err := state.LendingPutLoan(loan); err != nil {
		return nil, err
	}

	grant := &GrantLoan{
		ID:             GrantLoanID(lendMint),
		Lender:         lender,
		NFTWorth:       request.NFTWorth,
		GrantedAmount:  request.RequestedAmount,
		RequestedToken: request.RequestedToken,
		LoanRequest:    requestID,
		SlotDuration:   request.SlotDuration,
		Loan:           loanID,
		LendNFTMint:    lendMint,
	}
	if err := state.LendingPutGrant(grant); err != nil {
		return nil, err
	}
	request.Loan = loanID
	if err := state.LendingPutRequest(request); err != nil {
		return nil, err
	}
	e.emit(NewGrantedEvent(loan, lender))
	return loan.Clone(), nil
}

// BorrowerWithdrawTokens is gated on holding the borrow-proof mint. On an
// active loan the caller claims the escrowed net principal. On a seized loan
// the caller reclaims partial repayments the collateral seizure stranded in
// escrow; the proof is burned once the escrow closes.
func (e *Engine) BorrowerWithdrawTokens(caller [20]byte, loanID [32]byte) (uint64, error) {
	state, err := e.requireState()
	if err != nil {
		return 0, err
	}
	loan, ok, err := state.LendingGetLoan(loanID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotFound
	}
	holder, ok, err := state.NFTOwner(loan.BorrowNFTMint)
	if err != nil {
		return 0, err
	}
	if !ok || holder != caller {
		return 0, ErrInvalidOwner
	}

	switch loan.Status {
	case LoanActive:
		esc, err := e.escrowBySeeds(seedTokenEscrow, loanID[:])
		if err != nil {
			return 0, err
		}
		amount, err := state.Balance(loan.RequestedToken, esc.Account)
		if err != nil {
			return 0, err
		}
		if err := state.Transfer(loan.RequestedToken, esc.Account, caller, amount); err != nil {
			return 0, err
		}
		loan.Status = LoanBorrowerWithdrawn
		if err := state.LendingPutLoan(loan); err != nil {
			return 0, err
		}
		e.emit(NewBorrowerWithdrawnEvent(loan, amount))
		return amount, nil
	case LoanSeized:
		esc, err := e.escrowBySeeds(seedTokenEscrow, loanID[:])
		if err != nil {
			return 0, err
		}
		amount, err := state.Balance(loan.RequestedToken, esc.Account)
		if err != nil {
			return 0, err
		}
		if amount > 0 {
			if err := state.Transfer(loan.RequestedToken, esc.Account, caller, amount); err != nil {
				return 0, err
			}
		}
		if err := e.closeTokenEscrow(esc); err != nil {
			return 0, err
		}
		if err := state.NFTBurn(loan.BorrowNFTMint, caller); err != nil {
			return 0, err
		}
		e.emit(NewBorrowerWithdrawnEvent(loan, amount))
		return amount, nil
	default:
		return 0, ErrInvalidStatus
	}
}

// refreshDebt recomputes the outstanding debt as of the current slot. Interest
// compounds from the start slot and stops accruing at the deadline, so the
// computation is idempotent: repeated calls at the same slot agree, and calls
// after the deadline all agree.
func (e *Engine) refreshDebt(loan *Loan) error {
	now := e.currentSlot()
	elapsed := uint64(0)
	if now > loan.StartSlot {
		elapsed = now - loan.StartSlot
	}
	capped := elapsed
	if capped > loan.SlotDuration {
		capped = loan.SlotDuration
	}
	debt := CompoundInterest(loan.Principal, loan.InterestRate, capped)
	if !debt.IsUint64() {
		return ErrMathOverflow
	}
	gross := debt.Uint64()
	if loan.PaidAmount >= gross {
		loan.OutstandingDebt = 0
	} else {
		loan.OutstandingDebt = gross - loan.PaidAmount
	}
	if elapsed > loan.SlotDuration && loan.OutstandingDebt > 0 {
		loan.Status = LoanDefaulted
	}
	return nil
}

// RefreshLoan recomputes the outstanding debt and lazily marks the loan
// defaulted once the deadline passes with debt still owed. Anyone may call it;
// the result depends only on ledger state and the slot clock.
func (e *Engine) RefreshLoan(loanID [32]byte) (*Loan, error) {
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	loan, ok, err := state.LendingGetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	switch loan.Status {
	case LoanActive, LoanBorrowerWithdrawn, LoanDefaulted:
	default:
		return nil, ErrCantRefresh
	}
	if err := e.refreshDebt(loan); err != nil {
		return nil, err
	}
	if err := state.LendingPutLoan(loan); err != nil {
		return nil, err
	}
	e.emit(NewRefreshedEvent(loan))
	return loan.Clone(), nil
}

// RepayLoan moves an instalment from the proof holder into the principal
// escrow. Repayment above the refreshed outstanding debt is rejected rather
// than truncated. Clearing the debt returns the collateral, burns the
// borrow proof and settles the loan.
func (e *Engine) RepayLoan(caller [20]byte, loanID [32]byte, amount uint64) (*Loan, error) {
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, errInvalidAmount
	}
	loan, ok, err := state.LendingGetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if loan.Status != LoanBorrowerWithdrawn {
		return nil, ErrInvalidStatus
	}
	holder, ok, err := state.NFTOwner(loan.BorrowNFTMint)
	if err != nil {
		return nil, err
	}
	if !ok || holder != caller {
		return nil, ErrInvalidOwner
	}
	if err := e.refreshDebt(loan); err != nil {
		return nil, err
	}
	if loan.Status == LoanDefaulted {
		if err := state.LendingPutLoan(loan); err != nil {
			return nil, err
		}
		return nil, ErrLoanEnded
	}
	if amount > loan.OutstandingDebt {
		return nil, ErrOverpayment
	}
	balance, err := state.Balance(loan.RequestedToken, caller)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, ErrInsufficientFunds
	}

	esc, err := e.escrowBySeeds(seedTokenEscrow, loanID[:])
	if err != nil {
		return nil, err
	}
	if err := state.Transfer(loan.RequestedToken, caller, esc.Account, amount); err != nil {
		return nil, err
	}
	loan.PaidAmount += amount
	loan.OutstandingDebt -= amount

	fullyRepaid := loan.OutstandingDebt == 0
	if fullyRepaid {
		loan.Status = LoanRepaid
		nftEsc, err := e.escrowBySeeds(seedNFTEscrow, loan.NFTMint[:])
		if err != nil {
			return nil, err
		}
		if err := state.NFTTransfer(loan.NFTMint, nftEsc.Account, caller); err != nil {
			return nil, err
		}
		if err := state.LendingDeleteEscrow(nftEsc.ID); err != nil {
			return nil, err
		}
		if err := state.NFTBurn(loan.BorrowNFTMint, caller); err != nil {
			return nil, err
		}
	}
	if err := state.LendingPutLoan(loan); err != nil {
		return nil, err
	}
	e.emit(NewRepaidEvent(loan, amount, fullyRepaid))
	return loan.Clone(), nil
}

// SeizeNft lets the lend-proof holder take the collateral of a defaulted
// loan. Seizure before the loan is marked defaulted is refused; callers run
// RefreshLoan first so the deadline check is on record.
func (e *Engine) SeizeNft(caller [20]byte, loanID [32]byte) error {
	state, err := e.requireState()
	if err != nil {
		return err
	}
	loan, ok, err := state.LendingGetLoan(loanID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if loan.Status != LoanDefaulted {
		return ErrInvalidStatus
	}
	holder, ok, err := state.NFTOwner(loan.LendNFTMint)
	if err != nil {
		return err
	}
	if !ok || holder != caller {
		return ErrInvalidOwner
	}

	nftEsc, err := e.escrowBySeeds(seedNFTEscrow, loan.NFTMint[:])
	if err != nil {
		return err
	}
	if err := state.NFTTransfer(loan.NFTMint, nftEsc.Account, caller); err != nil {
		return err
	}
	if err := state.LendingDeleteEscrow(nftEsc.ID); err != nil {
		return err
	}
	if err := state.NFTBurn(loan.LendNFTMint, caller); err != nil {
		return err
	}
	loan.Status = LoanSeized
	if err := state.LendingPutLoan(loan); err != nil {
		return err
	}
	e.emit(NewSeizedEvent(loan, caller))
	return nil
}

// LenderWithdrawTokens pays the accumulated repayments of a settled loan out
// to the lend-proof holder, burns the proof and closes the principal escrow.
func (e *Engine) LenderWithdrawTokens(caller [20]byte, loanID [32]byte) (uint64, error) {
	state, err := e.requireState()
	if err != nil {
		return 0, err
	}
	loan, ok, err := state.LendingGetLoan(loanID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotFound
	}
	if loan.LenderWithdrawn {
		return 0, ErrAlreadyWithdrawn
	}
	if loan.Status != LoanRepaid {
		return 0, ErrInvalidStatus
	}
	holder, ok, err := state.NFTOwner(loan.LendNFTMint)
	if err != nil {
		return 0, err
	}
	if !ok || holder != caller {
		return 0, ErrInvalidOwner
	}

	esc, err := e.escrowBySeeds(seedTokenEscrow, loanID[:])
	if err != nil {
		return 0, err
	}
	amount, err := state.Balance(loan.RequestedToken, esc.Account)
	if err != nil {
		return 0, err
	}
	if err := state.Transfer(loan.RequestedToken, esc.Account, caller, amount); err != nil {
		return 0, err
	}
	if err := e.closeTokenEscrow(esc); err != nil {
		return 0, err
	}
	if err := state.NFTBurn(loan.LendNFTMint, caller); err != nil {
		return 0, err
	}
	loan.LenderWithdrawn = true
	if err := state.LendingPutLoan(loan); err != nil {
		return 0, err
	}
	e.emit(NewLenderWithdrawnEvent(loan, amount))
	return amount, nil
}

// WithdrawFee pays one platform owner their pro-rata share of a loan's fee
// escrow. The owner set is the snapshot taken at grant time; each owner
// collects exactly once and the dust remainder goes to the last claimant.
func (e *Engine) WithdrawFee(owner [20]byte, loanID [32]byte) (uint64, error) {
	state, err := e.requireState()
	if err != nil {
		return 0, err
	}
	fee, ok, err := state.LendingGetFee(FeeEscrowID(loanID))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotFound
	}
	if fee.Withdrawn {
		return 0, ErrFeeWithdrawn
	}
	if !fee.Pending(owner) {
		owners, err := state.MultisigOwners()
		if err != nil {
			return 0, err
		}
		for _, o := range owners {
			if o == owner {
				return 0, ErrFeeWithdrawn
			}
		}
		return 0, ErrInvalidOwner
	}

	share := fee.Amount / fee.OwnerCount
	if len(fee.PendingOwners) == 1 {
		share = fee.Amount - share*(fee.OwnerCount-1)
	}
	esc, err := e.escrowBySeeds(seedFeeEscrow, loanID[:])
	if err != nil {
		return 0, err
	}
	if share > 0 {
		if err := state.Transfer(fee.Token, esc.Account, owner, share); err != nil {
			return 0, err
		}
	}

	remaining := fee.PendingOwners[:0:0]
	for _, o := range fee.PendingOwners {
		if o != owner {
			remaining = append(remaining, o)
		}
	}
	fee.PendingOwners = remaining
	if len(remaining) == 0 {
		fee.Withdrawn = true
		if err := e.closeTokenEscrow(esc); err != nil {
			return 0, err
		}
		loan, ok, err := state.LendingGetLoan(loanID)
		if err != nil {
			return 0, err
		}
		if ok {
			loan.AdminFeeWithdrawn = true
			if err := state.LendingPutLoan(loan); err != nil {
				return 0, err
			}
		}
	}
	if err := state.LendingPutFee(fee); err != nil {
		return 0, err
	}
	e.emit(NewFeeWithdrawnEvent(fee, owner, share))
	return share, nil
}
