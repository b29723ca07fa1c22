package service

import (
	"log/slog"
	"sync/atomic"

	"nftlend/config"
	"nftlend/core/events"
	"nftlend/core/state"
	"nftlend/core/types"
	"nftlend/genesis"
	"nftlend/native/lending"
	"nftlend/native/multisig"
	"nftlend/native/params"
	"nftlend/observability"
	"nftlend/observability/logging"
	"nftlend/storage"
)

// Service hosts the protocol engines over one ledger: it applies genesis to a
// fresh database, wires the engines to the state manager and the governance
// parameter store, and instruments every operation with structured logs and
// metrics.
type Service struct {
	manager *state.Manager
	store   *params.Store

	lending  *lending.Engine
	multisig *multisig.Engine

	logger  *slog.Logger
	metrics *observability.ProtocolMetrics
	slot    atomic.Uint64
}

// New builds a service over the given database. Genesis is applied when the
// ledger is fresh; an initialised ledger keeps its state and the config
// genesis block is ignored. When logger is nil the structured JSON logger is
// installed process-wide with the network name as the environment tag.
func New(cfg *config.Config, db storage.Database, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.Setup("nftlend", cfg.NetworkName)
	}
	manager := state.NewManager(db)

	applied, err := genesis.Applied(manager)
	if err != nil {
		return nil, err
	}
	if !applied {
		if err := genesis.Apply(manager, cfg.Genesis); err != nil {
			return nil, err
		}
		logger.Info("applied genesis state",
			"network", cfg.NetworkName,
			"owners", len(cfg.Genesis.Multisig.Owners),
			"threshold", cfg.Genesis.Multisig.Threshold)
	}

	store := params.NewStore(manager)

	msEngine := multisig.NewEngine()
	msEngine.SetState(manager)
	if err := params.RegisterHandlers(msEngine.Registry(), store); err != nil {
		return nil, err
	}

	svc := &Service{
		manager:  manager,
		store:    store,
		multisig: msEngine,
		logger:   logger,
		metrics:  observability.Metrics(),
	}

	lendEngine := lending.NewEngine()
	lendEngine.SetState(manager)
	lendEngine.SetFeeSource(store)
	lendEngine.SetSlotFunc(svc.slot.Load)
	svc.lending = lendEngine

	return svc, nil
}

// SetEmitter forwards an event emitter to both engines.
func (s *Service) SetEmitter(emitter events.Emitter) {
	s.lending.SetEmitter(emitter)
	s.multisig.SetEmitter(emitter)
}

// Slot returns the current slot height.
func (s *Service) Slot() uint64 { return s.slot.Load() }

// SetSlot moves the slot clock; the host tracking canonical network time
// calls this before dispatching operations.
func (s *Service) SetSlot(slot uint64) { s.slot.Store(slot) }

// State exposes the underlying ledger manager for host-level funding and
// queries.
func (s *Service) State() *state.Manager { return s.manager }

// PlatformFees returns the current governance parameters.
func (s *Service) PlatformFees() (params.PlatformFees, bool, error) {
	return s.store.PlatformFees()
}

func (s *Service) observe(module, operation string, err error, attrs ...any) {
	s.metrics.Observe(module, operation, err)
	if err != nil {
		s.logger.Warn(operation+" failed", append(attrs, "module", module, "err", err)...)
		return
	}
	s.logger.Info(operation, append(attrs, "module", module)...)
}

// RequestForLoan opens a loan request (lending.Engine.RequestForLoan).
func (s *Service) RequestForLoan(borrower [20]byte, nftMint, borrowMint types.MintID, nftWorth, requestedAmount uint64, token types.TokenID, slotDuration uint64) (*lending.LoanRequest, error) {
	request, err := s.lending.RequestForLoan(borrower, nftMint, borrowMint, nftWorth, requestedAmount, token, slotDuration)
	s.observe("lending", "request_for_loan", err, "amount", requestedAmount, "duration", slotDuration)
	return request, err
}

// CancelLoanRequest withdraws an ungranted request.
func (s *Service) CancelLoanRequest(caller [20]byte, requestID [32]byte) error {
	err := s.lending.CancelLoanRequest(caller, requestID)
	s.observe("lending", "cancel_loan_request", err)
	return err
}

// GrantLoan matches a lender against an open request.
func (s *Service) GrantLoan(lender [20]byte, requestID [32]byte, lendMint types.MintID) (*lending.Loan, error) {
	loan, err := s.lending.GrantLoan(lender, requestID, lendMint)
	s.observe("lending", "grant_loan", err)
	return loan, err
}

// BorrowerWithdrawTokens claims escrowed principal or stranded repayments.
func (s *Service) BorrowerWithdrawTokens(caller [20]byte, loanID [32]byte) (uint64, error) {
	amount, err := s.lending.BorrowerWithdrawTokens(caller, loanID)
	s.observe("lending", "borrower_withdraw_tokens", err, "amount", amount)
	return amount, err
}

// RepayLoan pays an instalment against the outstanding debt.
func (s *Service) RepayLoan(caller [20]byte, loanID [32]byte, amount uint64) (*lending.Loan, error) {
	loan, err := s.lending.RepayLoan(caller, loanID, amount)
	s.observe("lending", "repay_loan", err, "amount", amount)
	return loan, err
}

// RefreshLoan recomputes the outstanding debt at the current slot.
func (s *Service) RefreshLoan(loanID [32]byte) (*lending.Loan, error) {
	loan, err := s.lending.RefreshLoan(loanID)
	s.observe("lending", "refresh_loan", err, "slot", s.Slot())
	return loan, err
}

// SeizeNft hands the collateral of a defaulted loan to the lender.
func (s *Service) SeizeNft(caller [20]byte, loanID [32]byte) error {
	err := s.lending.SeizeNft(caller, loanID)
	s.observe("lending", "seize_nft", err)
	return err
}

// LenderWithdrawTokens pays settled repayments out to the lender.
func (s *Service) LenderWithdrawTokens(caller [20]byte, loanID [32]byte) (uint64, error) {
	amount, err := s.lending.LenderWithdrawTokens(caller, loanID)
	s.observe("lending", "lender_withdraw_tokens", err, "amount", amount)
	return amount, err
}

// WithdrawFee pays one platform owner their share of a loan's fee escrow.
func (s *Service) WithdrawFee(owner [20]byte, loanID [32]byte) (uint64, error) {
	share, err := s.lending.WithdrawFee(owner, loanID)
	s.observe("lending", "withdraw_fee", err, "share", share)
	return share, err
}

// CreateTransaction proposes a privileged instruction.
func (s *Service) CreateTransaction(proposer [20]byte, program string, accounts []multisig.TransactionAccount, payload []byte) (*multisig.Transaction, error) {
	tx, err := s.multisig.CreateTransaction(proposer, program, accounts, payload)
	s.observe("multisig", "create_transaction", err, "program", program)
	return tx, err
}

// Approve signs a pending proposal.
func (s *Service) Approve(owner [20]byte, txID [32]byte) (*multisig.Transaction, error) {
	tx, err := s.multisig.Approve(owner, txID)
	s.observe("multisig", "approve", err)
	return tx, err
}

// ExecuteTransaction applies a proposal once quorum is reached.
func (s *Service) ExecuteTransaction(txID [32]byte) error {
	err := s.multisig.ExecuteTransaction(txID)
	s.observe("multisig", "execute_transaction", err)
	return err
}

// Multisig returns the current authority record.
func (s *Service) Multisig() (*multisig.Multisig, error) {
	return s.multisig.Multisig()
}
