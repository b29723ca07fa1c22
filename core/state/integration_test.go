package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nftlend/core/types"
	"nftlend/native/lending"
	"nftlend/native/multisig"
	"nftlend/native/params"
	"nftlend/storage"
)

// Full protocol walk against the real state backend: governance bootstraps
// the platform through the multisig, a loan runs request to settlement, and
// the owners split the fee.
func TestProtocolEndToEnd(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	store := params.NewStore(manager)

	msEngine := multisig.NewEngine()
	msEngine.SetState(manager)
	require.NoError(t, params.RegisterHandlers(msEngine.Registry(), store))

	ownerA, ownerB, ownerC := testAddr(0xa1), testAddr(0xa2), testAddr(0xa3)
	_, err := msEngine.Initialize([][20]byte{ownerA, ownerB, ownerC}, 2)
	require.NoError(t, err)

	// Platform fees arrive through the execution pipeline.
	payload, err := multisig.EncodePayload(multisig.MethodSetPlatformFees, params.PlatformFees{
		FeePercentage: 30, InterestRate: 50, LTV: 800,
	})
	require.NoError(t, err)
	tx, err := msEngine.CreateTransaction(ownerA, "params", nil, payload)
	require.NoError(t, err)
	_, err = msEngine.Approve(ownerB, tx.ID)
	require.NoError(t, err)
	require.NoError(t, msEngine.ExecuteTransaction(tx.ID))

	var slot uint64
	lendEngine := lending.NewEngine()
	lendEngine.SetState(manager)
	lendEngine.SetFeeSource(store)
	lendEngine.SetSlotFunc(func() uint64 { return slot })

	borrower, lender := testAddr(0xb0), testAddr(0x1e)
	nftMint, borrowMint, lendMint := testMint(1), testMint(2), testMint(3)
	require.NoError(t, manager.NFTMint(nftMint, borrower))
	require.NoError(t, manager.Credit(types.NativeToken, lender, 7_000))

	request, err := lendEngine.RequestForLoan(borrower, nftMint, borrowMint, 10_000, 7_000, types.NativeToken, lending.SlotsPerYear)
	require.NoError(t, err)

	loan, err := lendEngine.GrantLoan(lender, request.ID, lendMint)
	require.NoError(t, err)
	require.Equal(t, uint32(800), loan.LTV)

	net, err := lendEngine.BorrowerWithdrawTokens(borrower, loan.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(6_790), net)

	// Half a year of interest, settled in one payment.
	slot = lending.SlotsPerYear / 2
	require.NoError(t, manager.Credit(types.NativeToken, borrower, 1_000))
	refreshed, err := lendEngine.RefreshLoan(loan.ID)
	require.NoError(t, err)
	settled, err := lendEngine.RepayLoan(borrower, loan.ID, refreshed.OutstandingDebt)
	require.NoError(t, err)
	require.Equal(t, lending.LoanRepaid, settled.Status)

	owner, ok, err := manager.NFTOwner(nftMint)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, borrower, owner)

	paid, err := lendEngine.LenderWithdrawTokens(lender, loan.ID)
	require.NoError(t, err)
	require.Equal(t, refreshed.OutstandingDebt, paid)

	// 210 of fees, 70 per owner.
	for _, admin := range [][20]byte{ownerA, ownerB, ownerC} {
		share, err := lendEngine.WithdrawFee(admin, loan.ID)
		require.NoError(t, err)
		require.Equal(t, uint64(70), share)
	}

	// Conservation: everything the lender put in came back out as
	// borrower proceeds, repayment flows and owner fees.
	lenderBalance, err := manager.Balance(types.NativeToken, lender)
	require.NoError(t, err)
	require.Equal(t, paid, lenderBalance)
	borrowerBalance, err := manager.Balance(types.NativeToken, borrower)
	require.NoError(t, err)
	require.Equal(t, 6_790+1_000-paid, borrowerBalance)
}
