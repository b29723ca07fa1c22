package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nftlend/config"
	"nftlend/core/types"
	"nftlend/crypto"
	"nftlend/native/lending"
	"nftlend/native/multisig"
	"nftlend/native/params"
	"nftlend/storage"
)

func newService(t *testing.T, ownerCount int, threshold uint64) (*Service, [][20]byte) {
	t.Helper()
	owners := make([][20]byte, 0, ownerCount)
	encoded := make([]string, 0, ownerCount)
	for i := 0; i < ownerCount; i++ {
		key, err := crypto.GeneratePrivateKey()
		require.NoError(t, err)
		addr := key.PubKey().Address()
		owners = append(owners, addr.Raw())
		encoded = append(encoded, addr.String())
	}
	cfg := &config.Config{
		DataDir:     t.TempDir(),
		NetworkName: "lend-test",
		Genesis: config.Genesis{
			PlatformFees: config.GenesisFees{FeePercentage: 30, InterestRate: 50, LTV: 800},
			Multisig:     config.GenesisMultisig{Owners: encoded, Threshold: threshold},
		},
	}
	svc, err := New(cfg, storage.NewMemDB(), nil)
	require.NoError(t, err)
	return svc, owners
}

func testAddr(b byte) [20]byte {
	var a [20]byte
	a[0] = b
	return a
}

func testMint(b byte) types.MintID {
	var m types.MintID
	m[0] = b
	return m
}

func TestServiceGenesis(t *testing.T) {
	svc, owners := newService(t, 3, 2)

	record, err := svc.Multisig()
	require.NoError(t, err)
	require.Equal(t, owners, record.Owners)
	require.Equal(t, uint64(2), record.Threshold)

	fees, ok, err := svc.PlatformFees()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(800), fees.LTV)
}

func TestServiceLoanLifecycle(t *testing.T) {
	svc, _ := newService(t, 1, 1)

	borrower, lender := testAddr(0xb0), testAddr(0x1e)
	nftMint, borrowMint, lendMint := testMint(1), testMint(2), testMint(3)
	require.NoError(t, svc.State().NFTMint(nftMint, borrower))
	require.NoError(t, svc.State().Credit(types.NativeToken, lender, 7_000))

	request, err := svc.RequestForLoan(borrower, nftMint, borrowMint, 10_000, 7_000, types.NativeToken, lending.SlotsPerYear)
	require.NoError(t, err)
	loan, err := svc.GrantLoan(lender, request.ID, lendMint)
	require.NoError(t, err)

	net, err := svc.BorrowerWithdrawTokens(borrower, loan.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(6_790), net)

	svc.SetSlot(lending.SlotsPerYear / 2)
	require.NoError(t, svc.State().Credit(types.NativeToken, borrower, 1_000))
	refreshed, err := svc.RefreshLoan(loan.ID)
	require.NoError(t, err)
	settled, err := svc.RepayLoan(borrower, loan.ID, refreshed.OutstandingDebt)
	require.NoError(t, err)
	require.Equal(t, lending.LoanRepaid, settled.Status)

	paid, err := svc.LenderWithdrawTokens(lender, loan.ID)
	require.NoError(t, err)
	require.Equal(t, refreshed.OutstandingDebt, paid)
}

func TestServiceParameterChange(t *testing.T) {
	svc, owners := newService(t, 3, 2)

	payload, err := multisig.EncodePayload(multisig.MethodSetPlatformFees, params.PlatformFees{
		FeePercentage: 20, InterestRate: 45, LTV: 750,
	})
	require.NoError(t, err)

	tx, err := svc.CreateTransaction(owners[0], "params", nil, payload)
	require.NoError(t, err)
	require.ErrorIs(t, svc.ExecuteTransaction(tx.ID), multisig.ErrNotEnoughSigners)

	_, err = svc.Approve(owners[1], tx.ID)
	require.NoError(t, err)
	require.NoError(t, svc.ExecuteTransaction(tx.ID))

	fees, ok, err := svc.PlatformFees()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, params.PlatformFees{FeePercentage: 20, InterestRate: 45, LTV: 750}, fees)
}

// A service over an already-initialised database must keep its ledger and
// skip the config genesis block.
func TestServiceReopenKeepsState(t *testing.T) {
	db := storage.NewMemDB()

	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	cfg := &config.Config{
		NetworkName: "lend-test",
		Genesis: config.Genesis{
			PlatformFees: config.GenesisFees{FeePercentage: 30, InterestRate: 50, LTV: 800},
			Multisig: config.GenesisMultisig{
				Owners:    []string{key.PubKey().Address().String()},
				Threshold: 1,
			},
		},
	}
	first, err := New(cfg, db, nil)
	require.NoError(t, err)
	require.NoError(t, first.State().Credit(types.NativeToken, testAddr(1), 42))

	second, err := New(cfg, db, nil)
	require.NoError(t, err)
	balance, err := second.State().Balance(types.NativeToken, testAddr(1))
	require.NoError(t, err)
	require.Equal(t, uint64(42), balance)
}
