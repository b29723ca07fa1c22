package genesis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nftlend/config"
	"nftlend/core/state"
	"nftlend/crypto"
	"nftlend/native/multisig"
	"nftlend/native/params"
	"nftlend/storage"
)

func testGenesis(t *testing.T, threshold uint64, ownerCount int) config.Genesis {
	t.Helper()
	owners := make([]string, 0, ownerCount)
	for i := 0; i < ownerCount; i++ {
		key, err := crypto.GeneratePrivateKey()
		require.NoError(t, err)
		owners = append(owners, key.PubKey().Address().String())
	}
	return config.Genesis{
		PlatformFees: config.GenesisFees{FeePercentage: 30, InterestRate: 50, LTV: 800},
		Multisig:     config.GenesisMultisig{Owners: owners, Threshold: threshold},
	}
}

func TestApply(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())

	applied, err := Applied(manager)
	require.NoError(t, err)
	require.False(t, applied)

	gen := testGenesis(t, 2, 3)
	require.NoError(t, Apply(manager, gen))

	applied, err = Applied(manager)
	require.NoError(t, err)
	require.True(t, applied)

	record, ok, err := manager.MultisigGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, record.Owners, 3)
	require.Equal(t, uint64(2), record.Threshold)

	fees, ok, err := params.NewStore(manager).PlatformFees()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, params.PlatformFees{FeePercentage: 30, InterestRate: 50, LTV: 800}, fees)
}

func TestApplyTwiceRefused(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	gen := testGenesis(t, 1, 1)
	require.NoError(t, Apply(manager, gen))
	require.ErrorIs(t, Apply(manager, gen), multisig.ErrAlreadyInitialized)
}

func TestApplyRejectsBadOwner(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	gen := config.Genesis{
		Multisig: config.GenesisMultisig{Owners: []string{"bogus"}, Threshold: 1},
	}
	require.Error(t, Apply(manager, gen))
}
