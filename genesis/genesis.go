package genesis

import (
	"fmt"

	"nftlend/config"
	"nftlend/core/state"
	"nftlend/crypto"
	"nftlend/native/multisig"
	"nftlend/native/params"
)

// Applied reports whether the ledger already carries bootstrap state. The
// multisig record is the marker: it is created exactly once.
func Applied(manager *state.Manager) (bool, error) {
	_, ok, err := manager.MultisigGet()
	return ok, err
}

// Apply writes the bootstrap protocol state onto a fresh ledger: the platform
// multisig with its owner set and threshold, and the initial platform fees.
// Applying to an initialised ledger fails; fee changes afterwards go through
// the multisig pipeline.
func Apply(manager *state.Manager, gen config.Genesis) error {
	owners := make([][20]byte, 0, len(gen.Multisig.Owners))
	for _, raw := range gen.Multisig.Owners {
		addr, err := crypto.DecodeAddress(raw)
		if err != nil {
			return fmt.Errorf("genesis: owner %q: %w", raw, err)
		}
		owners = append(owners, addr.Raw())
	}

	engine := multisig.NewEngine()
	engine.SetState(manager)
	if _, err := engine.Initialize(owners, gen.Multisig.Threshold); err != nil {
		return fmt.Errorf("genesis: initialise multisig: %w", err)
	}

	store := params.NewStore(manager)
	fees := params.PlatformFees{
		FeePercentage: gen.PlatformFees.FeePercentage,
		InterestRate:  gen.PlatformFees.InterestRate,
		LTV:           gen.PlatformFees.LTV,
	}
	if err := store.SetPlatformFees(fees); err != nil {
		return fmt.Errorf("genesis: set platform fees: %w", err)
	}
	return nil
}
