package params

import (
	"encoding/json"
	"fmt"

	"nftlend/native/multisig"
)

// RegisterHandlers binds the governance-controlled parameter mutations into
// the multisig execution registry. Platform fees can only change through an
// executed transaction, never by direct store access.
func RegisterHandlers(reg *multisig.Registry, store *Store) error {
	if reg == nil {
		return fmt.Errorf("params: registry must not be nil")
	}
	if store == nil {
		return fmt.Errorf("params: store must not be nil")
	}
	return reg.Register(multisig.MethodSetPlatformFees, func(_ multisig.Authority, _ []multisig.TransactionAccount, raw json.RawMessage) error {
		var fees PlatformFees
		if err := json.Unmarshal(raw, &fees); err != nil {
			return fmt.Errorf("params: decode platform fees payload: %w", err)
		}
		return store.SetPlatformFees(fees)
	})
}
