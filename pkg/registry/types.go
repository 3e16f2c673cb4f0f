// Package registry resolves on-chain-governed parameters as of a historical
// block height: which address a logical protocol contract had at that height,
// and which governance event for a (contract, kind) pair was most recently in
// effect. Misses are expected and reported as absence, never as errors; most
// blocks predate most governance changes.
package registry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Logical names of the protocol contracts this service resolves.
const (
	ContractFeeHandler = "FeeHandler"
	ContractGovernance = "Governance"
)

// Governance event kinds tracked for the fee handler.
const (
	EventFeeBeneficiarySet = "FeeBeneficiarySet"
	EventBurnFractionSet   = "BurnFractionSet"
)

// ContractDeployment records where a logical contract lived for a range of
// blocks. ToBlock is nil while the deployment is still current.
type ContractDeployment struct {
	Name      string
	Address   common.Address
	FromBlock uint64
	ToBlock   *uint64
}

// GovernanceEvent is an immutable on-chain parameter change. Address carries
// the payload for address-valued events (e.g. a new fee beneficiary), Value
// for integer-valued ones (e.g. a new burn fraction, 24-decimal fixed-point).
type GovernanceEvent struct {
	Contract    string
	Kind        string
	BlockNumber uint64
	Address     common.Address
	Value       *big.Int
	TxHash      common.Hash
	LogIndex    uint32
}
