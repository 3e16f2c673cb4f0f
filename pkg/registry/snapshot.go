package registry

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

type eventKey struct {
	contract string
	kind     string
}

// Snapshot is an immutable as-of index over contract deployments and
// governance events. Lookups are read-only and safe for concurrent use.
type Snapshot struct {
	deployments map[string][]ContractDeployment // sorted by FromBlock
	events      map[eventKey][]GovernanceEvent  // sorted by (BlockNumber, LogIndex)
}

// NewSnapshot indexes the given history. The inputs are copied; the snapshot
// never mutates or aliases them.
func NewSnapshot(deployments []ContractDeployment, events []GovernanceEvent) *Snapshot {
	s := &Snapshot{
		deployments: make(map[string][]ContractDeployment),
		events:      make(map[eventKey][]GovernanceEvent),
	}
	for _, d := range deployments {
		s.deployments[d.Name] = append(s.deployments[d.Name], d)
	}
	for name := range s.deployments {
		ds := s.deployments[name]
		sort.Slice(ds, func(i, j int) bool { return ds[i].FromBlock < ds[j].FromBlock })
	}
	for _, e := range events {
		k := eventKey{contract: e.Contract, kind: e.Kind}
		s.events[k] = append(s.events[k], e)
	}
	for k := range s.events {
		es := s.events[k]
		sort.Slice(es, func(i, j int) bool {
			if es[i].BlockNumber != es[j].BlockNumber {
				return es[i].BlockNumber < es[j].BlockNumber
			}
			return es[i].LogIndex < es[j].LogIndex
		})
	}
	return s
}

// AddressAt returns the address the named contract was deployed at as of the
// given height, or false if the contract was not deployed then.
func (s *Snapshot) AddressAt(name string, height uint64) (common.Address, bool) {
	ds := s.deployments[name]
	// Greatest FromBlock <= height.
	i := sort.Search(len(ds), func(i int) bool { return ds[i].FromBlock > height })
	if i == 0 {
		return common.Address{}, false
	}
	d := ds[i-1]
	if d.ToBlock != nil && height > *d.ToBlock {
		return common.Address{}, false
	}
	return d.Address, true
}

// LatestEventAt returns the most recent (contract, kind) event with
// BlockNumber <= height, or false if no such event exists. Events strictly
// above the query height are never considered.
func (s *Snapshot) LatestEventAt(contract, kind string, height uint64) (*GovernanceEvent, bool) {
	es := s.events[eventKey{contract: contract, kind: kind}]
	i := sort.Search(len(es), func(i int) bool { return es[i].BlockNumber > height })
	if i == 0 {
		return nil, false
	}
	e := es[i-1]
	return &e, true
}
