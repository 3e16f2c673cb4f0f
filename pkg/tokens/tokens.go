// Package tokens holds the token transfer shapes shared by the reporting
// views, plus the address display lookup consumed when rendering them.
package tokens

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Transfer is a single token transfer observed on chain.
type Transfer struct {
	From        common.Address
	To          common.Address
	Amount      decimal.Decimal
	TxHash      common.Hash
	LogIndex    uint32
	BlockNumber uint64
}

// DisplayInfo is the presentation metadata known for an address.
type DisplayInfo struct {
	Name string `json:"name,omitempty"`
}

// AddressBook resolves display metadata for a set of addresses. Addresses
// with no known metadata are simply missing from the result.
type AddressBook interface {
	Lookup(ctx context.Context, addrs []common.Address) (map[common.Address]DisplayInfo, error)
}

// NopAddressBook knows no addresses. Used where enrichment is unavailable.
type NopAddressBook struct{}

func (NopAddressBook) Lookup(ctx context.Context, addrs []common.Address) (map[common.Address]DisplayInfo, error) {
	return map[common.Address]DisplayInfo{}, nil
}

// RenderedParty is an address plus whatever display metadata was resolvable.
type RenderedParty struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// RenderedTransfer is the stable JSON shape for a token transfer.
type RenderedTransfer struct {
	From        RenderedParty `json:"from"`
	To          RenderedParty `json:"to"`
	Amount      string        `json:"amount"`
	TxHash      string        `json:"tx_hash"`
	LogIndex    uint32        `json:"log_index"`
	BlockNumber uint64        `json:"block_number"`
}

// RenderTransfer formats a transfer for output, attaching display info from
// the given lookup result where present.
func RenderTransfer(t Transfer, infos map[common.Address]DisplayInfo) RenderedTransfer {
	return RenderedTransfer{
		From:        renderParty(t.From, infos),
		To:          renderParty(t.To, infos),
		Amount:      t.Amount.String(),
		TxHash:      t.TxHash.Hex(),
		LogIndex:    t.LogIndex,
		BlockNumber: t.BlockNumber,
	}
}

func renderParty(addr common.Address, infos map[common.Address]DisplayInfo) RenderedParty {
	p := RenderedParty{Address: addr.Hex()}
	if info, ok := infos[addr]; ok {
		p.Name = info.Name
	}
	return p
}
