package ethereum

import (
	"context"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

var _ core.RoutingIsm = &RoutingIsm{}

// RoutingIsm is a reference to a routing ISM contract on an EVM chain.
type RoutingIsm struct {
	contract
}

// NewRoutingIsm binds the routing ISM at locator. The adapter takes ownership of conn.
func NewRoutingIsm(conn *core.Shared[Client], locator core.ContractLocator, opts ...Option) *RoutingIsm {
	return &RoutingIsm{contract: newContract(conn, locator, routingIsmABI, "routing_ism", opts)}
}

// Route returns the ISM the routing table selects for message, left-padded to 32 bytes.
func (r *RoutingIsm) Route(ctx context.Context, message core.Message) (util.HexAddress, error) {
	out, err := r.call(ctx, nil, "route", message.Bytes())
	if err != nil {
		return util.HexAddress{}, err
	}
	ism, err := convert[common.Address]("route", out[0])
	if err != nil {
		return util.HexAddress{}, err
	}
	return fromAddress(ism), nil
}
