package cosmos

import (
	"context"

	"github.com/bcp-innovations/hyperlane-cosmos/util"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

var _ core.RoutingIsm = &RoutingIsm{}

// RoutingIsm is a reference to a routing ISM contract on a Cosmos chain.
type RoutingIsm struct {
	contract
}

// NewRoutingIsm binds the routing ISM at locator. The adapter takes ownership of conn.
func NewRoutingIsm(conn *core.Shared[*Conn], locator core.ContractLocator, opts ...Option) (*RoutingIsm, error) {
	c, err := newContract(conn, locator, "routing_ism", opts)
	if err != nil {
		return nil, err
	}
	return &RoutingIsm{contract: c}, nil
}

// Route queries the routing table with the hex-encoded message and decodes the bech32 ISM
// address of the response.
func (r *RoutingIsm) Route(ctx context.Context, message core.Message) (util.HexAddress, error) {
	payload := routeRequest{
		Route: routeRequestInner{
			Message: encodeHex(message.Bytes()),
		},
	}

	resp, err := query[routeResponse](ctx, r.provider(), r.bech32, "route", payload, nil)
	if err != nil {
		return util.HexAddress{}, err
	}
	return DecodeAddress(resp.Ism)
}
