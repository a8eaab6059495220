package port

import (
	"context"
	"math/big"

	"portfolio_engine/internal/domain/entity"
)

// NodeClient is the protocol client that supplies per-address balances and
// token holdings. It is an external collaborator; the engine only depends on
// this interface.
type NodeClient interface {
	// GetBalance fetches the native coin balance, in minor units.
	GetBalance(ctx context.Context, address string) (*big.Int, error)

	// GetTokens fetches every fungible and non-fungible token held by the
	// address.
	GetTokens(ctx context.Context, address string) ([]entity.TokenBalance, error)
}

// PoolStateProvider reads AMM pool reserves for reserve-based LP valuation.
// The node implementation currently answers ErrPoolStateUnavailable for every
// pool; the interface exists so the LP valuer can prefer exact data the day a
// provider supplies it.
type PoolStateProvider interface {
	GetPoolState(ctx context.Context, poolAddress string) (entity.PoolState, error)
}
