package port

import (
	"context"

	"portfolio_engine/internal/domain/entity"
)

// PortfolioService consolidates balances and token holdings across wallets.
type PortfolioService interface {
	// Aggregate fetches every wallet concurrently and folds the results into
	// one snapshot. Individual wallet failures are captured in the snapshot's
	// Errors, never raised. Repeated calls within the refresh cooldown serve
	// the previous snapshot.
	Aggregate(ctx context.Context, wallets []entity.Wallet) *entity.PortfolioSnapshot
}

// WalletProvider supplies the set of user-tracked wallets.
type WalletProvider interface {
	GetWallets() ([]entity.Wallet, error)
}
