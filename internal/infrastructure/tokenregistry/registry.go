package tokenregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"portfolio_engine/internal/app/port"
	"portfolio_engine/internal/domain/entity"
)

// Registry implements port.TokenRegistry from a static JSON token list. The
// list carries symbols, decimals, LP metadata and the token-to-CoinGecko-id
// mapping that the secondary price provider needs.
type Registry struct {
	byID     map[string]entity.TokenInfo
	bySymbol map[string]entity.TokenInfo
	tokens   []entity.TokenInfo
}

// Load reads a JSON array of TokenInfo from the given file. The native coin
// is always present, even with an empty or missing file.
func Load(path string, logger port.Logger) (*Registry, error) {
	var tokens []entity.TokenInfo

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &tokens); err != nil {
			return nil, fmt.Errorf("failed to unmarshal token registry %s: %w", path, err)
		}
	case os.IsNotExist(err):
		logger.Warn("Token registry file not found, only the native coin will be known", "path", path)
	default:
		return nil, fmt.Errorf("failed to read token registry %s: %w", path, err)
	}

	r := &Registry{
		byID:     make(map[string]entity.TokenInfo, len(tokens)+1),
		bySymbol: make(map[string]entity.TokenInfo, len(tokens)+1),
	}

	native := entity.TokenInfo{
		ID:          entity.AlphTokenID,
		Symbol:      entity.AlphSymbol,
		Name:        "Alephium",
		Decimals:    entity.AlphDecimals,
		CoinGeckoID: "alephium",
	}
	r.add(native)

	skipped := 0
	for _, t := range tokens {
		if t.ID == "" || t.Symbol == "" {
			skipped++
			continue
		}
		r.add(t)
	}
	if skipped > 0 {
		logger.Warn("Skipped token registry entries without id or symbol", "count", skipped, "path", path)
	}
	logger.Info("Token registry loaded", "path", path, "tokens", len(r.tokens))
	return r, nil
}

func (r *Registry) add(t entity.TokenInfo) {
	if _, exists := r.byID[strings.ToLower(t.ID)]; exists {
		return
	}
	r.byID[strings.ToLower(t.ID)] = t
	r.bySymbol[strings.ToUpper(t.Symbol)] = t
	r.tokens = append(r.tokens, t)
}

// Get returns metadata for a token id, if known.
func (r *Registry) Get(tokenID string) (entity.TokenInfo, bool) {
	t, ok := r.byID[strings.ToLower(tokenID)]
	return t, ok
}

// CoinGeckoID returns the provider id mapped to a token, if maintained.
func (r *Registry) CoinGeckoID(tokenID string) (string, bool) {
	t, ok := r.byID[strings.ToLower(tokenID)]
	if !ok || t.CoinGeckoID == "" {
		return "", false
	}
	return t.CoinGeckoID, true
}

// BySymbol looks a token up by ticker, case-insensitively.
func (r *Registry) BySymbol(symbol string) (entity.TokenInfo, bool) {
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// All returns every known token.
func (r *Registry) All() []entity.TokenInfo {
	out := make([]entity.TokenInfo, len(r.tokens))
	copy(out, r.tokens)
	return out
}

var _ port.TokenRegistry = (*Registry)(nil)
