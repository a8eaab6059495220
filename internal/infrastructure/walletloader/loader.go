package walletloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"portfolio_engine/internal/app/port"
	"portfolio_engine/internal/domain/entity"
)

// WalletFileLoader implements the port.WalletProvider interface by loading
// wallets from a plain text file, one address per line, # for comments.
type WalletFileLoader struct {
	filePath   string
	loggerInfo func(msg string, args ...any)
}

// NewWalletFileLoader creates a new WalletFileLoader.
func NewWalletFileLoader(filePath string, loggerInfo func(msg string, args ...any)) port.WalletProvider {
	return &WalletFileLoader{
		filePath:   filePath,
		loggerInfo: loggerInfo,
	}
}

// GetWallets reads wallet addresses from the configured file path.
func (l *WalletFileLoader) GetWallets() ([]entity.Wallet, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet file %s: %w", l.filePath, err)
	}
	defer file.Close()

	var wallets []entity.Wallet
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Addresses are base58; anything with spaces is a formatting mistake.
		if strings.ContainsAny(line, " \t") {
			if l.loggerInfo != nil {
				l.loggerInfo("Skipping invalid wallet address format", "file", l.filePath, "line_number", lineNum, "address", line)
			}
			continue
		}
		wallets = append(wallets, entity.Wallet{Address: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning wallet file %s: %w", l.filePath, err)
	}

	if l.loggerInfo != nil {
		l.loggerInfo("Wallets loaded successfully from file", "count", len(wallets), "path", l.filePath)
	}
	return wallets, nil
}
