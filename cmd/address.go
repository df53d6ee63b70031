package cmd

import (
	"fmt"

	"github.com/bnema/donation-portal/internal/domain"
	"github.com/spf13/cobra"
)

func addressFlag(cmd *cobra.Command, name string) (domain.Address, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", err
	}

	addr, err := domain.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("--%s: %w", name, err)
	}
	if addr.IsZero() {
		return "", fmt.Errorf("--%s: %w: zero address", name, domain.ErrInvalidAddress)
	}

	return addr, nil
}
