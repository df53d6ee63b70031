package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version   int              `toml:"version"`
	Ledger    *ledgerSchema    `toml:"ledger,omitempty"`
	Donations []donationSchema `toml:"donations"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported ledger schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type ledgerSchema struct {
	Owner         string `toml:"owner"`
	Cooldown      string `toml:"cooldown"`
	PublicTotal   int64  `toml:"public_total"`
	LifetimeTotal int64  `toml:"lifetime_total"`
	PulledTotal   int64  `toml:"pulled_total"`
	TopIndex      int    `toml:"top_index"`
	CreatedAt     string `toml:"created_at"`
	Revision      int64  `toml:"revision"`
}

type donationSchema struct {
	Donor     string `toml:"donor"`
	Message   string `toml:"message"`
	Amount    int64  `toml:"amount"`
	Timestamp string `toml:"timestamp"`
}

type journalSchema struct {
	Version int            `toml:"version"`
	Payouts []payoutSchema `toml:"payouts"`
}

type payoutSchema struct {
	ID     string `toml:"id"`
	To     string `toml:"to"`
	Amount int64  `toml:"amount"`
	SentAt string `toml:"sent_at"`
}
