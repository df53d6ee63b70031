package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bnema/donation-portal/internal/domain"
)

type donationOutput struct {
	Index     *int      `json:"index,omitempty"`
	Donor     string    `json:"donor"`
	Message   string    `json:"message"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

func toDonationOutput(d domain.Donation) donationOutput {
	return donationOutput{
		Donor:     d.Donor.String(),
		Message:   d.Message,
		Amount:    d.Amount,
		Timestamp: d.Timestamp.UTC(),
	}
}

func indexedDonationOutput(index int, d domain.Donation) donationOutput {
	out := toDonationOutput(d)
	out.Index = &index
	return out
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeDonationLine(w io.Writer, index int, d domain.Donation) error {
	line := fmt.Sprintf("#%d %s %d", index, d.Donor, d.Amount)
	if d.Message != "" {
		line += fmt.Sprintf(" %q", d.Message)
	}
	line += " " + d.Timestamp.UTC().Format(time.RFC3339)

	_, err := fmt.Fprintln(w, line)
	return err
}
