package domain

import "time"

type Donation struct {
	Donor     Address
	Message   string
	Amount    int64
	Timestamp time.Time
}

// NoDonation is the sentinel returned as the top donation of an empty ledger.
var NoDonation = Donation{Donor: ZeroAddress}

func (d Donation) IsSentinel() bool {
	return d.Donor.IsZero() && d.Amount == 0 && d.Message == "" && d.Timestamp.IsZero()
}

func (d Donation) equal(other Donation) bool {
	if d.IsSentinel() && other.IsSentinel() {
		return true
	}

	return d.Donor == other.Donor &&
		d.Message == other.Message &&
		d.Amount == other.Amount &&
		d.Timestamp.Equal(other.Timestamp)
}
