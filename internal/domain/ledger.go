package domain

import (
	"fmt"
	"math"
	"time"
)

const DefaultCooldown = 15 * time.Minute

// Ledger is the donation state machine. Methods never mutate the receiver
// when they return an error. A Ledger is not safe for concurrent use; the
// application service serializes access.
type Ledger struct {
	Owner          Address
	Cooldown       time.Duration
	Donations      []Donation
	LastDonationAt map[Address]time.Time
	Top            Donation
	PublicTotal    int64
	LifetimeTotal  int64
	// PulledTotal is the amount already handed to the treasury. It only
	// grows, and never exceeds LifetimeTotal.
	PulledTotal int64
	CreatedAt   time.Time
	// Revision counts successful saves. Repositories refuse a save whose
	// revision no longer matches the stored one.
	Revision int64
}

func NewLedger(owner Address, cooldown time.Duration, now time.Time) (Ledger, error) {
	if owner.IsZero() {
		return Ledger{}, fmt.Errorf("owner: %w", ErrInvalidAddress)
	}
	if cooldown < 0 {
		return Ledger{}, fmt.Errorf("%w: %s", ErrInvalidCooldown, cooldown)
	}

	return Ledger{
		Owner:          owner,
		Cooldown:       cooldown,
		LastDonationAt: map[Address]time.Time{},
		Top:            NoDonation,
		CreatedAt:      now,
	}, nil
}

func (l *Ledger) AddDonation(caller Address, message string, amount int64, now time.Time) (int, error) {
	if caller.IsZero() {
		return 0, fmt.Errorf("donor: %w", ErrInvalidAddress)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidAmount, amount)
	}
	if amount > math.MaxInt64-l.LifetimeTotal {
		return 0, fmt.Errorf("%w: amount overflows lifetime total", ErrInvalidAmount)
	}
	if last, ok := l.LastDonationAt[caller]; ok {
		retryAt := last.Add(l.Cooldown)
		if !now.After(retryAt) {
			return 0, &CooldownError{Donor: caller, RetryAt: retryAt}
		}
	}

	donation := Donation{
		Donor:     caller,
		Message:   message,
		Amount:    amount,
		Timestamp: now,
	}

	if l.LastDonationAt == nil {
		l.LastDonationAt = map[Address]time.Time{}
	}

	l.Donations = append(l.Donations, donation)
	l.LastDonationAt[caller] = now
	l.PublicTotal += amount
	l.LifetimeTotal += amount
	if l.Top.IsSentinel() || amount > l.Top.Amount {
		l.Top = donation
	}

	return len(l.Donations) - 1, nil
}

func (l Ledger) Donation(index int) (Donation, error) {
	if index < 0 || index >= len(l.Donations) {
		return Donation{}, &IndexError{Index: index, Len: len(l.Donations)}
	}

	return l.Donations[index], nil
}

func (l Ledger) AllDonations() []Donation {
	out := make([]Donation, len(l.Donations))
	copy(out, l.Donations)
	return out
}

// TotalDonations is the number of donation events, not their sum.
func (l Ledger) TotalDonations() int {
	return len(l.Donations)
}

func (l Ledger) TopDonation() Donation {
	if l.Top.IsSentinel() {
		return NoDonation
	}

	return l.Top
}

// TopIndex returns the position of the top donation in the history, or -1
// when the ledger is empty.
func (l Ledger) TopIndex() int {
	if l.Top.IsSentinel() {
		return -1
	}
	for i, d := range l.Donations {
		if d.equal(l.Top) {
			return i
		}
	}

	return -1
}

func (l Ledger) LifetimeDonations() int64 {
	return l.LifetimeTotal
}

func (l Ledger) PublicDonations() int64 {
	return l.PublicTotal
}

func (l Ledger) IsOwner(caller Address) bool {
	return !caller.IsZero() && caller == l.Owner
}

// Withdrawable is what has been donated but not yet pulled.
func (l Ledger) Withdrawable() int64 {
	return l.LifetimeTotal - l.PulledTotal
}

// AuthorizePull certifies that caller may withdraw and returns the amount
// not yet paid out. The public total is left as is; zeroing it is
// ResetDonations.
func (l Ledger) AuthorizePull(caller Address) (int64, error) {
	if !l.IsOwner(caller) {
		return 0, ErrUnauthorized
	}

	return l.Withdrawable(), nil
}

// RecordPull moves amount from withdrawable to pulled. Callers record the
// pull before asking the treasury to pay, so a repeated pull never pays the
// same funds twice.
func (l *Ledger) RecordPull(caller Address, amount int64) error {
	if !l.IsOwner(caller) {
		return ErrUnauthorized
	}
	if amount < 0 || amount > l.Withdrawable() {
		return fmt.Errorf("%w: pull of %d with %d withdrawable", ErrInvalidAmount, amount, l.Withdrawable())
	}

	l.PulledTotal += amount
	return nil
}

// RevertPull undoes RecordPull after the treasury refused the transfer.
func (l *Ledger) RevertPull(amount int64) error {
	if amount < 0 || amount > l.PulledTotal {
		return fmt.Errorf("%w: revert of %d with %d pulled", ErrInvalidAmount, amount, l.PulledTotal)
	}

	l.PulledTotal -= amount
	return nil
}

func (l *Ledger) ResetDonations(caller Address) error {
	if !l.IsOwner(caller) {
		return ErrUnauthorized
	}

	l.PublicTotal = 0
	return nil
}

// CooldownRemaining returns how long donor has to wait before a donation at
// now+remaining would be accepted. Zero means the donor may donate now.
func (l Ledger) CooldownRemaining(donor Address, now time.Time) time.Duration {
	last, ok := l.LastDonationAt[donor]
	if !ok {
		return 0
	}

	retryAt := last.Add(l.Cooldown)
	if now.After(retryAt) {
		return 0
	}

	// Acceptance requires strictly passing the window.
	return retryAt.Sub(now) + time.Nanosecond
}

func (l Ledger) Clone() Ledger {
	out := l
	out.Donations = l.AllDonations()
	out.LastDonationAt = make(map[Address]time.Time, len(l.LastDonationAt))
	for donor, at := range l.LastDonationAt {
		out.LastDonationAt[donor] = at
	}

	return out
}

// Validate recomputes every derived aggregate from the donation history and
// reports the first mismatch. Repositories call it after decoding state.
func (l Ledger) Validate() error {
	if l.Owner.IsZero() {
		return fmt.Errorf("%w: missing owner", ErrCorruptLedger)
	}
	if l.Cooldown < 0 {
		return fmt.Errorf("%w: negative cooldown %s", ErrCorruptLedger, l.Cooldown)
	}

	var sum int64
	top := NoDonation
	last := make(map[Address]time.Time, len(l.LastDonationAt))
	for i, d := range l.Donations {
		if d.Donor.IsZero() {
			return fmt.Errorf("%w: donation %d has no donor", ErrCorruptLedger, i)
		}
		if d.Amount < 0 {
			return fmt.Errorf("%w: donation %d has negative amount", ErrCorruptLedger, i)
		}
		if d.Amount > math.MaxInt64-sum {
			return fmt.Errorf("%w: lifetime total overflows at donation %d", ErrCorruptLedger, i)
		}
		if prev, ok := last[d.Donor]; ok && !d.Timestamp.After(prev.Add(l.Cooldown)) {
			return fmt.Errorf("%w: donation %d violates the cooldown of %s", ErrCorruptLedger, i, d.Donor)
		}

		sum += d.Amount
		last[d.Donor] = d.Timestamp
		if top.IsSentinel() || d.Amount > top.Amount {
			top = d
		}
	}

	if sum != l.LifetimeTotal {
		return fmt.Errorf("%w: lifetime total %d, donations sum to %d", ErrCorruptLedger, l.LifetimeTotal, sum)
	}
	if l.PublicTotal < 0 || l.PublicTotal > l.LifetimeTotal {
		return fmt.Errorf("%w: public total %d outside [0, %d]", ErrCorruptLedger, l.PublicTotal, l.LifetimeTotal)
	}
	if l.PulledTotal < 0 || l.PulledTotal > l.LifetimeTotal {
		return fmt.Errorf("%w: pulled total %d outside [0, %d]", ErrCorruptLedger, l.PulledTotal, l.LifetimeTotal)
	}
	if l.Revision < 0 {
		return fmt.Errorf("%w: negative revision %d", ErrCorruptLedger, l.Revision)
	}
	if !top.equal(l.Top) {
		return fmt.Errorf("%w: top donation does not match history", ErrCorruptLedger)
	}
	if len(last) != len(l.LastDonationAt) {
		return fmt.Errorf("%w: cooldown index has %d donors, history has %d", ErrCorruptLedger, len(l.LastDonationAt), len(last))
	}
	for donor, at := range last {
		if got, ok := l.LastDonationAt[donor]; !ok || !got.Equal(at) {
			return fmt.Errorf("%w: cooldown index out of date for %s", ErrCorruptLedger, donor)
		}
	}

	return nil
}
