package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCooldownViolation = errors.New("let's cool down a bit")
	ErrUnauthorized      = errors.New("you aren't the owner")
	ErrIndexOutOfRange   = errors.New("donation index out of range")
	ErrInvalidAmount     = errors.New("invalid donation amount")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidCooldown   = errors.New("invalid cooldown window")
	ErrLedgerNotFound    = errors.New("ledger not found")
	ErrLedgerExists      = errors.New("ledger already initialized")
	ErrCorruptLedger     = errors.New("corrupt ledger state")
	ErrConcurrentUpdate  = errors.New("ledger was changed by another writer")
)

// CooldownError is returned when a donor submits again inside the cooldown window.
type CooldownError struct {
	Donor   Address
	RetryAt time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %s may donate again after %s", ErrCooldownViolation, e.Donor, e.RetryAt.UTC().Format(time.RFC3339))
}

func (e *CooldownError) Unwrap() error {
	return ErrCooldownViolation
}

// IndexError reports the requested index together with the ledger length.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d, donations %d", ErrIndexOutOfRange, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
