package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is the opaque identity of a caller. Values produced by ParseAddress
// are always in EIP-55 checksum form so equality is a plain string compare.
type Address string

const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
	}

	return Address(common.HexToAddress(trimmed).Hex()), nil
}

func MustParseAddress(raw string) Address {
	addr, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}

	return addr
}

func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}

// Short renders 0x1234…abcd for terminal output.
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 12 {
		return s
	}

	return s[:6] + "…" + s[len(s)-4:]
}
