package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddressNormalizesToChecksum(t *testing.T) {
	got, err := ParseAddress("  0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed ")
	require.NoError(t, err)
	assert.Equal(t, Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"), got)
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "alice", "0x123", "0xZZeb6053f3e94c9b9a09f33669435e7ef1beaed"} {
		_, err := ParseAddress(raw)
		assert.ErrorIs(t, err, ErrInvalidAddress, "raw %q", raw)
	}
}

func TestZeroAddressMatchesEthereumZeroValue(t *testing.T) {
	assert.Equal(t, common.Address{}.Hex(), string(ZeroAddress))
	assert.True(t, ZeroAddress.IsZero())
	assert.True(t, Address("").IsZero())
}

func TestAddressShort(t *testing.T) {
	assert.Equal(t, "0x5aAe…eAed", Address("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed").Short())
	assert.Equal(t, "0x1", Address("0x1").Short())
}
