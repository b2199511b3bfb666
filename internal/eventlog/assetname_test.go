package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackAssetNameStopsAtZeroByte(t *testing.T) {
	// "QX" packed: 'Q' in the least significant byte, zero terminator after.
	packed := uint64('Q') | uint64('X')<<8

	assert.Equal(t, "QX", UnpackAssetName(packed))
	assert.Equal(t, "", UnpackAssetName(0))
}

func TestUnpackAssetNameZeroBytePosition(t *testing.T) {
	for k := 0; k < 8; k++ {
		var packed uint64
		for i := 0; i < k; i++ {
			packed |= uint64('A'+i) << (8 * i)
		}

		assert.Len(t, UnpackAssetName(packed), k, "zero byte at position %d", k)
	}
}

func TestPackAssetNameRoundTrip(t *testing.T) {
	for _, name := range []string{"", "Q", "QX", "CFB", "QWALLET", "MSVAULT", "ABCDEFGH"} {
		packed, err := PackAssetName(name)
		require.NoError(t, err)
		assert.Equal(t, name, UnpackAssetName(packed))
	}
}

func TestPackAssetNameTooLong(t *testing.T) {
	_, err := PackAssetName("TOOLONGNAME")
	require.Error(t, err)
}
