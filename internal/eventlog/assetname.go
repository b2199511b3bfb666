package eventlog

import "github.com/pkg/errors"

const packedNameLen = 8

// UnpackAssetName turns the 8-byte packed asset name into its ticker string.
// Bytes are read least significant first and the name ends at the first zero
// byte.
func UnpackAssetName(packed uint64) string {
	var name [packedNameLen]byte

	n := 0
	for ; n < packedNameLen; n++ {
		b := byte(packed >> (8 * n))
		if b == 0 {
			break
		}
		name[n] = b
	}

	return string(name[:n])
}

// PackAssetName is the inverse of UnpackAssetName, used when querying the
// contract and by round-trip tests.
func PackAssetName(name string) (uint64, error) {
	if len(name) > packedNameLen {
		return 0, errors.Errorf("asset name %q longer than %d bytes", name, packedNameLen)
	}

	var packed uint64
	for i := 0; i < len(name); i++ {
		packed |= uint64(name[i]) << (8 * i)
	}

	return packed, nil
}
