// Package identity renders Qubic 32-byte public keys as human-readable
// addresses. The encoding is one-way: four little-endian uint64 fragments are
// written out as 14 base-26 letters each, least significant digit first,
// followed by a 4-letter checksum derived from a KangarooTwelve hash of the
// public key.
package identity

import (
	"encoding/binary"

	"github.com/cloudflare/circl/xof/k12"
	"github.com/pkg/errors"
)

const (
	// PubKeyLen is the raw public key size in bytes.
	PubKeyLen = 32

	// AddressLen is the length of the rendered address.
	AddressLen = 60

	checksumMask = 0x3FFFF
	alphabetSize = 26
)

// FromPubKey encodes a raw public key into its address form.
func FromPubKey(pubKey []byte) (string, error) {
	if len(pubKey) != PubKeyLen {
		return "", errors.Errorf("public key must be %d bytes, got %d", PubKeyLen, len(pubKey))
	}

	var out [AddressLen]byte

	for i := 0; i < 4; i++ {
		frag := binary.LittleEndian.Uint64(pubKey[i*8:])
		for j := 0; j < 14; j++ {
			out[i*14+j] = 'A' + byte(frag%alphabetSize)
			frag /= alphabetSize
		}
	}

	cs := checksum(pubKey)
	for i := 0; i < 4; i++ {
		out[56+i] = 'A' + byte(cs%alphabetSize)
		cs /= alphabetSize
	}

	return string(out[:]), nil
}

func checksum(pubKey []byte) uint32 {
	h := k12.NewDraft10(nil)
	_, _ = h.Write(pubKey)

	var digest [3]byte
	_, _ = h.Read(digest[:])

	cs := uint32(digest[0]) | uint32(digest[1])<<8 | uint32(digest[2])<<16

	return cs & checksumMask
}
