// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"
	jsoniter "github.com/json-iterator/go"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// HashHexLength is the number of hex characters in a rendered digest.
const HashHexLength = 2 * sha256.Size

// canonical is the encoder used for every byte sequence that gets hashed.
// Map keys are sorted and numbers are kept as their original literals so
// the same logical value always produces the same bytes.
var canonical = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// =============================================================================

// Canonical returns the sorted-key JSON encoding of the value. Struct fields
// are re-keyed through a generic decode so nested objects are sorted as well.
func Canonical(value any) ([]byte, error) {
	data, err := canonical.Marshal(value)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := canonical.Unmarshal(data, &generic); err != nil {
		return nil, err
	}

	return canonical.Marshal(generic)
}

// Hash returns a unique string for the value. The value is encoded in its
// canonical form before hashing.
func Hash(value any) string {
	data, err := Canonical(value)
	if err != nil {
		return ZeroHash
	}

	return HashBytes(data)
}

// HashBytes returns the hex encoded sha256 digest of the data.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// MessageHash returns the 32 byte digest of the canonical encoding of the
// value. This is what gets signed and verified.
func MessageHash(value any) ([]byte, error) {
	data, err := Canonical(value)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

// =============================================================================

// Sign produces a DER encoded secp256k1 signature for the message hash and
// returns it with the compressed public key, both hex encoded.
func Sign(msgHash []byte, privateKey *ecdsa.PrivateKey) (sigHex string, pubKeyHex string) {
	key := secp256k1.PrivKeyFromBytes(crypto.FromECDSA(privateKey))
	sig := dcrecdsa.Sign(key, msgHash)

	return hex.EncodeToString(sig.Serialize()), PublicKeyHex(privateKey.PublicKey)
}

// PublicKeyHex returns the compressed form of the public key as hex.
func PublicKeyHex(publicKey ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.CompressPubkey(&publicKey))
}

// Verify checks the DER encoded signature against the public key and
// message hash. Malformed encodings are reported as an invalid signature.
func Verify(sig []byte, pubKey []byte, msgHash []byte) bool {
	signature, err := dcrecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}

	key, err := parsePublicKey(pubKey)
	if err != nil {
		return false
	}

	return signature.Verify(msgHash, key)
}

// VerifyHex is Verify for hex encoded signatures and public keys as they
// appear in a transaction witness.
func VerifyHex(sigHex string, pubKeyHex string, msgHash []byte) bool {
	sig, err := decodeHex(sigHex)
	if err != nil {
		return false
	}

	pubKey, err := decodeHex(pubKeyHex)
	if err != nil {
		return false
	}

	return Verify(sig, pubKey, msgHash)
}

// =============================================================================

// parsePublicKey accepts compressed (33 bytes), uncompressed (65 bytes) and
// raw X||Y (64 bytes) encodings.
func parsePublicKey(pubKey []byte) (*secp256k1.PublicKey, error) {
	if len(pubKey) == 64 {
		pubKey = append([]byte{0x04}, pubKey...)
	}

	return secp256k1.ParsePubKey(pubKey)
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
