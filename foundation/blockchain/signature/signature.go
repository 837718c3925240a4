// Package signature provides helper functions for handling the blockchain
// signature and hashing needs.
package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// KeyBits is the size of the RSA keys generated for participants.
const KeyBits = 2048

// Set of PEM block types that are understood.
const (
	pemPublicKey     = "PUBLIC KEY"
	pemRSAPublicKey  = "RSA PUBLIC KEY"
	pemRSAPrivateKey = "RSA PRIVATE KEY"
)

// ErrInvalidSignature is returned when a signature doesn't verify against
// the data and key provided.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns the SHA-256 digest of the specified values written in order.
func Hash(values ...[]byte) []byte {
	h := sha256.New()
	for _, v := range values {
		h.Write(v)
	}
	return h.Sum(nil)
}

// ToHex returns the 0x prefixed hex representation of the hash for display.
func ToHex(hash []byte) string {
	if len(hash) == 0 {
		return "0x"
	}
	return hexutil.Encode(hash)
}

// =============================================================================

// GenerateKey constructs a new RSA private key.
func GenerateKey() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, KeyBits)
}

// Sign hashes the message with SHA-256 and signs the digest using PKCS#1 v1.5.
// The signature is returned hex encoded.
func Sign(message string, privateKey *rsa.PrivateKey) (string, error) {
	digest := sha256.Sum256([]byte(message))

	sig, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("signing message: %w", err)
	}

	return hex.EncodeToString(sig), nil
}

// Verify checks the hex encoded signature was produced over the message by the
// private key associated with the public key. Any decoding or verification
// problem is reported as ErrInvalidSignature.
func Verify(message string, publicKey *rsa.PublicKey, sigHex string) error {
	if message == "" || publicKey == nil || sigHex == "" {
		return ErrInvalidSignature
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	digest := sha256.Sum256([]byte(message))
	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, digest[:], sig); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	return nil
}

// =============================================================================

// EncodePublicKey returns the PEM encoded PKIX form of the public key.
func EncodePublicKey(publicKey *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der}), nil
}

// DecodePublicKey parses a PEM encoded RSA public key in either PKIX or
// PKCS#1 form.
func DecodePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	switch block.Type {
	case pemPublicKey:
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("unsupported key type %T", key)
		}
		return rsaKey, nil

	case pemRSAPublicKey:
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
}

// EncodePrivateKey returns the PEM encoded PKCS#1 form of the private key.
func EncodePrivateKey(privateKey *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  pemRSAPrivateKey,
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
}

// DecodePrivateKey parses a PEM encoded PKCS#1 RSA private key.
func DecodePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemRSAPrivateKey {
		return nil, errors.New("no RSA private key PEM block found")
	}

	return x509.ParsePKCS1PrivateKey(block.Bytes)
}
