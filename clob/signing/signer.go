package signing

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// ErrSigningCancelled is returned by a Signer when the user explicitly
// rejects the signing request. Callers must treat it as a distinct
// outcome, never as a failure.
var ErrSigningCancelled = errors.New("signing cancelled by user")

// Signer is the external wallet-signing capability. Implementations may
// prompt a user (hardware/browser wallet) or sign locally.
type Signer interface {
	// Address returns the signing address.
	Address() common.Address

	// SignHash signs a 32-byte digest and returns a 65-byte r||s||v
	// signature. A user rejection is reported as ErrSigningCancelled.
	SignHash(hash []byte) ([]byte, error)
}

// LocalSigner signs with an in-process private key.
type LocalSigner struct {
	key *ecdsa.PrivateKey
}

func NewLocalSigner(key *ecdsa.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key}
}

// NewLocalSignerFromHex parses a hex private key into a LocalSigner.
func NewLocalSignerFromHex(hexKey string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	return &LocalSigner{key: key}, nil
}

func (s *LocalSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *LocalSigner) SignHash(hash []byte) ([]byte, error) {
	return crypto.Sign(hash, s.key)
}
