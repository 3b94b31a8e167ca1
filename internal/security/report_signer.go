// Package security provides cryptographic signing of exported reports so
// consumers can check they were produced by a known key and left untouched.
package security

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// Algorithm names the signature scheme recorded in signed reports
const Algorithm = "secp256k1-keccak256"

// ErrVerification is returned when a signed report does not check out
var ErrVerification = errors.New("report verification failed")

// Signer signs payloads with a secp256k1 key, the Ethereum signature scheme
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// SignedReport wraps a JSON payload with its hashes and signature
type SignedReport struct {
	Payload   json.RawMessage `json:"payload"`
	Integrity Integrity       `json:"integrity"`
	Signature string          `json:"signature"`
	Signer    string          `json:"signer"`
	Algorithm string          `json:"algorithm"`
}

// Integrity holds the digests of the compact payload
type Integrity struct {
	SHA256    string `json:"sha256"`
	Keccak256 string `json:"keccak256"`
	SignedAt  string `json:"signedAt"`
}

// NewSigner creates a signer from a hex private key, with or without 0x prefix
func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	return newSigner(key), nil
}

// GenerateSigner creates a signer with a fresh random key
func GenerateSigner() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return newSigner(key), nil
}

func newSigner(key *ecdsa.PrivateKey) *Signer {
	s := &Signer{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}
	logrus.Debugf("Report signer initialized with address %s", s.address.Hex())
	return s
}

// Address returns the Ethereum style address of the signing key
func (s *Signer) Address() string {
	return s.address.Hex()
}

// Sign marshals payload and signs the keccak256 digest of its compact JSON
func (s *Signer) Sign(payload interface{}) (*SignedReport, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	keccakHash := crypto.Keccak256Hash(payloadBytes)
	signature, err := crypto.Sign(keccakHash.Bytes(), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	return &SignedReport{
		Payload: payloadBytes,
		Integrity: Integrity{
			SHA256:    fmt.Sprintf("%x", sha256.Sum256(payloadBytes)),
			Keccak256: keccakHash.Hex(),
			SignedAt:  time.Now().UTC().Format(time.RFC3339),
		},
		Signature: hexutil.Encode(signature),
		Signer:    s.address.Hex(),
		Algorithm: Algorithm,
	}, nil
}

// Verify checks the digests and that the signature recovers to the recorded
// signer. The payload is compacted first, so indentation does not matter.
func Verify(sr *SignedReport) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, sr.Payload); err != nil {
		return fmt.Errorf("%w: payload is not JSON: %v", ErrVerification, err)
	}
	payloadBytes := compact.Bytes()

	if got := fmt.Sprintf("%x", sha256.Sum256(payloadBytes)); got != sr.Integrity.SHA256 {
		return fmt.Errorf("%w: SHA256 hash mismatch", ErrVerification)
	}
	keccakHash := crypto.Keccak256Hash(payloadBytes)
	if keccakHash.Hex() != sr.Integrity.Keccak256 {
		return fmt.Errorf("%w: Keccak256 hash mismatch", ErrVerification)
	}

	signature, err := hexutil.Decode(sr.Signature)
	if err != nil {
		return fmt.Errorf("%w: failed to decode signature: %v", ErrVerification, err)
	}
	if len(signature) != crypto.SignatureLength {
		return fmt.Errorf("%w: invalid signature length: %d", ErrVerification, len(signature))
	}

	pub, err := crypto.SigToPub(keccakHash.Bytes(), signature)
	if err != nil {
		return fmt.Errorf("%w: failed to recover public key: %v", ErrVerification, err)
	}
	if recovered := crypto.PubkeyToAddress(*pub); recovered != common.HexToAddress(sr.Signer) {
		return fmt.Errorf("%w: signed by %s, expected %s", ErrVerification, recovered.Hex(), sr.Signer)
	}

	return nil
}
