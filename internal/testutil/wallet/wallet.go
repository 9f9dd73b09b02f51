// Package wallet signs sign-in challenges the way a browser wallet does, for
// tests that need a real account.
package wallet

import (
	"encoding/hex"
	"strconv"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

type Wallet struct {
	Key     *secp256k1.PrivateKey
	Address string
}

// New generates a fresh account.
func New() (*Wallet, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return FromKey(key), nil
}

// FromHex loads an account from a 32 byte hex private key.
func FromHex(s string) (*Wallet, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return FromKey(secp256k1.PrivKeyFromBytes(raw)), nil
}

func FromKey(key *secp256k1.PrivateKey) *Wallet {
	h := sha3.NewLegacyKeccak256()
	h.Write(key.PubKey().SerializeUncompressed()[1:])
	return &Wallet{Key: key, Address: "0x" + hex.EncodeToString(h.Sum(nil)[12:])}
}

// SignPersonal returns a 0x-prefixed r || s || v signature with v in 27/28.
func (w *Wallet) SignPersonal(message string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte("\x19Ethereum Signed Message:\n" + strconv.Itoa(len(message)) + message))

	compact := ecdsa.SignCompact(w.Key, h.Sum(nil), false)
	sig := make([]byte, 65)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return "0x" + hex.EncodeToString(sig)
}
