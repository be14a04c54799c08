package wallet

// Wallet identity derived from a hex private key
// Only the checksum address is exposed; the key never leaves this package
// No signing is done anywhere in the bot

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrMissingKey = errors.New("PRIVATE_KEY is not set")
	ErrInvalidKey = errors.New("PRIVATE_KEY is not a valid secp256k1 key")
)

type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// FromHex accepts the key with or without 0x prefix
func FromHex(privateKey string) (*Wallet, error) {
	privateKey = strings.TrimSpace(privateKey)
	privateKey = strings.TrimPrefix(strings.TrimPrefix(privateKey, "0x"), "0X")
	if privateKey == "" {
		return nil, ErrMissingKey
	}

	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		// err text from go-ethereum does not echo the key
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address EIP-55 checksummed hex address
func (w *Wallet) Address() string {
	return w.address.Hex()
}

func (w *Wallet) CommonAddress() common.Address {
	return w.address
}

// String keeps %v and zap.Stringer from ever printing the key
func (w *Wallet) String() string {
	return w.address.Hex()
}

func (w *Wallet) GoString() string {
	return "wallet.Wallet{address: " + w.address.Hex() + "}"
}
