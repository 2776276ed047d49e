package utils

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

func NetParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	}
	return nil, fmt.Errorf("unknown bitcoin network %q", network)
}

// ValidateBTCAddress checks that address decodes and belongs to params.
func ValidateBTCAddress(address string, params *chaincfg.Params) error {
	decoded, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return fmt.Errorf("invalid bitcoin address: %w", err)
	}
	if !decoded.IsForNet(params) {
		return fmt.Errorf("address %s is not for %s", address, params.Name)
	}
	return nil
}

// AddressDeriver hands out one receiving address per user from an extended
// public key. Private keys never reach the server.
type AddressDeriver struct {
	key    *hdkeychain.ExtendedKey
	params *chaincfg.Params
}

func NewAddressDeriver(extendedKey string, params *chaincfg.Params) (*AddressDeriver, error) {
	key, err := hdkeychain.NewKeyFromString(extendedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode extended key: %w", err)
	}
	if !key.IsForNet(params) {
		return nil, fmt.Errorf("extended key is not for %s", params.Name)
	}
	if key.IsPrivate() {
		if key, err = key.Neuter(); err != nil {
			return nil, err
		}
	}
	return &AddressDeriver{key: key, params: params}, nil
}

func (d *AddressDeriver) Address(index uint32) (string, error) {
	child, err := d.key.Derive(index)
	if err != nil {
		return "", fmt.Errorf("failed to derive child %d: %w", index, err)
	}

	addr, err := child.Address(d.params)
	if err != nil {
		return "", fmt.Errorf("failed to build address for child %d: %w", index, err)
	}

	return addr.EncodeAddress(), nil
}
