package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

// signer is a key pair whose identity is the x-only public key.
type signer struct {
	key      *btcec.PrivateKey
	identity domain.Identity
}

func newSigner(key *btcec.PrivateKey) (*signer, error) {
	identity, err := domain.IdentityFromBytes(schnorr.SerializePubKey(key.PubKey()))
	if err != nil {
		return nil, err
	}
	return &signer{key: key, identity: identity}, nil
}

func generateSigner() (*signer, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %s", err)
	}
	return newSigner(key)
}

func parseSigner(hexKey string) (*signer, error) {
	buf, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key format, must be hex")
	}
	if len(buf) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("invalid private key length, must be %d bytes", btcec.PrivKeyBytesLen)
	}
	key, _ := btcec.PrivKeyFromBytes(buf)
	return newSigner(key)
}

// getSigners returns the authority and payer of a transition. The keys are
// sourced from flags first and env vars then, the payer defaults to the
// authority.
func getSigners(ctx *cli.Context) (authority, payer *signer, err error) {
	authorityKey := flagOrEnv(ctx, authorityKeyFlagName)
	if authorityKey == "" {
		return nil, nil, fmt.Errorf("missing authority private key")
	}
	authority, err = parseSigner(authorityKey)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid authority: %s", err)
	}

	payerKey := flagOrEnv(ctx, payerKeyFlagName)
	if payerKey == "" {
		return authority, authority, nil
	}
	payer, err = parseSigner(payerKey)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid payer: %s", err)
	}
	return authority, payer, nil
}

func flagOrEnv(ctx *cli.Context, name string) string {
	if value := ctx.String(name); value != "" {
		return value
	}
	return viper.GetString(name)
}

// getIdentity parses the identity passed with the given flag, empty if unset.
func getIdentity(ctx *cli.Context, flagName string) (domain.Identity, error) {
	value := ctx.String(flagName)
	if value == "" {
		return "", nil
	}
	identity, err := domain.ParseIdentity(value)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %s", flagName, err)
	}
	return identity, nil
}

// getAddress returns the address passed with the address flag or a freshly
// generated one.
func getAddress(ctx *cli.Context) (domain.Identity, error) {
	address, err := getIdentity(ctx, addressFlagName)
	if err != nil || !address.IsZero() {
		return address, err
	}
	s, err := generateSigner()
	if err != nil {
		return "", err
	}
	return s.identity, nil
}

func printJSON(resp interface{}) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonBytes))
	return nil
}
