// wallet-init derives a signing key from a BIP-39 mnemonic and seeds
// the encrypted secret store with the key, the custody address, and the
// trading credential triple.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"

	"github.com/kuestmarket/kuest-go/clob/types"
	"github.com/kuestmarket/kuest-go/pkg/config"
	"github.com/kuestmarket/kuest-go/pkg/secretstore"
)

const defaultDerivationPath = "m/44'/60'/0'/0/0"

func main() {
	_ = godotenv.Load()

	var (
		configPath     = flag.String("config", os.Getenv("KUEST_CONFIG"), "config file path")
		derivationPath = flag.String("path", defaultDerivationPath, "BIP-44 derivation path")
		custody        = flag.String("custody", "", "deployed custody wallet address (optional)")
		apiKey         = flag.String("api-key", os.Getenv("KUEST_API_KEY"), "trading API key")
		apiSecret      = flag.String("api-secret", os.Getenv("KUEST_API_SECRET"), "trading API secret (base64)")
		passphrase     = flag.String("passphrase", os.Getenv("KUEST_API_PASSPHRASE"), "trading API passphrase")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	fmt.Fprintln(os.Stderr, "Enter mnemonic (12/15/18/21/24 words), then press enter:")
	mnemonic := strings.TrimSpace(readLine())
	if mnemonic == "" {
		fatal(fmt.Errorf("mnemonic is empty"))
	}

	privateKey, address, err := deriveKey(mnemonic, *derivationPath)
	if err != nil {
		fatal(err)
	}

	storeKey, err := secretstore.ParseKey(cfg.SecretStoreKey)
	if err != nil {
		fatal(err)
	}
	store, err := secretstore.Open(secretstore.OpenOptions{
		Path:          cfg.SecretStorePath,
		EncryptionKey: storeKey,
	})
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	if err := store.SavePrivateKey(privateKey); err != nil {
		fatal(err)
	}
	if *custody != "" {
		if err := store.SaveCustodyAddress(*custody); err != nil {
			fatal(err)
		}
	}
	if *apiKey != "" || *apiSecret != "" || *passphrase != "" {
		creds := types.APICreds{Key: *apiKey, Secret: *apiSecret, Passphrase: *passphrase}
		if !creds.HasTradingCreds() {
			fatal(fmt.Errorf("credentials are incomplete: key, secret, and passphrase are all required"))
		}
		if err := store.SaveCreds(creds); err != nil {
			fatal(err)
		}
	}

	fmt.Fprintf(os.Stderr, "wallet initialized: %s (store: %s)\n", address, cfg.SecretStorePath)
}

func deriveKey(mnemonic, derivationPath string) (privateKeyHex, address string, err error) {
	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return "", "", fmt.Errorf("invalid mnemonic: %w", err)
	}
	path, err := hdwallet.ParseDerivationPath(derivationPath)
	if err != nil {
		return "", "", fmt.Errorf("invalid derivation path: %w", err)
	}
	acct, err := w.Derive(path, false)
	if err != nil {
		return "", "", fmt.Errorf("derive account: %w", err)
	}
	pk, err := w.PrivateKeyHex(acct)
	if err != nil {
		return "", "", fmt.Errorf("export private key: %w", err)
	}
	return pk, acct.Address.Hex(), nil
}

func readLine() string {
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return line
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "wallet-init: %v\n", err)
	os.Exit(1)
}
