// place-order signs and submits a single order from the command line,
// using credentials and the signing key held in the secret store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kuestmarket/kuest-go/clob/client"
	"github.com/kuestmarket/kuest-go/clob/errclass"
	"github.com/kuestmarket/kuest-go/clob/signing"
	"github.com/kuestmarket/kuest-go/clob/types"
	"github.com/kuestmarket/kuest-go/internal/errlog"
	"github.com/kuestmarket/kuest-go/pkg/config"
	"github.com/kuestmarket/kuest-go/pkg/logger"
	"github.com/kuestmarket/kuest-go/pkg/secretstore"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", os.Getenv("KUEST_CONFIG"), "config file path")
		tokenID    = flag.String("token", "", "conditional token id to trade")
		side       = flag.String("side", "BUY", "BUY or SELL")
		price      = flag.Float64("price", 0, "limit price in (0,1); 0 for a market order")
		size       = flag.Float64("size", 0, "share quantity for a limit order")
		amount     = flag.Float64("amount", 0, "market order budget: collateral for BUY, shares for SELL")
		tick       = flag.String("tick", string(types.TickSize001), "market tick size")
		negRisk    = flag.Bool("neg-risk", false, "market belongs to a negative-risk family")
	)
	flag.Parse()

	if *tokenID == "" {
		fatal(fmt.Errorf("-token is required"))
	}
	orderSide := types.Side(*side)
	if !orderSide.Valid() {
		fatal(fmt.Errorf("invalid side %q", *side))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, OutputFile: cfg.Log.OutputFile}); err != nil {
		fatal(err)
	}

	clob, errors, err := buildClient(cfg)
	if err != nil {
		fatal(err)
	}
	defer errors.Close()

	builder := client.NewOrderBuilder(clob, nil)
	submitter := client.NewSubmitter(clob, builder, errclass.New(errors), nil)

	opts := &types.CreateOrderOptions{TickSize: types.TickSize(*tick), NegRisk: *negRisk}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var result client.SubmitResult
	if *price > 0 && *size > 0 {
		intent := &types.LimitOrderIntent{TokenID: *tokenID, Side: orderSide, Price: *price, Size: *size}
		result, err = submitter.SubmitLimitOrder(ctx, "", intent, opts)
	} else if *amount > 0 {
		intent := &types.MarketOrderIntent{TokenID: *tokenID, Side: orderSide, Amount: *amount}
		if *price > 0 {
			intent.Price = price
		}
		result, err = submitter.SubmitMarketOrder(ctx, "", intent, nil, opts)
	} else {
		fatal(fmt.Errorf("pass -price and -size for a limit order, or -amount for a market order"))
	}
	if err != nil {
		fatal(err)
	}

	fmt.Printf("outcome: %s\n", result.Outcome)
	if result.OrderID != "" {
		fmt.Printf("order id: %s\n", result.OrderID)
	}
	if result.Message != "" {
		fmt.Printf("message: %s\n", result.Message)
	}
	if result.Outcome != client.OutcomePlaced {
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "place-order: %v\n", err)
	os.Exit(1)
}

func buildClient(cfg *config.Config) (*client.Client, *errlog.Log, error) {
	storeKey, err := secretstore.ParseKey(cfg.SecretStoreKey)
	if err != nil {
		return nil, nil, err
	}
	store, err := secretstore.Open(secretstore.OpenOptions{
		Path:          cfg.SecretStorePath,
		EncryptionKey: storeKey,
		ReadOnly:      true,
	})
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	privateKey, found, err := store.LoadPrivateKey()
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, fmt.Errorf("no signing key in secret store: run wallet-init first")
	}
	signer, err := signing.NewLocalSignerFromHex(privateKey)
	if err != nil {
		return nil, nil, err
	}

	creds, _, err := store.LoadCreds()
	if err != nil {
		return nil, nil, err
	}
	custody, _, err := store.LoadCustodyAddress()
	if err != nil {
		return nil, nil, err
	}
	if cfg.CustodyAddress != "" {
		custody = cfg.CustodyAddress
	}

	errors, err := errlog.Open(cfg.ErrorLogPath)
	if err != nil {
		return nil, nil, err
	}

	clob := client.NewClient(client.Config{
		Host:           cfg.ClobHost,
		ChainID:        cfg.Chain(),
		Creds:          creds,
		Signer:         signer,
		CustodyAddress: custody,
	})
	return clob, errors, nil
}
