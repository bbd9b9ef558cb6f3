package signing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"

	"github.com/kuestmarket/kuest-go/clob/types"
)

// OrderData is the typed-data view of an order, before signing.
type OrderData struct {
	Salt          int64
	Maker         string
	Signer        string
	Taker         string
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          types.Side
	SignatureType types.SignatureType
}

// orderTypes is the EIP712 type table for orders. Field order is part of
// the hash and must match the exchange contract exactly.
var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": {
		{Name: "salt", Type: "uint256"},
		{Name: "maker", Type: "address"},
		{Name: "signer", Type: "address"},
		{Name: "taker", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "makerAmount", Type: "uint256"},
		{Name: "takerAmount", Type: "uint256"},
		{Name: "expiration", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "feeRateBps", Type: "uint256"},
		{Name: "side", Type: "uint8"},
		{Name: "signatureType", Type: "uint8"},
	},
}

// OrderTypedData assembles the typed-data structure for an order against
// the given exchange contract. The verifying contract is the only thing
// that differs between the standard and negative-risk domains.
func OrderTypedData(chainID types.Chain, exchangeAddress string, order *OrderData) apitypes.TypedData {
	domain := apitypes.TypedDataDomain{
		Name:              ExchangeDomainName,
		Version:           ExchangeDomainVersion,
		ChainId:           math.NewHexOrDecimal256(int64(chainID)),
		VerifyingContract: exchangeAddress,
	}

	var side uint8 = 1
	if order.Side == types.SideBuy {
		side = 0
	}

	message := map[string]interface{}{
		"salt":          big.NewInt(order.Salt),
		"maker":         common.HexToAddress(order.Maker).Hex(),
		"signer":        common.HexToAddress(order.Signer).Hex(),
		"taker":         common.HexToAddress(order.Taker).Hex(),
		"tokenId":       order.TokenID,
		"makerAmount":   order.MakerAmount,
		"takerAmount":   order.TakerAmount,
		"expiration":    order.Expiration,
		"nonce":         order.Nonce,
		"feeRateBps":    order.FeeRateBps,
		"side":          big.NewInt(int64(side)),
		"signatureType": big.NewInt(int64(order.SignatureType)),
	}

	return apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain:      domain,
		Message:     message,
	}
}

// BuildOrderSignature hashes the order typed data and signs it through
// the Signer capability. ErrSigningCancelled passes through untouched so
// callers can distinguish a user rejection from a failure.
func BuildOrderSignature(
	signer Signer,
	chainID types.Chain,
	exchangeAddress string,
	order *OrderData,
) (string, error) {
	typedData := OrderTypedData(chainID, exchangeAddress, order)

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", errors.Wrap(err, "hash order typed data")
	}

	sig, err := signer.SignHash(hash)
	if err != nil {
		if errors.Is(err, ErrSigningCancelled) {
			return "", err
		}
		return "", errors.Wrap(err, "sign order")
	}

	return "0x" + common.Bytes2Hex(sig), nil
}
