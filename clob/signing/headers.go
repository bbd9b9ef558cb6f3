package signing

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/kuestmarket/kuest-go/clob/types"
)

// CreateAuthHeaders builds the per-request HMAC auth headers. A nil
// timestamp means "now"; tests inject a fixed one.
func CreateAuthHeaders(
	address string,
	creds types.APICreds,
	args *types.AuthHeaderArgs,
	timestamp *int64,
) (*types.AuthHeaders, error) {
	ts := time.Now().Unix()
	if timestamp != nil {
		ts = *timestamp
	}

	sig, err := BuildHmacSignature(creds.Secret, ts, args.Method, args.RequestPath, args.Body)
	if err != nil {
		return nil, errors.Wrap(err, "build hmac signature")
	}

	return &types.AuthHeaders{
		KuestAddress:    address,
		KuestSignature:  sig,
		KuestTimestamp:  strconv.FormatInt(ts, 10),
		KuestAPIKey:     creds.Key,
		KuestPassphrase: creds.Passphrase,
	}, nil
}
