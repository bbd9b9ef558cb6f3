package types

// AuthHeaderArgs describe the request being signed.
type AuthHeaderArgs struct {
	Method      string
	RequestPath string
	Body        *string
}

// AuthHeaders are the per-request HMAC authentication headers expected by
// the matching engine.
type AuthHeaders struct {
	KuestAddress    string `json:"KUEST_ADDRESS"`
	KuestSignature  string `json:"KUEST_SIGNATURE"`
	KuestTimestamp  string `json:"KUEST_TIMESTAMP"`
	KuestAPIKey     string `json:"KUEST_API_KEY"`
	KuestPassphrase string `json:"KUEST_PASSPHRASE"`
}

// Map renders the headers for attachment to an HTTP request.
func (h *AuthHeaders) Map() map[string]string {
	return map[string]string{
		"KUEST_ADDRESS":    h.KuestAddress,
		"KUEST_SIGNATURE":  h.KuestSignature,
		"KUEST_TIMESTAMP":  h.KuestTimestamp,
		"KUEST_API_KEY":    h.KuestAPIKey,
		"KUEST_PASSPHRASE": h.KuestPassphrase,
	}
}
