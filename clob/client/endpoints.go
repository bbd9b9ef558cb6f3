package client

// Matching-engine REST endpoints.
const (
	EndpointTime = "/time"

	EndpointPostOrder   = "/order"
	EndpointCancelOrder = "/order"

	EndpointGetOpenOrders = "/data/orders"

	EndpointGetBalanceAllowance = "/balance-allowance"
)
