package signing

const (
	// ExchangeDomainName is the EIP712 domain name shared by both
	// exchange deployments; the deployments differ by verifying
	// contract, never by name or version.
	ExchangeDomainName = "Kuest CTF Exchange"

	// ExchangeDomainVersion is the EIP712 domain version.
	ExchangeDomainVersion = "1"
)
