package quote

// Kind classifies a failure, either of a single provider call
// or of a whole aggregation round
type Kind string

const (
	KindInvalidRequest        Kind = "InvalidRequest"
	KindMissingCredential     Kind = "MissingCredential"
	KindAuthenticationFailure Kind = "AuthenticationFailure"
	KindRateLimited           Kind = "RateLimited"
	KindTimeout               Kind = "Timeout"
	KindCircuitOpen           Kind = "CircuitOpen"
	KindInvalidResponse       Kind = "InvalidResponse"
	KindTransportError        Kind = "TransportError"
	KindCancelled             Kind = "Cancelled"
	KindNoProvidersEnabled    Kind = "NoProvidersEnabled"
	KindAllProvidersFailed    Kind = "AllProvidersFailed"
)

func (k Kind) String() string {
	return string(k)
}

// Transient reports whether a failure of this kind is worth retrying,
// and whether it counts towards opening a circuit
func (k Kind) Transient() bool {
	return k == KindTransportError || k == KindTimeout
}
