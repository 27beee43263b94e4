package enum

type TransportSecurity string

const (
	SecurityStartTLS TransportSecurity = "starttls"
	SecurityTLS      TransportSecurity = "tls"
)

func (t TransportSecurity) String() string {
	return string(t)
}

func DecodeTransportSecurity(s string) TransportSecurity {
	switch s {
	case string(SecurityTLS):
		return SecurityTLS
	default:
		return SecurityStartTLS
	}
}
