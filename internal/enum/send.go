package enum

type SendStatus string

const (
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)

func (t SendStatus) String() string {
	return string(t)
}

type FailureKind string

const (
	FailureAuthentication FailureKind = "authentication_failure"
	FailureConnection     FailureKind = "connection_failure"
	FailureTransport      FailureKind = "transient_transport_failure"
	FailureUnexpected     FailureKind = "unexpected_failure"
)

func (t FailureKind) String() string {
	return string(t)
}
