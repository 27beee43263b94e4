package smtp

import (
	"errors"
	"io"
	"net"
	"net/textproto"

	"github.com/sendblast/sendblast/internal/enum"
)

var (
	ErrConnectionFailed     = errors.New("connection failed")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// Reply codes the relay uses to reject credentials or demand authentication.
var authFailureCodes = map[int]struct{}{
	530: {},
	534: {},
	535: {},
	538: {},
}

// Classify maps a session or send error onto the failure taxonomy. Protocol
// replies are inspected before connection-level checks: a reply means the
// connection itself is alive.
func Classify(err error) (enum.FailureKind, string) {
	if err == nil {
		return "", ""
	}

	if errors.Is(err, ErrAuthenticationFailed) {
		return enum.FailureAuthentication, err.Error()
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		if _, ok := authFailureCodes[protoErr.Code]; ok {
			return enum.FailureAuthentication, err.Error()
		}
		return enum.FailureTransport, err.Error()
	}

	if errors.Is(err, ErrConnectionFailed) {
		return enum.FailureConnection, err.Error()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return enum.FailureConnection, err.Error()
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return enum.FailureConnection, err.Error()
	}

	return enum.FailureUnexpected, err.Error()
}
