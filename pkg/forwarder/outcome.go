package forwarder

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"

	"golang.org/x/sys/unix"
)

type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonInvalidEndpoint  FailureReason = "invalid_endpoint"
	ReasonTransportFailure FailureReason = "transport_failure"
	ReasonUnknownFailure   FailureReason = "unknown_failure"
)

// Outcome is the result of one delivery attempt. HTTPStatus is 0 unless the
// collector answered; any status counts as delivered.
type Outcome struct {
	Delivered  bool
	HTTPStatus int
	Reason     FailureReason
	// Cause is a short label for transport failures, e.g. "connection_refused".
	Cause string
	Err   error
}

// Result is the metrics label for the outcome.
func (o Outcome) Result() string {
	if o.Delivered {
		return "delivered"
	}
	return string(o.Reason)
}

func delivered(status int) Outcome {
	return Outcome{Delivered: true, HTTPStatus: status}
}

func failed(reason FailureReason, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

// classify maps an error returned by http.Client.Do onto a failure reason.
// Do reports every send or receive failure as a *url.Error, so all of those
// are transport failures; Cause narrows down the recognised ones.
func classify(err error) Outcome {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		cause := transportCause(uerr.Err)
		if cause == "" {
			cause = "transport"
		}
		out := failed(ReasonTransportFailure, err)
		out.Cause = cause
		return out
	}

	if cause := transportCause(err); cause != "" {
		out := failed(ReasonTransportFailure, err)
		out.Cause = cause
		return out
	}
	return failed(ReasonUnknownFailure, err)
}

func transportCause(err error) string {
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.Is(err, unix.ECONNREFUSED):
		return "connection_refused"
	case errors.Is(err, unix.ECONNRESET), errors.Is(err, unix.EPIPE):
		return "connection_reset"
	case errors.Is(err, unix.EHOSTUNREACH), errors.Is(err, unix.ENETUNREACH):
		return "unreachable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, unix.ETIMEDOUT):
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "connection_closed"
	}
	return ""
}
