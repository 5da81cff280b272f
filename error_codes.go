package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
)

// ErrorCode classifies failures below the HTTP layer. CodeOK (0) means the
// exchange completed, whatever its HTTP status.
type ErrorCode int

const (
	CodeOK                     ErrorCode = 0
	CodeUnsupportedProtocol    ErrorCode = 1
	CodeFailed                 ErrorCode = 2
	CodeMalformedURL           ErrorCode = 3
	CodeCouldNotResolveHost    ErrorCode = 6
	CodeCouldNotConnect        ErrorCode = 7
	CodeWriteError             ErrorCode = 23
	CodeOperationTimedOut      ErrorCode = 28
	CodeSSLConnectError        ErrorCode = 35
	CodeAborted                ErrorCode = 42
	CodeRecvError              ErrorCode = 56
	CodePeerFailedVerification ErrorCode = 60
)

var errorCodeNames = map[ErrorCode]string{
	CodeOK:                     "ok",
	CodeUnsupportedProtocol:    "unsupported protocol",
	CodeFailed:                 "request failed",
	CodeMalformedURL:           "malformed url",
	CodeCouldNotResolveHost:    "could not resolve host",
	CodeCouldNotConnect:        "could not connect",
	CodeWriteError:             "write error",
	CodeOperationTimedOut:      "operation timed out",
	CodeSSLConnectError:        "ssl connect error",
	CodeAborted:                "aborted",
	CodeRecvError:              "receive error",
	CodePeerFailedVerification: "peer certificate verification failed",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("error code %d", int(c))
}

// TransportError is returned by [Result.Err] when a request failed before a
// complete HTTP response was received.
type TransportError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error %d (%s): %s", int(e.Code), e.Code, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// classifyError maps an error from the HTTP stack onto an ErrorCode.
// Cancellation and deadlines are checked first since they wrap network errors.
func classifyError(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}

	if errors.Is(err, context.Canceled) {
		return CodeAborted
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CodeOperationTimedOut
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeCouldNotResolveHost
	}

	if isCertificateError(err) {
		return CodePeerFailedVerification
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return CodeSSLConnectError
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return CodeSSLConnectError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeOperationTimedOut
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return CodeCouldNotConnect
		}
		return CodeRecvError
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return CodeMalformedURL
	}

	if strings.Contains(err.Error(), "unsupported protocol scheme") {
		return CodeUnsupportedProtocol
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return CodeRecvError
	}

	return CodeFailed
}

func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}

	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return true
	}

	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}

	var invalidErr x509.CertificateInvalidError

	return errors.As(err, &invalidErr)
}
