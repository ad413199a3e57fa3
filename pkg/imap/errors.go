package imap

import (
	"errors"
	"io"
	"net"
	"strings"
)

var connectionIndicators = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"use of closed network connection",
	"i/o timeout",
	"timeout",
	"dial tcp",
	"eof",
}

// IsConnectionError reports whether err means the IMAP connection itself is
// gone, as opposed to a command the server rejected.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range connectionIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
