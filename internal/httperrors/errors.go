// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns transport failures from the session API into
// messages a person can act on.
package httperrors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
)

// Category is the kind of transport failure.
type Category int

const (
	Generic Category = iota
	Timeout
	DNS
	ConnectionRefused
	TLS
	Server
)

// Classify reports which category err falls in.
func Classify(err error) Category {
	switch {
	case err == nil:
		return Generic
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return ConnectionRefused
	case isSSLError(err):
		return TLS
	case isServerError(err.Error()):
		return Server
	default:
		return Generic
	}
}

// Present writes a troubleshooting message for err to w. action describes
// what the CLI was doing ("signing in"), host is the API host.
// The returned error wraps err for logging.
func Present(w io.Writer, err error, action, host string) error {
	if err == nil {
		return nil
	}
	if host == "" {
		host = "the session API"
	}

	var lines []string
	switch Classify(err) {
	case Timeout:
		pterm.Fprintln(w, pterm.Yellow(fmt.Sprintf("Connection timeout while %s", action)))
		lines = []string{
			fmt.Sprintf("%s took too long to respond.", host),
			"  • Check that the API is running and reachable",
			"  • Raise http_timeout if the API is slow to start",
		}
	case DNS:
		pterm.Fprintln(w, pterm.Yellow(fmt.Sprintf("Cannot resolve %s while %s", host, action)))
		lines = []string{
			"  • Check the api_url setting for typos",
			"  • Check your DNS settings",
		}
	case ConnectionRefused:
		pterm.Fprintln(w, pterm.Yellow(fmt.Sprintf("Connection refused by %s while %s", host, action)))
		lines = []string{
			"  • Is the API running? For local work start it with: nextauth devserver",
			"  • Check the port in api_url",
		}
	case TLS:
		pterm.Fprintln(w, pterm.Yellow(fmt.Sprintf("Secure connection to %s failed while %s", host, action)))
		lines = []string{
			"  • Check the server certificate",
			"  • Check your system date and time",
		}
	case Server:
		pterm.Fprintln(w, pterm.Yellow(fmt.Sprintf("Server error from %s while %s", host, action)))
		lines = []string{"The API failed to handle the request. Try again in a few moments."}
	default:
		pterm.Fprintln(w, pterm.Yellow(fmt.Sprintf("Cannot reach %s while %s", host, action)))
		lines = []string{"  • Check your connection and the api_url setting"}
		details := err.Error()
		if len(details) > 100 {
			details = details[:100] + "..."
		}
		lines = append(lines, pterm.Gray("Details: "+details))
	}
	for _, l := range lines {
		pterm.Fprintln(w, l)
	}
	return fmt.Errorf("network error: %w", err)
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// isServerError checks for 5xx answers.
func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	for _, marker := range []string{"500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ExtractHostFromURL extracts the host from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
