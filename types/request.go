// Package types defines core domain types for ftclient.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Operation is the command requested from the server.
type Operation string

const (
	// OpList requests a directory listing.
	OpList Operation = "list"
	// OpGet requests a single file.
	OpGet Operation = "get"
)

// ParseOperation parses an operation name. Accepts the long names and the
// reference server's flag spellings ("-l", "-g").
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(s) {
	case "list", "l", "-l":
		return OpList, nil
	case "get", "g", "-g":
		return OpGet, nil
	default:
		return "", fmt.Errorf("invalid operation: %q (must be list or get)", s)
	}
}

// Dialect selects how the operation is spelled in the handshake command field.
type Dialect string

const (
	// DialectFlags spells commands as the reference server expects:
	// "-l <dataport>" and "-g <file> <dataport>".
	DialectFlags Dialect = "flags"
	// DialectVerb spells commands as "list" and "get <file>".
	DialectVerb Dialect = "verb"
)

// ParseDialect parses a dialect name. Empty selects DialectFlags.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "", "flags":
		return DialectFlags, nil
	case "verb":
		return DialectVerb, nil
	default:
		return "", fmt.Errorf("invalid dialect: %q (must be flags or verb)", s)
	}
}

// Request holds the decoded invocation inputs for one session.
type Request struct {
	// Host is the server host for the control channel.
	Host string
	// Port is the server control port.
	Port int
	// Operation is the requested command.
	Operation Operation
	// FileName is the remote file name (get only).
	FileName string
	// DataPort is the local port the client listens on for the data channel.
	// Zero picks a free port, bound before the handshake so the flags
	// dialect can carry it. The reference server always gets an explicit
	// port; zero is a local extension and is rejected for the verb dialect,
	// whose command never names the port.
	DataPort int
	// Identity is the client identity sent in the handshake. The server uses
	// it as the host to connect back to.
	Identity string
	// Dialect selects the command spelling (default DialectFlags).
	Dialect Dialect
}

// Validate checks the request is complete enough to start a session.
// A zero DataPort is only accepted with the flags dialect.
func (r *Request) Validate() error {
	if r.Host == "" {
		return errors.New("host must be non-empty")
	}
	if err := validatePort("port", r.Port); err != nil {
		return err
	}
	if r.DataPort < 0 || r.DataPort > 65535 {
		return fmt.Errorf("data port must be in [0, 65535], got %d", r.DataPort)
	}
	if r.Identity == "" {
		return errors.New("identity must be non-empty")
	}
	switch r.Operation {
	case OpList:
		if r.FileName != "" {
			return errors.New("list does not take a file name")
		}
	case OpGet:
		if r.FileName == "" {
			return errors.New("get requires a file name")
		}
		if strings.ContainsAny(r.FileName, `/\`) || r.FileName == "." || r.FileName == ".." {
			return fmt.Errorf("file name %q must not contain path separators", r.FileName)
		}
	default:
		return fmt.Errorf("invalid operation: %q", r.Operation)
	}
	dialect, err := ParseDialect(string(r.Dialect))
	if err != nil {
		return err
	}
	if r.DataPort == 0 && dialect == DialectVerb {
		return errors.New("data port 0 is not supported by the verb dialect: its command does not carry the port")
	}
	return nil
}

// Command renders the operation field of the handshake.
func (r *Request) Command() string {
	port := strconv.Itoa(r.DataPort)
	if r.Dialect == DialectVerb {
		if r.Operation == OpGet {
			return "get " + r.FileName
		}
		return "list"
	}
	if r.Operation == OpGet {
		return "-g " + r.FileName + " " + port
	}
	return "-l " + port
}

// Addr returns the control channel address in host:port form.
func (r *Request) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be in [1, 65535], got %d", name, port)
	}
	return nil
}
