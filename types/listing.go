package types

import "strings"

// Listing is a received directory listing.
type Listing struct {
	Server    string   `json:"server" yaml:"server"`
	SessionID string   `json:"session_id" yaml:"session_id"`
	Entries   []string `json:"entries" yaml:"entries"`
	// Raw is the listing text exactly as received.
	Raw string `json:"-" yaml:"-"`
}

// NewListing splits raw listing text into entries. The reference server
// terminates every name with a newline; blank lines are dropped.
func NewListing(server, sessionID, raw string) *Listing {
	var entries []string
	for line := range strings.SplitSeq(raw, "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			entries = append(entries, line)
		}
	}
	return &Listing{Server: server, SessionID: sessionID, Entries: entries, Raw: raw}
}

// Text returns the listing as received, newline terminated.
func (l *Listing) Text() string {
	if l.Raw == "" || strings.HasSuffix(l.Raw, "\n") {
		return l.Raw
	}
	return l.Raw + "\n"
}
