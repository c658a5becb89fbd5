package types

// Version is the canonical ftclient version.
// Reported by `ftclient version` and stamped into transfer records.
const Version = "0.3.0"
