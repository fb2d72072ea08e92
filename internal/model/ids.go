package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// HashID derives a stable identifier from the given parts. Extraction and
// dedup use content-hash IDs so repeated runs over identical input produce
// byte-identical outputs.
func HashID(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:8])
}

// NewAuditID returns a random identifier for audit log entries. Audit rows
// are run-scoped bookkeeping, not part of the deterministic candidate set.
func NewAuditID() string {
	return uuid.NewString()
}
