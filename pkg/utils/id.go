package utils

import (
	"crypto/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// GenerateID returns a random UUID, used for users, products and conversations.
func GenerateID() string {
	return uuid.New().String()
}

// GenerateMessageID returns a ULID. Message ids sort lexically by creation
// time, which keeps cold-storage exports readable; ordering inside a
// conversation is still decided by the sequence number alone.
func GenerateMessageID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// IsUUID checks if the string is a valid UUID
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// gstinPattern matches the 15-character Indian GSTIN format:
// 2-digit state code, 10-char PAN, entity digit, 'Z', checksum.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]$`)

// IsValidGSTIN validates the format of a GST identification number.
func IsValidGSTIN(s string) bool {
	return gstinPattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}
