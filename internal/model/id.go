package model

import (
	"strings"

	"github.com/google/uuid"
)

// postingNamespace seeds deterministic IDs for postings that carry none.
var postingNamespace = uuid.MustParse("6f1c2a4e-8d3b-4c5a-9e7f-0a1b2c3d4e5f")

// DerivedID builds a stable external ID from the fields that identify a
// posting on sources without IDs. Case is ignored.
func DerivedID(source string, parts ...string) string {
	key := source + "|" + strings.ToLower(strings.Join(parts, "|"))
	return uuid.NewSHA1(postingNamespace, []byte(key)).String()
}
