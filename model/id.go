// ABOUTME: ULID generation for model and node identities using crypto/rand entropy.
// ABOUTME: Permanent ids are what canonical formulas reference, so renames never break them.
package model

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewNodeID mints a permanent node id.
func NewNodeID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewModelID mints a model document id.
func NewModelID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
