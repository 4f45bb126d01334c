package news

import (
	"crypto/sha1"
	"encoding/hex"
	"time"

	"vnnews/internal/model"
)

// Fingerprint derives the stable item identity: a SHA-1 hex digest of the
// first non-empty of guid, link, else source+title+published. The same
// underlying article must hash identically on every run, so only fields
// that do not drift between fetches participate.
func Fingerprint(guid, link, source, title string, published time.Time) string {
	basis := guid
	if basis == "" {
		basis = link
	}
	if basis == "" {
		basis = source + title + model.FormatPublished(published)
	}
	sum := sha1.Sum([]byte(basis))
	return hex.EncodeToString(sum[:])
}
