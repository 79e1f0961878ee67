package model

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"hash"
	"strings"
)

// CatalogEntry represents one discoverable item on the remote catalog.
// Entries are produced fresh on every listing parse and never persisted.
type CatalogEntry struct {
	Name         string // Unique key within the catalog (file base name)
	RelativePath string // Path relative to the catalog root
	Language     string // Optional language tag derived from the name
	Category     string // Optional category tag (top-level directory or creator)
	SizeHint     int64  // Size reported by the listing, 0 if absent
	IsDirectory  bool   // Directory rows are recursion targets, never downloads
}

// HashAlgo identifies the digest algorithm declared by a metadata document
type HashAlgo string

const (
	HashSHA256 HashAlgo = "sha256"
	HashSHA1   HashAlgo = "sha1"
	HashMD5    HashAlgo = "md5"
)

// ParseHashAlgo normalizes metalink hash type names ("sha-256", "SHA256", ...)
func ParseHashAlgo(s string) (HashAlgo, bool) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "sha256":
		return HashSHA256, true
	case "sha1":
		return HashSHA1, true
	case "md5":
		return HashMD5, true
	default:
		return "", false
	}
}

// New returns a fresh hash.Hash for the algorithm
func (a HashAlgo) New() hash.Hash {
	switch a {
	case HashSHA256:
		return sha256.New()
	case HashSHA1:
		return sha1.New()
	case HashMD5:
		return md5.New()
	default:
		return sha256.New()
	}
}

// ContentHash is an algorithm-qualified digest
type ContentHash struct {
	Algo   HashAlgo `json:"algo"`
	Digest string   `json:"digest"` // lowercase hex
}

// IsZero reports whether no digest is present
func (h ContentHash) IsZero() bool {
	return h.Digest == ""
}

// String renders the hash as "algo:digest", empty for the zero value
func (h ContentHash) String() string {
	if h.IsZero() {
		return ""
	}
	return string(h.Algo) + ":" + h.Digest
}

// MirrorDescriptor is resolved from an item's metadata document: ordered
// candidate source URLs plus the authoritative digest when the document
// supplies one. Resolved per attempt, never persisted.
type MirrorDescriptor struct {
	Name      string      // Item name the descriptor belongs to
	Mirrors   []string    // Candidate URLs in attempt order
	Hash      ContentHash // Authoritative digest, zero when absent
	SizeBytes int64       // Declared size, 0 if absent
}

// HasHash reports whether the descriptor carries an authoritative digest
func (d *MirrorDescriptor) HasHash() bool {
	return d != nil && !d.Hash.IsZero()
}
