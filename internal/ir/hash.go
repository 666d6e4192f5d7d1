package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot  = "listsync/snapshot/v1"
	DomainChangeset = "listsync/changeset/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotHash computes a content hash over a snapshot's version and its
// ordered (identity, model, size) items. The configuration pointer is not
// part of the hash; its size range is.
//
// Models are reduced with ModelValue, so two snapshots whose models render
// identically hash identically.
func SnapshotHash(s *Snapshot) (string, error) {
	if s == nil {
		return "", fmt.Errorf("SnapshotHash: nil snapshot")
	}
	items := make([]any, 0, s.Len())
	for _, it := range s.All() {
		items = append(items, map[string]any{
			"id":     it.ID,
			"model":  ModelValue(it.Model),
			"width":  it.Size.Width,
			"height": it.Size.Height,
		})
	}
	obj := map[string]any{
		"version": s.Version(),
		"items":   items,
	}
	if cfg := s.Configuration(); cfg != nil {
		obj["size_range"] = sizeRangeValue(cfg.SizeRange)
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// ChangesetHash computes a content hash over the canonical encoding of cs.
func ChangesetHash(cs Changeset) (string, error) {
	canonical, err := MarshalCanonical(cs.canonicalValue())
	if err != nil {
		return "", fmt.Errorf("ChangesetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainChangeset, canonical), nil
}

// MustSnapshotHash is like SnapshotHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSnapshotHash(s *Snapshot) string {
	h, err := SnapshotHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

func sizeRangeValue(r SizeRange) map[string]any {
	return map[string]any{
		"min_width":  r.Min.Width,
		"min_height": r.Min.Height,
		"max_width":  r.Max.Width,
		"max_height": r.Max.Height,
	}
}
