// Package cache accelerates cache:// lookups with a side-file index, so
// repeated runs against a large results/ tree don't re-read every
// .fz_hash manifest on every lookup. The authoritative format stays the
// text .fz_hash manifest (internal/hash); this index is a derived,
// disposable cache of that data, encoded with fxamacker/cbor/v2 for
// compact canonical storage.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"github.com/Funz/fz-sub001/internal/hash"
)

// IndexFile is the name of the accelerator side-file written at the root
// of a cache:// directory.
const IndexFile = ".fz_cache_index.cbor"

// Index maps a case directory's relative name to its manifest entries,
// letting Lookup skip re-hashing directories the index already knows
// about (their content hasn't changed, detected via ModTime below).
type Index struct {
	Entries map[string]CaseEntry `cbor:"entries"`
}

// CaseEntry records one case directory's manifest plus the modification
// time observed when it was indexed, used to detect staleness cheaply
// without re-reading the manifest file.
type CaseEntry struct {
	Manifest []hash.Entry `cbor:"manifest"`
	ModUnix  int64        `cbor:"mod_unix"`
}

// Load reads root/.fz_cache_index.cbor. A missing file returns an empty
// Index, not an error -- the index is purely an accelerator.
func Load(root string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(root, IndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{Entries: map[string]CaseEntry{}}, nil
		}
		return nil, err
	}
	var idx Index
	if err := cbor.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("cache: decoding index: %w", err)
	}
	if idx.Entries == nil {
		idx.Entries = map[string]CaseEntry{}
	}
	return &idx, nil
}

// Save writes the index back to root/.fz_cache_index.cbor using CBOR's
// canonical encoding mode, so repeated Save calls over unchanged data
// produce byte-identical output.
func Save(root string, idx *Index) error {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		return err
	}
	data, err := mode.Marshal(idx)
	if err != nil {
		return fmt.Errorf("cache: encoding index: %w", err)
	}
	return os.WriteFile(filepath.Join(root, IndexFile), data, 0o644)
}

// Refresh scans root for case subdirectories and updates idx's entries
// for any directory whose .fz_hash manifest modification time differs
// from the indexed ModUnix (or not yet indexed), returning the count of entries refreshed.
func Refresh(root string, idx *Index) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		manifestPath := filepath.Join(root, e.Name(), hash.ManifestFile)
		info, err := os.Stat(manifestPath)
		if err != nil {
			continue
		}
		modUnix := info.ModTime().Unix()
		if existing, ok := idx.Entries[e.Name()]; ok && existing.ModUnix == modUnix {
			continue
		}
		manifest, err := hash.ReadManifest(manifestPath)
		if err != nil {
			continue
		}
		idx.Entries[e.Name()] = CaseEntry{Manifest: manifest, ModUnix: modUnix}
		refreshed++
	}
	return refreshed, nil
}

// Find returns the case directory name whose manifest byte-equals want,
// scanning only the in-memory index (callers should Refresh first if the
// cache root may have changed since Load).
func Find(idx *Index, want []hash.Entry) (string, bool) {
	for name, entry := range idx.Entries {
		if hash.Equal(want, entry.Manifest) {
			return name, true
		}
	}
	return "", false
}
