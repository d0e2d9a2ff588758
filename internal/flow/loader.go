package flow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// Loader parses, validates, and compiles flow tables from YAML, caching
// compiled tables by content hash so identical configurations are only
// compiled once. Compiled tables are immutable, so serving a cached
// pointer to multiple sessions is safe.
type Loader struct {
	// cache stores compiled tables indexed by SHA256 of the normalized
	// configuration.
	cache   map[string]*Table
	cacheMu sync.RWMutex

	// sf prevents duplicate compilation when multiple goroutines request
	// the same flow simultaneously.
	sf singleflight.Group
}

// NewLoader creates a Loader with an empty cache.
func NewLoader() *Loader {
	return &Loader{cache: make(map[string]*Table)}
}

// LoadFromFile loads and compiles a flow table from a YAML file.
func (l *Loader) LoadFromFile(path string) (*Table, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	return l.load(data)
}

// LoadFromReader loads and compiles a flow table from an io.Reader.
func (l *Loader) LoadFromReader(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow data: %w", err)
	}
	return l.load(data)
}

// load parses the YAML, then compiles under singleflight keyed by the
// hash of the normalized config so concurrent loads of the same flow
// share one compilation.
func (l *Loader) load(data []byte) (*Table, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flow YAML: %w", err)
	}

	hash, err := configHash(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to hash flow config: %w", err)
	}

	v, err, _ := l.sf.Do(hash, func() (any, error) {
		if table, ok := l.cached(hash); ok {
			return table, nil
		}

		table, err := Compile(cfg)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[hash] = table
		l.cacheMu.Unlock()

		return table, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Table), nil
}

func (l *Loader) cached(hash string) (*Table, bool) {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	table, ok := l.cache[hash]
	return table, ok
}

// configHash hashes the re-marshaled config rather than the raw bytes so
// formatting differences in the source YAML do not defeat the cache.
func configHash(cfg Config) (string, error) {
	normalized, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(normalized)
	return hex.EncodeToString(sum[:]), nil
}
