// Package names resolves object ids to descriptive names.
// A missing mapping is never an error; the name is simply empty.
package names

import (
	"encoding/json"
	"fmt"
	"github.com/jellydator/ttlcache/v3"
	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/trackclust/conceptual"
	"os"
	"regexp"
	"strings"
	"time"
)

type Resolver interface {
	Resolve(id conceptual.ObjectID) (name string, ok bool)
}

// Nop resolves nothing.
type Nop struct{}

func (Nop) Resolve(conceptual.ObjectID) (string, bool) { return "", false }

// Map resolves from a fixed table.
type Map map[conceptual.ObjectID]string

func (m Map) Resolve(id conceptual.ObjectID) (string, bool) {
	name, ok := m[id]
	return name, ok && name != ""
}

// LoadMap reads a JSON object of id to name.
func LoadMap(path string) (Map, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := Map{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("names %s: %w", path, err)
	}
	return m, nil
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-.]`)

// SanitizeName makes a name safe for use as a single path element or key.
// Leading dots are dropped so the result is never "." or "..".
func SanitizeName(name string) string {
	name = strings.TrimLeft(invalidNameChars.ReplaceAllString(strings.TrimSpace(name), "_"), ".")
	if name == "" {
		return "_"
	}
	return name
}

// Cached remembers another resolver's answers, misses included, for a while.
type Cached struct {
	next  Resolver
	cache *ttlcache.Cache[conceptual.ObjectID, string]
}

func NewCached(next Resolver, ttl time.Duration) *Cached {
	return &Cached{
		next: next,
		cache: ttlcache.New[conceptual.ObjectID, string](
			ttlcache.WithTTL[conceptual.ObjectID, string](ttl),
			ttlcache.WithDisableTouchOnHit[conceptual.ObjectID, string](),
		),
	}
}

func (c *Cached) Resolve(id conceptual.ObjectID) (string, bool) {
	if item := c.cache.Get(id); item != nil {
		return item.Value(), item.Value() != ""
	}
	name, ok := c.next.Resolve(id)
	if !ok {
		name = ""
	}
	c.cache.Set(id, name, ttlcache.DefaultTTL)
	return name, ok
}

func (c *Cached) Len() int {
	return c.cache.Len()
}
