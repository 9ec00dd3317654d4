package server

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/sells-group/recordui/internal/render"
)

// ArtifactCache holds rendered artifacts for the host page to serve.
type ArtifactCache struct {
	cache *gocache.Cache
}

// NewArtifactCache creates a cache whose entries expire after ttl.
func NewArtifactCache(ttl time.Duration) *ArtifactCache {
	return &ArtifactCache{cache: gocache.New(ttl, 2*ttl)}
}

// ArtifactID derives the stable cache id for an artifact URI.
func ArtifactID(uri string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(uri)).String()
}

// Put stores a, replacing any earlier artifact with the same URI.
func (c *ArtifactCache) Put(a *render.Artifact) {
	c.cache.SetDefault(ArtifactID(a.URI), a)
}

// Get returns the artifact with the given id.
func (c *ArtifactCache) Get(id string) (*render.Artifact, bool) {
	if v, found := c.cache.Get(id); found {
		return v.(*render.Artifact), true
	}
	return nil, false
}

// Lookup returns the artifact rendered for uri.
func (c *ArtifactCache) Lookup(uri string) (*render.Artifact, bool) {
	return c.Get(ArtifactID(uri))
}

// Len reports the number of cached artifacts, including expired ones not
// yet evicted.
func (c *ArtifactCache) Len() int {
	return c.cache.ItemCount()
}
