// Package promptcache serves prompt templates from a yaml file on disk,
// fronted by a redis cache with an explicit TTL. Redis being down only costs
// the cache: reads fall through to the file.
package promptcache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	redisv8 "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	templatesFileName = "prompts.yaml"
	cacheKeyPrefix    = "shopbot:prompt:"
)

// Loader resolves template names to template text.
type Loader struct {
	dir   string
	ttl   time.Duration
	cache redisv8.Cmdable

	mu    sync.RWMutex
	local map[string]string
}

// NewLoader builds a loader over dir/prompts.yaml. cache may be nil, which
// disables the redis layer entirely.
func NewLoader(dir string, ttl time.Duration, cache redisv8.Cmdable) *Loader {
	return &Loader{dir: dir, ttl: ttl, cache: cache}
}

// Get resolves one template. The second return reports whether the template
// exists at all.
func (l *Loader) Get(ctx context.Context, name string) (string, bool) {
	if l.cache != nil {
		value, err := l.cache.Get(ctx, cacheKeyPrefix+name).Result()
		if err == nil {
			return value, true
		}
		if err != redisv8.Nil {
			log.Warnf("prompt cache read failed for %q, falling back to file: %v", name, err)
		}
	}

	value, ok := l.fromFile(name)
	if !ok {
		return "", false
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, cacheKeyPrefix+name, value, l.ttl).Err(); err != nil {
			log.Warnf("prompt cache write failed for %q: %v", name, err)
		}
	}
	return value, true
}

// Set overrides one template in the cache for its TTL. The file on disk is
// never touched.
func (l *Loader) Set(ctx context.Context, name, value string) error {
	if l.cache == nil {
		return errors.New("promptcache: no cache configured")
	}
	return l.cache.Set(ctx, cacheKeyPrefix+name, value, l.ttl).Err()
}

// Invalidate drops one template from the cache so the next Get re-reads disk.
func (l *Loader) Invalidate(ctx context.Context, name string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Del(ctx, cacheKeyPrefix+name).Err(); err != nil {
		log.Warnf("prompt cache invalidate failed for %q: %v", name, err)
	}
}

func (l *Loader) fromFile(name string) (string, bool) {
	l.mu.RLock()
	if l.local != nil {
		value, ok := l.local[name]
		l.mu.RUnlock()
		return value, ok
	}
	l.mu.RUnlock()

	templates, err := l.loadFile()
	if err != nil {
		log.Warnf("prompt templates unavailable: %v", err)
		return "", false
	}

	l.mu.Lock()
	l.local = templates
	value, ok := templates[name]
	l.mu.Unlock()
	return value, ok
}

func (l *Loader) loadFile() (map[string]string, error) {
	path := filepath.Join(l.dir, templatesFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	templates := make(map[string]string)
	if err := yaml.Unmarshal(raw, &templates); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return templates, nil
}
