package cache

import (
	"errors"
	"strings"
	"time"

	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"

	"github.com/bradfitz/gomemcache/memcache"
)

// maxKeyLength is the longest key memcached accepts
const maxKeyLength = 250

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
	prefix string
}

// NewMemcacheService creates a new memcache service. Every key is stored
// under prefix so several deployments can share one memcached.
func NewMemcacheService(serverAddr, prefix string) *MemcacheService {
	client := memcache.New(serverAddr)
	client.Timeout = 500 * time.Millisecond

	return &MemcacheService{
		client: client,
		prefix: prefix,
	}
}

// Ping checks that the server answers
func (m *MemcacheService) Ping() error {
	if err := m.client.Ping(); err != nil {
		return crawlerrors.NewCache("", "memcached is not reachable", err)
	}
	return nil
}

// Get retrieves a value from memcache. A missing key returns
// memcache.ErrCacheMiss unchanged.
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(m.key(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, err
		}
		return nil, crawlerrors.NewCache("", "failed to get "+key, err)
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	err := m.client.Set(&memcache.Item{
		Key:        m.key(key),
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
	if err != nil {
		return crawlerrors.NewCache("", "failed to set "+key, err)
	}
	return nil
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(m.key(key))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return crawlerrors.NewCache("", "failed to delete "+key, err)
	}
	return nil
}

func (m *MemcacheService) key(key string) string {
	return sanitizeKey(m.prefix + key)
}

// sanitizeKey replaces characters memcached rejects and caps the length
func sanitizeKey(key string) string {
	key = strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return '_'
		}
		return r
	}, key)
	if len(key) > maxKeyLength {
		key = key[:maxKeyLength]
	}
	return key
}
