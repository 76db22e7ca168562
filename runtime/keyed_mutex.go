package runtime

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultStripes = 64

// KeyedMutex serializes work per key with a fixed number of stripes.
// Two keys may share a stripe; the same key always maps to the same one.
type KeyedMutex struct {
	stripes []sync.Mutex
}

func NewKeyedMutex(stripes int) *KeyedMutex {
	if stripes <= 0 {
		stripes = defaultStripes
	}
	return &KeyedMutex{stripes: make([]sync.Mutex, stripes)}
}

// Lock acquires the stripe of key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	m := &k.stripes[xxhash.Sum64String(key)%uint64(len(k.stripes))]
	m.Lock()
	return m.Unlock
}
