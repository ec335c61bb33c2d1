package tokenrepofake

import (
	"sync"

	"github.com/jrsteele09/star-console/token"
)

var _ token.Persister = (*FakePersister)(nil)

// FakePersister is an in-memory token.Persister.
type FakePersister struct {
	values map[string]string
	lock   sync.RWMutex

	// Err, when set, is returned from every call.
	Err error
}

func NewFakePersister() *FakePersister {
	return &FakePersister{values: make(map[string]string)}
}

func (fp *FakePersister) Load(key string) (string, error) {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	if fp.Err != nil {
		return "", fp.Err
	}
	return fp.values[key], nil
}

func (fp *FakePersister) Save(key, value string) error {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	if fp.Err != nil {
		return fp.Err
	}
	fp.values[key] = value
	return nil
}

func (fp *FakePersister) Delete(key string) error {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	if fp.Err != nil {
		return fp.Err
	}
	delete(fp.values, key)
	return nil
}

// Has reports whether key is currently stored.
func (fp *FakePersister) Has(key string) bool {
	fp.lock.RLock()
	defer fp.lock.RUnlock()
	_, ok := fp.values[key]
	return ok
}
