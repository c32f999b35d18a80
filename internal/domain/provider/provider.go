// Package provider defines the source interface for wearable and phone
// activity data. Concrete sources live outside this repo; the sync job only
// needs fetching and a stable external id per record.
package provider

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fittrack-app/backend/internal/model"
)

type ActivitySource interface {
	// Name identifies the provider; it is stored on every activity and
	// namespaces external ids.
	Name() string

	// FetchActivities returns the user's activities started since the given
	// time. Records already synced may appear again; the caller drops them
	// by external id.
	FetchActivities(ctx context.Context, userID string, since time.Time) ([]model.AwardActivityRequest, error)
}

var (
	mutex   sync.RWMutex
	sources = map[string]ActivitySource{}
)

func Register(source ActivitySource) {
	mutex.Lock()
	defer mutex.Unlock()
	sources[source.Name()] = source
}

func Get(name string) (ActivitySource, bool) {
	mutex.RLock()
	defer mutex.RUnlock()
	source, ok := sources[name]
	return source, ok
}

func All() []ActivitySource {
	mutex.RLock()
	defer mutex.RUnlock()

	all := make([]ActivitySource, 0, len(sources))
	for _, s := range sources {
		all = append(all, s)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}
