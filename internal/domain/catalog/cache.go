package catalog

import (
	"fmt"
	"strings"
	"time"
)

// ListingCache holds menu listings between catalog writes. Clear advances the
// generation; SetMenus drops listings read under an older generation.
type ListingCache interface {
	GetMenus(key string) ([]Menu, bool)
	Generation() uint64
	SetMenus(key string, menus []Menu, ttl time.Duration, generation uint64)
	Clear()
}

type noopListingCache struct{}

func (noopListingCache) GetMenus(string) ([]Menu, bool) {
	return nil, false
}

func (noopListingCache) Generation() uint64 {
	return 0
}

func (noopListingCache) SetMenus(string, []Menu, time.Duration, uint64) {}

func (noopListingCache) Clear() {}

// Key identifies the query for caching; equal queries give equal keys.
func (q MenuQuery) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "name=%q;search=%q", q.Name, q.Search)
	for _, bound := range []struct {
		name  string
		value *time.Time
	}{
		{"cf", q.CreatedFrom}, {"ct", q.CreatedTo},
		{"uf", q.UpdatedFrom}, {"ut", q.UpdatedTo}, {"u", q.UpdatedAt},
	} {
		if bound.value != nil {
			fmt.Fprintf(&b, ";%s=%d", bound.name, bound.value.UnixNano())
		}
	}
	if q.MinDishes != nil {
		fmt.Fprintf(&b, ";min=%d", *q.MinDishes)
	}
	if q.MaxDishes != nil {
		fmt.Fprintf(&b, ";max=%d", *q.MaxDishes)
	}
	for _, key := range q.Ordering {
		fmt.Fprintf(&b, ";o=%s:%t", key.Field, key.Desc)
	}
	return b.String()
}
