package inmemory

import (
	"sync"
	"time"

	catalogdomain "menu-app-go/internal/domain/catalog"
)

// InMemoryMenuCache keeps menu listings per query key until they expire or a
// write clears them.
type InMemoryMenuCache struct {
	mu         sync.RWMutex
	items      map[string]menusItem
	generation uint64
	now        func() time.Time
}

type menusItem struct {
	value     []catalogdomain.Menu
	expiresAt time.Time
}

func NewInMemoryMenuCache() *InMemoryMenuCache {
	return &InMemoryMenuCache{
		items: make(map[string]menusItem),
		now:   time.Now,
	}
}

func (c *InMemoryMenuCache) GetMenus(key string) ([]catalogdomain.Menu, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[key]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return cloneMenus(item.value), true
}

func (c *InMemoryMenuCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// SetMenus stores a listing read at generation; a Clear since then discards it.
func (c *InMemoryMenuCache) SetMenus(key string, menus []catalogdomain.Menu, ttl time.Duration, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.items, key)
		return
	}
	if generation != c.generation {
		return
	}
	c.items[key] = menusItem{
		value:     cloneMenus(menus),
		expiresAt: c.now().Add(ttl),
	}
}

func (c *InMemoryMenuCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]menusItem)
	c.generation++
	c.mu.Unlock()
}

func cloneMenus(menus []catalogdomain.Menu) []catalogdomain.Menu {
	if menus == nil {
		return nil
	}
	cloned := make([]catalogdomain.Menu, len(menus))
	for i := range menus {
		cloned[i] = menus[i]
		if menus[i].Dishes != nil {
			dishes := make([]catalogdomain.Dish, len(menus[i].Dishes))
			copy(dishes, menus[i].Dishes)
			cloned[i].Dishes = dishes
		}
	}
	return cloned
}
