package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"menu-app-go/internal/domain/access"
)

const (
	msgInvalidDateTime = "Enter a valid date/time."
	msgInvalidInteger  = "Enter a whole number."
)

// OrderKey is one ORDER BY term; Field is always an allow-listed column name.
type OrderKey struct {
	Field string
	Desc  bool
}

type MenuQuery struct {
	Name        string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
	UpdatedAt   *time.Time
	MinDishes   *int64
	MaxDishes   *int64
	Ordering    []OrderKey
}

type DishQuery struct {
	Search       string
	IsVegetarian *bool
	Ordering     []OrderKey
}

type menuParam func(p *QueryParser, q *MenuQuery, raw string) error

// MenuVocabulary is the set of query keys a menu listing understands.
type MenuVocabulary struct {
	name      string
	params    map[string]menuParam
	published bool
}

func (v *MenuVocabulary) Name() string {
	return v.name
}

// Keys lists the recognised keys, sorted.
func (v *MenuVocabulary) Keys() []string {
	keys := make([]string, 0, len(v.params))
	for key := range v.params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var menuOrderingFields = map[string]bool{
	"id": true, "name": true, "created_at": true, "updated_at": true, "dish_count": true,
}

var dishOrderingFields = map[string]bool{
	"id": true, "name": true, "price": true, "prep_time": true, "created_at": true, "updated_at": true,
}

var publicMenuParams = map[string]menuParam{
	"fn": func(_ *QueryParser, q *MenuQuery, raw string) error {
		q.Name = raw
		return nil
	},
	"cgte": timeParam(func(q *MenuQuery, t time.Time) { q.CreatedFrom = &t }),
	"clte": timeParam(func(q *MenuQuery, t time.Time) { q.CreatedTo = &t }),
	"ugte": timeParam(func(q *MenuQuery, t time.Time) { q.UpdatedFrom = &t }),
	"ulte": timeParam(func(q *MenuQuery, t time.Time) { q.UpdatedTo = &t }),
	// sn and sd are resolved together in ParseMenuQuery.
	"sn": directionParam,
	"sd": directionParam,
}

var viewsetMenuParams = map[string]menuParam{
	"name": func(_ *QueryParser, q *MenuQuery, raw string) error {
		q.Name = raw
		return nil
	},
	"search": func(_ *QueryParser, q *MenuQuery, raw string) error {
		q.Search = raw
		return nil
	},
	"created_at__gte": timeParam(func(q *MenuQuery, t time.Time) { q.CreatedFrom = &t }),
	"created_at__lte": timeParam(func(q *MenuQuery, t time.Time) { q.CreatedTo = &t }),
	"updated_at__gte": timeParam(func(q *MenuQuery, t time.Time) { q.UpdatedFrom = &t }),
	"updated_at__lte": timeParam(func(q *MenuQuery, t time.Time) { q.UpdatedTo = &t }),
	"updated_at":      timeParam(func(q *MenuQuery, t time.Time) { q.UpdatedAt = &t }),
	"dish_count__gte": intParam(func(q *MenuQuery, n int64) { q.MinDishes = &n }),
	"dish_count__lte": intParam(func(q *MenuQuery, n int64) { q.MaxDishes = &n }),
	"ordering": func(_ *QueryParser, q *MenuQuery, raw string) error {
		keys, err := parseOrdering(raw, menuOrderingFields)
		if err != nil {
			return err
		}
		q.Ordering = keys
		return nil
	},
}

var (
	// PublicMenus is the anonymous browsing listing (fn, cgte, clte, ugte, ulte, sn, sd).
	PublicMenus = &MenuVocabulary{name: "public", params: publicMenuParams, published: true}
	// MenuCards is the read-open viewset listing; only menus with dishes unless elevated.
	MenuCards = &MenuVocabulary{name: "cards", params: viewsetMenuParams, published: true}
	// PrivateMenus is the management listing and shows every menu.
	PrivateMenus = &MenuVocabulary{name: "private", params: viewsetMenuParams}
)

type QueryParser struct {
	loc *time.Location
}

// NewQueryParser reads zone-less timestamps in loc.
func NewQueryParser(loc *time.Location) *QueryParser {
	if loc == nil {
		loc = time.UTC
	}
	return &QueryParser{loc: loc}
}

func (p *QueryParser) ParseMenuQuery(vocab *MenuVocabulary, values url.Values, caller access.Caller) (MenuQuery, error) {
	var q MenuQuery
	verr := NewValidationError()

	for _, key := range vocab.Keys() {
		raw := strings.TrimSpace(values.Get(key))
		if raw == "" {
			continue
		}
		if err := vocab.params[key](p, &q, raw); err != nil {
			verr.Add(key, err.Error())
		}
	}
	if err := verr.OrNil(); err != nil {
		return MenuQuery{}, err
	}

	if vocab == PublicMenus {
		q.Ordering = publicOrdering(values)
	}

	if vocab.published && !caller.Elevated() {
		if q.MinDishes == nil || *q.MinDishes < 1 {
			one := int64(1)
			q.MinDishes = &one
		}
	}

	return q, nil
}

// publicOrdering applies sn then sd; sd replaces sn when both are present.
func publicOrdering(values url.Values) []OrderKey {
	var ordering []OrderKey
	if dir := strings.TrimSpace(values.Get("sn")); dir != "" {
		ordering = []OrderKey{{Field: "name", Desc: strings.EqualFold(dir, "DESC")}}
	}
	if dir := strings.TrimSpace(values.Get("sd")); dir != "" {
		ordering = []OrderKey{{Field: "dish_count", Desc: strings.EqualFold(dir, "DESC")}}
	}
	return ordering
}

func (p *QueryParser) ParseDishQuery(values url.Values) (DishQuery, error) {
	var q DishQuery
	verr := NewValidationError()

	q.Search = strings.TrimSpace(values.Get("search"))

	if raw := strings.TrimSpace(values.Get("is_vegetarian")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("is_vegetarian", invalidChoice(raw))
		} else {
			q.IsVegetarian = &parsed
		}
	}

	if raw := strings.TrimSpace(values.Get("ordering")); raw != "" {
		keys, err := parseOrdering(raw, dishOrderingFields)
		if err != nil {
			verr.Add("ordering", err.Error())
		} else {
			q.Ordering = keys
		}
	}

	if err := verr.OrNil(); err != nil {
		return DishQuery{}, err
	}
	return q, nil
}

func timeParam(set func(*MenuQuery, time.Time)) menuParam {
	return func(p *QueryParser, q *MenuQuery, raw string) error {
		parsed, err := p.ParseTime(raw)
		if err != nil {
			return err
		}
		set(q, parsed)
		return nil
	}
}

func intParam(set func(*MenuQuery, int64)) menuParam {
	return func(_ *QueryParser, q *MenuQuery, raw string) error {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errors.New(msgInvalidInteger)
		}
		set(q, parsed)
		return nil
	}
}

func directionParam(_ *QueryParser, _ *MenuQuery, raw string) error {
	switch strings.ToUpper(raw) {
	case "ASC", "DESC":
		return nil
	default:
		return errors.New(invalidChoice(raw))
	}
}

func invalidChoice(raw string) string {
	return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw)
}

func parseOrdering(raw string, allowed map[string]bool) ([]OrderKey, error) {
	var keys []OrderKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := OrderKey{Field: part}
		if strings.HasPrefix(part, "-") {
			key = OrderKey{Field: strings.TrimPrefix(part, "-"), Desc: true}
		}
		if !allowed[key.Field] {
			return nil, fmt.Errorf("Invalid ordering field: %s.", part)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
}

var localLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 and the space-separated variants; values without
// a zone are read in the parser's location. The result is in UTC.
func (p *QueryParser) ParseTime(raw string) (time.Time, error) {
	for _, layout := range zonedLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	for _, layout := range localLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, p.loc); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errors.New(msgInvalidDateTime)
}
