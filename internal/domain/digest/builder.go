// Package digest builds and sends the daily summary of changed dishes.
package digest

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"menu-app-go/internal/domain/catalog"
)

const (
	emptyMessage   = "No new or updated dishes"
	dateLabel      = "January 2, 2006"
	subjectLayout  = "2006-01-02"
	subjectPattern = "Update on %s"
)

//go:embed templates/update.html
var templateFS embed.FS

var updateTemplate = template.Must(template.ParseFS(templateFS, "templates/update.html"))

// DishSource lists dishes whose timestamp falls in [from, to).
type DishSource interface {
	DishesCreatedBetween(ctx context.Context, from, to time.Time) ([]catalog.Dish, error)
	DishesUpdatedBetween(ctx context.Context, from, to time.Time) ([]catalog.Dish, error)
}

type Digest struct {
	Date    time.Time
	Updated []catalog.Dish
	Created []catalog.Dish
	HTML    string
}

func (d Digest) Empty() bool {
	return len(d.Updated) == 0 && len(d.Created) == 0
}

type Builder struct {
	source DishSource
	loc    *time.Location
}

func NewBuilder(source DishSource, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{source: source, loc: loc}
}

// TargetDay returns the calendar day before reference, as [start, end) in the builder's location.
func (b *Builder) TargetDay(reference time.Time) (time.Time, time.Time) {
	local := reference.In(b.loc)
	start := time.Date(local.Year(), local.Month(), local.Day()-1, 0, 0, 0, 0, b.loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, b.loc)
	return start, end
}

// Build collects the dishes updated and created on the day before reference.
// A dish created that day usually shows up in both lists.
func (b *Builder) Build(ctx context.Context, reference time.Time) (Digest, error) {
	start, end := b.TargetDay(reference)

	updated, err := b.source.DishesUpdatedBetween(ctx, start, end)
	if err != nil {
		return Digest{}, fmt.Errorf("digest: updated dishes: %w", err)
	}
	created, err := b.source.DishesCreatedBetween(ctx, start, end)
	if err != nil {
		return Digest{}, fmt.Errorf("digest: created dishes: %w", err)
	}

	digest := Digest{Date: start, Updated: updated, Created: created}
	html, err := render(digest)
	if err != nil {
		return Digest{}, err
	}
	digest.HTML = html
	return digest, nil
}

// Subject is the mail subject for a run on today.
func (b *Builder) Subject(today time.Time) string {
	return fmt.Sprintf(subjectPattern, today.In(b.loc).Format(subjectLayout))
}

type dishLine struct {
	Name        string
	Description string
	Price       string
	PrepTime    int
	Vegetarian  bool
}

type templateData struct {
	DateLabel string
	Empty     bool
	Updated   []dishLine
	Created   []dishLine
}

func render(digest Digest) (string, error) {
	data := templateData{
		DateLabel: digest.Date.Format(dateLabel),
		Empty:     digest.Empty(),
		Updated:   lines(digest.Updated),
		Created:   lines(digest.Created),
	}

	var buf bytes.Buffer
	if err := updateTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("digest: render: %w", err)
	}
	return buf.String(), nil
}

func lines(dishes []catalog.Dish) []dishLine {
	result := make([]dishLine, 0, len(dishes))
	for _, dish := range dishes {
		result = append(result, dishLine{
			Name:        dish.Name,
			Description: dish.Description,
			Price:       dish.Price.StringFixed(2),
			PrepTime:    dish.PrepTime,
			Vegetarian:  dish.IsVegetarian,
		})
	}
	return result
}
