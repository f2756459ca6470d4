package catalog

import (
	"time"
)

type ProjectionMode int

const (
	// ProjectionNested embeds dish objects; used by reads.
	ProjectionNested ProjectionMode = iota
	// ProjectionIDs lists dish ids; used by write responses.
	ProjectionIDs
)

type DishView struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	PrepTime     int       `json:"prep_time"`
	IsVegetarian bool      `json:"is_vegetarian"`
	Image        *string   `json:"image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Menus        *[]int64  `json:"menus,omitempty"`
}

// MenuView.Dishes holds []DishView or []int64 depending on the mode.
type MenuView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Dishes      any       `json:"dishes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ProjectMenus(menus []Menu, mode ProjectionMode) []MenuView {
	views := make([]MenuView, 0, len(menus))
	for _, menu := range menus {
		views = append(views, ProjectMenu(menu, mode))
	}
	return views
}

func ProjectMenu(menu Menu, mode ProjectionMode) MenuView {
	view := MenuView{
		ID:          menu.ID,
		Name:        menu.Name,
		Description: menu.Description,
		CreatedAt:   menu.CreatedAt,
		UpdatedAt:   menu.UpdatedAt,
	}

	switch mode {
	case ProjectionIDs:
		view.Dishes = menu.DishIDs()
	default:
		dishes := make([]DishView, 0, len(menu.Dishes))
		for _, dish := range menu.Dishes {
			dishes = append(dishes, ProjectDish(dish))
		}
		view.Dishes = dishes
	}
	return view
}

func ProjectDishes(dishes []Dish) []DishView {
	views := make([]DishView, 0, len(dishes))
	for _, dish := range dishes {
		views = append(views, ProjectDish(dish))
	}
	return views
}

func ProjectDish(dish Dish) DishView {
	view := DishView{
		ID:           dish.ID,
		Name:         dish.Name,
		Description:  dish.Description,
		Price:        dish.Price.StringFixed(2),
		PrepTime:     dish.PrepTime,
		IsVegetarian: dish.IsVegetarian,
		CreatedAt:    dish.CreatedAt,
		UpdatedAt:    dish.UpdatedAt,
	}
	if dish.MenuIDs != nil {
		menus := dish.MenuIDs
		view.Menus = &menus
	}
	if dish.Image != "" {
		image := dish.Image
		view.Image = &image
	}
	return view
}
