package catalog

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	ListMenus(ctx context.Context, query MenuQuery) ([]Menu, error)
	GetMenu(ctx context.Context, id int64) (*Menu, error)
	MenuNameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	CreateMenu(ctx context.Context, menu *Menu) error
	UpdateMenu(ctx context.Context, menu *Menu) error
	SetMenuDishes(ctx context.Context, menuID int64, dishIDs []int64) error
	DeleteMenu(ctx context.Context, id int64) error

	ListDishes(ctx context.Context, query DishQuery) ([]Dish, error)
	GetDish(ctx context.Context, id int64) (*Dish, error)
	FindDishIDs(ctx context.Context, ids []int64) ([]int64, error)
	CreateDish(ctx context.Context, dish *Dish) error
	UpdateDish(ctx context.Context, dish *Dish) error
	DeleteDish(ctx context.Context, id int64) error
}
