package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"menu-app-go/internal/domain/access"
)

type Service struct {
	repo      Repository
	validator *Validator
	cache     ListingCache
	cacheTTL  time.Duration
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validator: NewValidator(), cache: noopListingCache{}}
}

// WithListingCache caches menu listings for ttl; every catalog write clears it.
func (s *Service) WithListingCache(cache ListingCache, ttl time.Duration) *Service {
	if cache == nil || ttl <= 0 {
		s.cache = noopListingCache{}
		return s
	}
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

func (s *Service) ListMenus(ctx context.Context, query MenuQuery) ([]Menu, error) {
	key := query.Key()
	if menus, ok := s.cache.GetMenus(key); ok {
		return menus, nil
	}

	generation := s.cache.Generation()
	menus, err := s.repo.ListMenus(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.SetMenus(key, menus, s.cacheTTL, generation)
	return menus, nil
}

// written drops cached listings once a write has committed.
func (s *Service) written(err error) error {
	if err == nil {
		s.cache.Clear()
	}
	return err
}

// GetMenu loads a menu, then checks the caller may read it under policy.
func (s *Service) GetMenu(ctx context.Context, caller access.Caller, policy access.Policy, id int64) (*Menu, error) {
	menu, err := s.repo.GetMenu(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.Allow(policy, caller, http.MethodGet, menu.AuthorID) {
		return nil, ErrPermissionDenied
	}
	return menu, nil
}

func (s *Service) CreateMenu(ctx context.Context, caller access.Caller, input MenuInput) (*Menu, error) {
	if !caller.Authenticated() {
		return nil, ErrPermissionDenied
	}

	input = trimMenuInput(input)
	if err := s.validator.Menu(input, false).OrNil(); err != nil {
		return nil, err
	}

	menu := Menu{
		AuthorID:    caller.ID,
		Name:        *input.Name,
		Description: *input.Description,
	}

	var created *Menu
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		dishIDs, err := s.checkMenuWrite(ctx, tx, input, 0)
		if err != nil {
			return err
		}
		if err := tx.CreateMenu(ctx, &menu); err != nil {
			return mapMenuWriteError(err)
		}
		if err := tx.SetMenuDishes(ctx, menu.ID, dishIDs); err != nil {
			return err
		}
		created, err = tx.GetMenu(ctx, menu.ID)
		return err
	})
	if err := s.written(err); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateMenu applies a full (PUT) or partial (PATCH) write. Not found wins over
// permission denied.
func (s *Service) UpdateMenu(ctx context.Context, caller access.Caller, policy access.Policy, id int64, input MenuInput, partial bool) (*Menu, error) {
	var updated *Menu
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		menu, err := tx.GetMenu(ctx, id)
		if err != nil {
			return err
		}
		if !access.Allow(policy, caller, writeMethod(partial), menu.AuthorID) {
			return ErrPermissionDenied
		}

		input = trimMenuInput(input)
		if err := s.validator.Menu(input, partial).OrNil(); err != nil {
			return err
		}
		dishIDs, err := s.checkMenuWrite(ctx, tx, input, menu.ID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			menu.Name = *input.Name
		}
		if input.Description != nil {
			menu.Description = *input.Description
		}
		if err := tx.UpdateMenu(ctx, menu); err != nil {
			return mapMenuWriteError(err)
		}
		if input.Dishes != nil || !partial {
			if err := tx.SetMenuDishes(ctx, menu.ID, dishIDs); err != nil {
				return err
			}
		}

		updated, err = tx.GetMenu(ctx, menu.ID)
		return err
	})
	if err := s.written(err); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteMenu(ctx context.Context, caller access.Caller, policy access.Policy, id int64) error {
	return s.written(s.repo.Transaction(ctx, func(tx Repository) error {
		menu, err := tx.GetMenu(ctx, id)
		if err != nil {
			return err
		}
		if !access.Allow(policy, caller, http.MethodDelete, menu.AuthorID) {
			return ErrPermissionDenied
		}
		return tx.DeleteMenu(ctx, menu.ID)
	}))
}

// checkMenuWrite enforces name uniqueness and resolves the referenced dishes.
func (s *Service) checkMenuWrite(ctx context.Context, repo Repository, input MenuInput, menuID int64) ([]int64, error) {
	verr := NewValidationError()

	if input.Name != nil {
		exists, err := repo.MenuNameExists(ctx, *input.Name, menuID)
		if err != nil {
			return nil, err
		}
		if exists {
			verr.Add("name", msgMenuNameUsed)
		}
	}

	var dishIDs []int64
	if input.Dishes != nil {
		dishIDs = uniqueIDs(*input.Dishes)
		found, err := repo.FindDishIDs(ctx, dishIDs)
		if err != nil {
			return nil, err
		}
		known := make(map[int64]bool, len(found))
		for _, id := range found {
			known[id] = true
		}
		for _, id := range dishIDs {
			if !known[id] {
				verr.Add("dishes", fmt.Sprintf("Invalid dish id %d.", id))
			}
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return dishIDs, nil
}

func mapMenuWriteError(err error) error {
	if errors.Is(err, ErrDuplicateMenuName) {
		return FieldError("name", msgMenuNameUsed)
	}
	return err
}

func (s *Service) ListDishes(ctx context.Context, query DishQuery) ([]Dish, error) {
	return s.repo.ListDishes(ctx, query)
}

func (s *Service) GetDish(ctx context.Context, caller access.Caller, policy access.Policy, id int64) (*Dish, error) {
	dish, err := s.repo.GetDish(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.Allow(policy, caller, http.MethodGet, dish.AuthorID) {
		return nil, ErrPermissionDenied
	}
	return dish, nil
}

func (s *Service) CreateDish(ctx context.Context, caller access.Caller, input DishInput) (*Dish, error) {
	if !caller.Authenticated() {
		return nil, ErrPermissionDenied
	}

	input = trimDishInput(input)
	if err := s.validator.Dish(input, false).OrNil(); err != nil {
		return nil, err
	}

	dish := Dish{
		AuthorID:     caller.ID,
		Name:         *input.Name,
		Description:  *input.Description,
		Price:        *input.Price,
		PrepTime:     *input.PrepTime,
		IsVegetarian: *input.IsVegetarian,
	}
	if err := s.written(s.repo.CreateDish(ctx, &dish)); err != nil {
		return nil, err
	}
	return s.repo.GetDish(ctx, dish.ID)
}

func (s *Service) UpdateDish(ctx context.Context, caller access.Caller, policy access.Policy, id int64, input DishInput, partial bool) (*Dish, error) {
	var updated *Dish
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		dish, err := tx.GetDish(ctx, id)
		if err != nil {
			return err
		}
		if !access.Allow(policy, caller, writeMethod(partial), dish.AuthorID) {
			return ErrPermissionDenied
		}

		input = trimDishInput(input)
		if err := s.validator.Dish(input, partial).OrNil(); err != nil {
			return err
		}

		if input.Name != nil {
			dish.Name = *input.Name
		}
		if input.Description != nil {
			dish.Description = *input.Description
		}
		if input.Price != nil {
			dish.Price = *input.Price
		}
		if input.PrepTime != nil {
			dish.PrepTime = *input.PrepTime
		}
		if input.IsVegetarian != nil {
			dish.IsVegetarian = *input.IsVegetarian
		}
		if err := tx.UpdateDish(ctx, dish); err != nil {
			return err
		}

		updated, err = tx.GetDish(ctx, dish.ID)
		return err
	})
	if err := s.written(err); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteDish(ctx context.Context, caller access.Caller, policy access.Policy, id int64) error {
	return s.written(s.repo.Transaction(ctx, func(tx Repository) error {
		dish, err := tx.GetDish(ctx, id)
		if err != nil {
			return err
		}
		if !access.Allow(policy, caller, http.MethodDelete, dish.AuthorID) {
			return ErrPermissionDenied
		}
		return tx.DeleteDish(ctx, dish.ID)
	}))
}

// AuthorizeDishImage returns the dish when the caller may replace its image.
func (s *Service) AuthorizeDishImage(ctx context.Context, caller access.Caller, id int64) (*Dish, error) {
	dish, err := s.repo.GetDish(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.Allow(access.Strict, caller, http.MethodPut, dish.AuthorID) {
		return nil, ErrPermissionDenied
	}
	return dish, nil
}

func (s *Service) SetDishImage(ctx context.Context, id int64, imageURL string) (*Dish, error) {
	var updated *Dish
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		dish, err := tx.GetDish(ctx, id)
		if err != nil {
			return err
		}
		dish.Image = imageURL
		if err := tx.UpdateDish(ctx, dish); err != nil {
			return err
		}
		updated, err = tx.GetDish(ctx, id)
		return err
	})
	if err := s.written(err); err != nil {
		return nil, err
	}
	return updated, nil
}

func writeMethod(partial bool) string {
	if partial {
		return http.MethodPatch
	}
	return http.MethodPut
}

func trimMenuInput(input MenuInput) MenuInput {
	input.Name = trimmed(input.Name)
	input.Description = trimmed(input.Description)
	return input
}

func trimDishInput(input DishInput) DishInput {
	input.Name = trimmed(input.Name)
	input.Description = trimmed(input.Description)
	return input
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	result := strings.TrimSpace(*value)
	return &result
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
