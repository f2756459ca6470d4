package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catalogdomain "menu-app-go/internal/domain/catalog"
)

const dishCountExpr = "(SELECT COUNT(*) FROM menu_dishes WHERE menu_dishes.menu_id = menus.id)"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(catalogdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) menus(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&catalogdomain.Menu{}).
		Select("menus.*, "+dishCountExpr+" AS dish_count").
		Preload("Dishes", func(db *gorm.DB) *gorm.DB {
			return db.Order("dishes.id ASC")
		})
}

func (r *PostgresRepository) ListMenus(ctx context.Context, query catalogdomain.MenuQuery) ([]catalogdomain.Menu, error) {
	var menus []catalogdomain.Menu
	err := r.menus(ctx).
		Scopes(menuFilters(query), menuOrdering(query.Ordering)).
		Find(&menus).Error
	if err != nil {
		return nil, err
	}
	return menus, nil
}

func menuFilters(query catalogdomain.MenuQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if name := strings.TrimSpace(query.Name); name != "" {
			db = db.Where(`LOWER(menus.name) LIKE LOWER(?) ESCAPE '\'`, containsPattern(name))
		}
		if search := strings.TrimSpace(query.Search); search != "" {
			pattern := containsPattern(search)
			db = db.Where(`(LOWER(menus.name) LIKE LOWER(?) ESCAPE '\' OR LOWER(menus.description) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern)
		}
		db = timeBounds(db, "menus.created_at", query.CreatedFrom, query.CreatedTo)
		db = timeBounds(db, "menus.updated_at", query.UpdatedFrom, query.UpdatedTo)
		if query.UpdatedAt != nil {
			db = db.Where("menus.updated_at = ?", *query.UpdatedAt)
		}
		if query.MinDishes != nil {
			db = db.Where(dishCountExpr+" >= ?", *query.MinDishes)
		}
		if query.MaxDishes != nil {
			db = db.Where(dishCountExpr+" <= ?", *query.MaxDishes)
		}
		return db
	}
}

func menuOrdering(keys []catalogdomain.OrderKey) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, key := range keys {
			column := "menus." + key.Field
			if key.Field == "dish_count" {
				column = dishCountExpr
			}
			db = db.Order(column + direction(key.Desc))
		}
		return db.Order("menus.id ASC")
	}
}

func direction(desc bool) string {
	if desc {
		return " DESC"
	}
	return " ASC"
}

func timeBounds(db *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		db = db.Where(column+" >= ?", *from)
	}
	if to != nil {
		db = db.Where(column+" <= ?", *to)
	}
	return db
}

func containsPattern(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + replacer.Replace(value) + "%"
}

func (r *PostgresRepository) GetMenu(ctx context.Context, id int64) (*catalogdomain.Menu, error) {
	var menu catalogdomain.Menu
	if err := r.menus(ctx).Where("menus.id = ?", id).First(&menu).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogdomain.ErrMenuNotFound
		}
		return nil, err
	}
	return &menu, nil
}

func (r *PostgresRepository) MenuNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&catalogdomain.Menu{}).
		Where("name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CreateMenu(ctx context.Context, menu *catalogdomain.Menu) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(menu).Error
	return translateMenuError(err)
}

func (r *PostgresRepository) UpdateMenu(ctx context.Context, menu *catalogdomain.Menu) error {
	err := r.db.WithContext(ctx).
		Model(&catalogdomain.Menu{ID: menu.ID}).
		Updates(map[string]interface{}{
			"name":        menu.Name,
			"description": menu.Description,
			"updated_at":  r.db.NowFunc(),
		}).Error
	return translateMenuError(err)
}

func translateMenuError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return catalogdomain.ErrDuplicateMenuName
	}
	return err
}

func (r *PostgresRepository) SetMenuDishes(ctx context.Context, menuID int64, dishIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("menu_id = ?", menuID).Delete(&catalogdomain.MenuDish{}).Error; err != nil {
		return err
	}
	if len(dishIDs) == 0 {
		return nil
	}

	rows := make([]catalogdomain.MenuDish, 0, len(dishIDs))
	for _, dishID := range dishIDs {
		rows = append(rows, catalogdomain.MenuDish{MenuID: menuID, DishID: dishID})
	}
	return db.Create(&rows).Error
}

func (r *PostgresRepository) DeleteMenu(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("menu_id = ?", id).Delete(&catalogdomain.MenuDish{}).Error; err != nil {
		return err
	}
	result := db.Delete(&catalogdomain.Menu{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalogdomain.ErrMenuNotFound
	}
	return nil
}

var dishColumns = map[string]string{
	"id":         "dishes.id",
	"name":       "dishes.name",
	"price":      "dishes.price",
	"prep_time":  "dishes.prep_time",
	"created_at": "dishes.created_at",
	"updated_at": "dishes.updated_at",
}

func (r *PostgresRepository) ListDishes(ctx context.Context, query catalogdomain.DishQuery) ([]catalogdomain.Dish, error) {
	db := r.db.WithContext(ctx).Model(&catalogdomain.Dish{})
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := containsPattern(search)
		db = db.Where(`(LOWER(dishes.name) LIKE LOWER(?) ESCAPE '\' OR LOWER(dishes.description) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern)
	}
	if query.IsVegetarian != nil {
		db = db.Where("dishes.is_vegetarian = ?", *query.IsVegetarian)
	}
	for _, key := range query.Ordering {
		column, ok := dishColumns[key.Field]
		if !ok {
			continue
		}
		db = db.Order(column + direction(key.Desc))
	}
	db = db.Order("dishes.id ASC")

	var dishes []catalogdomain.Dish
	if err := db.Find(&dishes).Error; err != nil {
		return nil, err
	}
	if err := r.attachMenuIDs(ctx, dishes); err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *PostgresRepository) attachMenuIDs(ctx context.Context, dishes []catalogdomain.Dish) error {
	if len(dishes) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(dishes))
	for _, dish := range dishes {
		ids = append(ids, dish.ID)
	}

	var links []catalogdomain.MenuDish
	err := r.db.WithContext(ctx).
		Where("dish_id IN ?", ids).
		Order("menu_id ASC").
		Find(&links).Error
	if err != nil {
		return err
	}

	byDish := make(map[int64][]int64, len(dishes))
	for _, link := range links {
		byDish[link.DishID] = append(byDish[link.DishID], link.MenuID)
	}
	for i := range dishes {
		dishes[i].MenuIDs = byDish[dishes[i].ID]
		if dishes[i].MenuIDs == nil {
			dishes[i].MenuIDs = []int64{}
		}
	}
	return nil
}

func (r *PostgresRepository) GetDish(ctx context.Context, id int64) (*catalogdomain.Dish, error) {
	var dish catalogdomain.Dish
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dish).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogdomain.ErrDishNotFound
		}
		return nil, err
	}
	dishes := []catalogdomain.Dish{dish}
	if err := r.attachMenuIDs(ctx, dishes); err != nil {
		return nil, err
	}
	return &dishes[0], nil
}

func (r *PostgresRepository) FindDishIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []int64
	err := r.db.WithContext(ctx).
		Model(&catalogdomain.Dish{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *PostgresRepository) CreateDish(ctx context.Context, dish *catalogdomain.Dish) error {
	return r.db.WithContext(ctx).Create(dish).Error
}

func (r *PostgresRepository) UpdateDish(ctx context.Context, dish *catalogdomain.Dish) error {
	return r.db.WithContext(ctx).
		Model(&catalogdomain.Dish{ID: dish.ID}).
		Updates(map[string]interface{}{
			"name":          dish.Name,
			"description":   dish.Description,
			"price":         dish.Price,
			"prep_time":     dish.PrepTime,
			"is_vegetarian": dish.IsVegetarian,
			"image":         dish.Image,
			"updated_at":    r.db.NowFunc(),
		}).Error
}

func (r *PostgresRepository) DeleteDish(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("dish_id = ?", id).Delete(&catalogdomain.MenuDish{}).Error; err != nil {
		return err
	}
	result := db.Delete(&catalogdomain.Dish{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalogdomain.ErrDishNotFound
	}
	return nil
}

// DishesCreatedBetween lists dishes with from <= created_at < to.
func (r *PostgresRepository) DishesCreatedBetween(ctx context.Context, from, to time.Time) ([]catalogdomain.Dish, error) {
	return r.dishesBetween(ctx, "created_at", from, to)
}

// DishesUpdatedBetween lists dishes with from <= updated_at < to.
func (r *PostgresRepository) DishesUpdatedBetween(ctx context.Context, from, to time.Time) ([]catalogdomain.Dish, error) {
	return r.dishesBetween(ctx, "updated_at", from, to)
}

func (r *PostgresRepository) dishesBetween(ctx context.Context, column string, from, to time.Time) ([]catalogdomain.Dish, error) {
	var dishes []catalogdomain.Dish
	err := r.db.WithContext(ctx).
		Where(column+" >= ? AND "+column+" < ?", from.UTC(), to.UTC()).
		Order("id ASC").
		Find(&dishes).Error
	if err != nil {
		return nil, err
	}
	return dishes, nil
}
