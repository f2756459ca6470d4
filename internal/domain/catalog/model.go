package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Dish struct {
	ID           int64           `gorm:"primaryKey"`
	AuthorID     int64           `gorm:"not null;index"`
	Name         string          `gorm:"size:255;not null"`
	Description  string          `gorm:"size:1500;not null"`
	Price        decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	PrepTime     int             `gorm:"not null"`
	IsVegetarian bool            `gorm:"not null"`
	Image        string          `gorm:"not null;default:''"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`

	// MenuIDs is the reverse side of menu_dishes; nil when not loaded.
	MenuIDs []int64 `gorm:"-"`
}

type Menu struct {
	ID          int64     `gorm:"primaryKey"`
	AuthorID    int64     `gorm:"not null;index"`
	Name        string    `gorm:"size:255;not null;uniqueIndex:menus_name_key"`
	Description string    `gorm:"size:1500;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	Dishes      []Dish    `gorm:"many2many:menu_dishes;"`
	DishCount   int64     `gorm:"->"`
}

// MenuDish is a row of the menu/dish association table.
type MenuDish struct {
	MenuID int64 `gorm:"primaryKey"`
	DishID int64 `gorm:"primaryKey"`
}

func (MenuDish) TableName() string {
	return "menu_dishes"
}

func (m Menu) DishIDs() []int64 {
	ids := make([]int64, 0, len(m.Dishes))
	for _, dish := range m.Dishes {
		ids = append(ids, dish.ID)
	}
	return ids
}

// MenuInput carries a menu write. Nil fields are absent from the request body.
type MenuInput struct {
	Name        *string  `json:"name" validate:"omitnil,notblank,max=255"`
	Description *string  `json:"description" validate:"omitnil,notblank,max=1500"`
	Dishes      *[]int64 `json:"dishes"`
}

type DishInput struct {
	Name         *string          `json:"name" validate:"omitnil,notblank,max=255"`
	Description  *string          `json:"description" validate:"omitnil,notblank,max=1500"`
	Price        *decimal.Decimal `json:"price"`
	PrepTime     *int             `json:"prep_time" validate:"omitnil,gte=0"`
	IsVegetarian *bool            `json:"is_vegetarian"`
}
