package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

const (
	shoppingListHeader = "---------СПИСОК ПОКУПОК---------\n" +
		"================================\n"
	shoppingListFooter = "================================\n" +
		"----------FOODGRAM (ↄ)----------"
)

// CartLink is one ingredient line of one recipe in a user's cart.
type CartLink struct {
	IngredientID uint
	Name         string
	Unit         string
	Amount       int
}

// ShoppingListItem is one summed line of the exported list.
type ShoppingListItem struct {
	IngredientID uint
	Name         string
	Unit         string
	Amount       int
}

// ShoppingList is a rendered export.
type ShoppingList struct {
	Filename string
	Content  []byte
	Items    []ShoppingListItem
}

type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Export renders the shopping list of userID.
func (s *ShoppingListService) Export(ctx context.Context, userID uint) (*ShoppingList, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	links, err := s.CartLinks(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := AggregateCart(links)
	metrics.RecordShoppingListExport(len(items))
	return &ShoppingList{
		Filename: user.Username + "_shopping_cart.txt",
		Content:  []byte(RenderShoppingList(items)),
		Items:    items,
	}, nil
}

// CartLinks returns every ingredient line of every recipe in the user's cart,
// recipes newest first and lines in recipe order.
func (s *ShoppingListService) CartLinks(ctx context.Context, userID uint) ([]CartLink, error) {
	var links []CartLink
	err := s.db.WithContext(ctx).
		Table("shopping_cart_entries AS sc").
		Select("ri.ingredient_id AS ingredient_id, i.name AS name, mu.name AS unit, ri.amount AS amount").
		Joins("JOIN recipes r ON r.id = sc.recipe_id").
		Joins("JOIN recipe_ingredients ri ON ri.recipe_id = r.id").
		Joins("JOIN ingredients i ON i.id = ri.ingredient_id").
		Joins("JOIN measurement_units mu ON mu.id = i.measurement_unit_id").
		Where("sc.user_id = ?", userID).
		Order("r.created_at DESC, r.id DESC, ri.id").
		Scan(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping cart ingredients: %w", err)
	}
	return links, nil
}

// AggregateCart sums amounts per ingredient id. Items keep the order in which
// each ingredient was first seen.
func AggregateCart(links []CartLink) []ShoppingListItem {
	index := make(map[uint]int, len(links))
	items := make([]ShoppingListItem, 0, len(links))
	for _, l := range links {
		if i, ok := index[l.IngredientID]; ok {
			items[i].Amount += l.Amount
			continue
		}
		index[l.IngredientID] = len(items)
		items = append(items, ShoppingListItem(l))
	}
	return items
}

// RenderShoppingList formats items between the fixed header and footer.
func RenderShoppingList(items []ShoppingListItem) string {
	var b strings.Builder
	b.WriteString(shoppingListHeader)
	for _, it := range items {
		fmt.Fprintf(&b, "%s - %d %s\n", it.Name, it.Amount, it.Unit)
	}
	b.WriteString(shoppingListFooter)
	return b.String()
}
