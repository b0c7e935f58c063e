package types

import "encoding/json"

type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// IngredientAmountResponse is one ingredient line of a recipe. ID is the
// ingredient id, not the link id.
type IngredientAmountResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Author           UserResponse               `json:"author"`
	Tags             []TagResponse              `json:"tags"`
	Name             string                     `json:"name"`
	Text             string                     `json:"text"`
	Image            string                     `json:"image"`
	Ingredients      []IngredientAmountResponse `json:"ingredients"`
	CookingTime      int                        `json:"cooking_time"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
}

// RecipeShortResponse is used by favorite, cart and subscription responses.
type RecipeShortResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// IngredientAmountInput is one submitted ingredient line. Amount is kept raw
// so both 5 and "5" are accepted.
type IngredientAmountInput struct {
	ID     uint            `json:"id"`
	Amount json.RawMessage `json:"amount"`
}

// RecipeWriteRequest is the body of recipe create and partial update. Nil
// fields are left unchanged on update.
type RecipeWriteRequest struct {
	Ingredients *[]IngredientAmountInput `json:"ingredients"`
	Tags        *[]uint                  `json:"tags"`
	Image       *string                  `json:"image"`
	Name        *string                  `json:"name"`
	Text        *string                  `json:"text"`
	CookingTime *int                     `json:"cooking_time"`
}

// RecipeFilter holds the list query parameters. Nil flags are not applied.
type RecipeFilter struct {
	AuthorID         *uint
	Tags             []string
	IsFavorited      *bool
	IsInShoppingCart *bool
}

// Page is the paginated list envelope.
type Page struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}
