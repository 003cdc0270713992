package serializers

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxRecipeNameLength = 256

// Messages reported by RecipeWrite.Validate. Each failure has its own text.
const (
	MsgRequired            = "This field is required."
	MsgBlank               = "This field may not be blank."
	MsgNameTooLong         = "Ensure this field has no more than 256 characters."
	MsgNoTags              = "At least one tag is required."
	MsgDuplicateTag        = "Tag %d is listed more than once."
	MsgNoIngredients       = "At least one ingredient is required."
	MsgDuplicateIngredient = "Ingredient %d is listed more than once."
	MsgAmountTooSmall      = "Amount of ingredient %d must be at least 1."
	MsgCookingTimeTooSmall = "Cooking time must be at least 1 minute."
	MsgCookingTimeTooLarge = "Cooking time must not exceed %d minutes."
	MsgInvalidImage        = "Upload a valid base64 encoded image."
)

// IngredientAmountWrite is one entry of the ingredients list in a write payload
type IngredientAmountWrite struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeWrite is the payload accepted by recipe create and update.
type RecipeWrite struct {
	Ingredients []IngredientAmountWrite `json:"ingredients"`
	Tags        []uint                  `json:"tags"`
	Image       *string                 `json:"image"`
	Name        *string                 `json:"name"`
	Text        *string                 `json:"text"`
	CookingTime *int                    `json:"cooking_time"`
}

// WriteRules carries the limits that depend on the operation and configuration
type WriteRules struct {
	MaxCookingTime int
	// RequireImage is set on create; updates keep the stored image when it is omitted
	RequireImage bool
}

// IngredientAmount is a validated (ingredient, amount) pair
type IngredientAmount struct {
	IngredientID uint
	Amount       int
}

// RecipeInput is a validated write payload, ready to be persisted.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	// Image is nil when the stored image must be kept
	Image       *Image
	TagIDs      []uint
	Ingredients []IngredientAmount
}

// Validate checks the payload shape and returns the persisted form. The
// returned error, when not nil, is a FieldErrors.
func (w RecipeWrite) Validate(rules WriteRules) (RecipeInput, error) {
	errs := FieldErrors{}
	var in RecipeInput

	switch {
	case w.Name == nil:
		errs.Add("name", MsgRequired)
	case strings.TrimSpace(*w.Name) == "":
		errs.Add("name", MsgBlank)
	case utf8.RuneCountInString(*w.Name) > maxRecipeNameLength:
		errs.Add("name", MsgNameTooLong)
	default:
		in.Name = strings.TrimSpace(*w.Name)
	}

	switch {
	case w.Text == nil:
		errs.Add("text", MsgRequired)
	case strings.TrimSpace(*w.Text) == "":
		errs.Add("text", MsgBlank)
	default:
		in.Text = *w.Text
	}

	switch {
	case w.CookingTime == nil:
		errs.Add("cooking_time", MsgRequired)
	case *w.CookingTime < 1:
		errs.Add("cooking_time", MsgCookingTimeTooSmall)
	case *w.CookingTime > rules.MaxCookingTime:
		errs.Add("cooking_time", fmt.Sprintf(MsgCookingTimeTooLarge, rules.MaxCookingTime))
	default:
		in.CookingTime = *w.CookingTime
	}

	if w.Image == nil || *w.Image == "" {
		if rules.RequireImage {
			errs.Add("image", MsgRequired)
		}
	} else if img, err := DecodeBase64Image(*w.Image); err != nil {
		errs.Add("image", MsgInvalidImage)
	} else {
		in.Image = img
	}

	switch {
	case w.Tags == nil:
		errs.Add("tags", MsgRequired)
	case len(w.Tags) == 0:
		errs.Add("tags", MsgNoTags)
	default:
		seen := make(map[uint]bool, len(w.Tags))
		for _, id := range w.Tags {
			if seen[id] {
				errs.Add("tags", fmt.Sprintf(MsgDuplicateTag, id))
				continue
			}
			seen[id] = true
			in.TagIDs = append(in.TagIDs, id)
		}
	}

	switch {
	case w.Ingredients == nil:
		errs.Add("ingredients", MsgRequired)
	case len(w.Ingredients) == 0:
		errs.Add("ingredients", MsgNoIngredients)
	default:
		seen := make(map[uint]bool, len(w.Ingredients))
		for _, item := range w.Ingredients {
			if seen[item.ID] {
				errs.Add("ingredients", fmt.Sprintf(MsgDuplicateIngredient, item.ID))
				continue
			}
			seen[item.ID] = true
			if item.Amount < 1 {
				errs.Add("ingredients", fmt.Sprintf(MsgAmountTooSmall, item.ID))
				continue
			}
			in.Ingredients = append(in.Ingredients, IngredientAmount{IngredientID: item.ID, Amount: item.Amount})
		}
	}

	if err := errs.Err(); err != nil {
		return RecipeInput{}, err
	}
	return in, nil
}
