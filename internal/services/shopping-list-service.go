package services

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
)

const (
	shoppingListHeader = "Shopping list"
	shoppingListFont   = "DejaVu"
)

// Ingredient names are stored in whatever script the catalog was loaded
// with, so the list is set in a Unicode font rather than a cp1252 core font.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejaVuRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	dejaVuBold []byte
)

// ShoppingLine is one (ingredient name, unit) group of the shopping list
type ShoppingLine struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

func (l ShoppingLine) String() string {
	return fmt.Sprintf("- %s: %d %s", l.Name, l.Amount, l.MeasurementUnit)
}

type ShoppingListService interface {
	// Lines sums the ingredient amounts of every recipe in the user's cart
	Lines(ctx context.Context, userID uint) ([]ShoppingLine, error)
	// WritePDF renders the user's shopping list as a PDF document
	WritePDF(ctx context.Context, userID uint, w io.Writer) error
}

type shoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) ShoppingListService {
	return &shoppingListService{db: db}
}

func (s *shoppingListService) Lines(ctx context.Context, userID uint) ([]ShoppingLine, error) {
	db := s.db.WithContext(ctx)
	cart := db.Model(&models.Cart{}).Select("recipe_id").Where("user_id = ?", userID)

	lines := []ShoppingLine{}
	err := db.Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN (?)", cart).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}
	return lines, nil
}

func (s *shoppingListService) WritePDF(ctx context.Context, userID uint, w io.Writer) error {
	lines, err := s.Lines(ctx, userID)
	if err != nil {
		return err
	}
	return renderPDF(lines, w)
}

// RenderShoppingList returns the plain text form: the header followed by one
// line per group
func RenderShoppingList(lines []ShoppingLine) string {
	var b strings.Builder
	b.WriteString(shoppingListHeader)
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(l.String())
	}
	return b.String()
}

func renderPDF(lines []ShoppingLine, w io.Writer) error {
	pdf := newShoppingListPDF(lines)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render shopping list: %w", err)
	}
	return pdf.Output(w)
}

func newShoppingListPDF(lines []ShoppingLine) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(shoppingListFont, "", dejaVuRegular)
	pdf.AddUTF8FontFromBytes(shoppingListFont, "B", dejaVuBold)
	pdf.SetTitle(shoppingListHeader, true)
	pdf.SetAutoPageBreak(true, 15)

	pdf.AddPage()
	pdf.SetFont(shoppingListFont, "B", 16)
	pdf.CellFormat(0, 10, shoppingListHeader, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(shoppingListFont, "", 12)
	for _, l := range lines {
		pdf.MultiCell(0, 7, l.String(), "", "L", false)
	}
	return pdf
}
