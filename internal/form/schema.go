package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"catalog/internal/models"
)

// Field names, also used as HTML input names.
const (
	FieldTitle       = "title"
	FieldPrice       = "price"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldImage       = "image"
)

// Rule is one constraint on one field. Tag is a validator tag such as "max=30".
type Rule struct {
	Field   string
	Tag     string
	Message string
}

// Schema is an ordered rule set. Rules are checked independently so every violation is reported.
type Schema []Rule

// Violation is a failed rule.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string { return v.Message }

// ProductSchema validates both the create and the edit form.
var ProductSchema = Schema{
	{FieldTitle, "required", "O título é obrigatório."},
	{FieldTitle, fmt.Sprintf("max=%d", models.TitleMaxLen),
		fmt.Sprintf("O título não pode ter mais de %d caracteres.", models.TitleMaxLen)},
	{FieldPrice, "gte=0", "O preço não pode ser negativo."},
	{FieldDescription, "required", "A descrição é obrigatória."},
	{FieldCategory, "required", "A categoria é obrigatória."},
	{FieldImage, "required", "A URL da imagem é obrigatória."},
	{FieldImage, "omitempty,url", "A imagem deve ser uma URL válida."},
}

var validate = validator.New()

// Draft holds raw form input before coercion.
type Draft struct {
	Title       string
	Price       string
	Description string
	Category    string
	Image       string
}

// DraftOf fills a draft from an existing product, for the edit form.
func DraftOf(p models.Product) Draft {
	return Draft{
		Title:       p.Title,
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
	}
}

// Coerce trims the draft and converts the price. A price that is not a number
// is reported instead of becoming zero.
func Coerce(d Draft) (models.ProductInput, []Violation) {
	in := models.ProductInput{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Category:    strings.TrimSpace(d.Category),
		Image:       strings.TrimSpace(d.Image),
	}

	raw := strings.ReplaceAll(strings.TrimSpace(d.Price), ",", ".")
	if raw == "" {
		return in, []Violation{{FieldPrice, "O preço é obrigatório."}}
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(price, 0) || math.IsNaN(price) {
		return in, []Violation{{FieldPrice, "O preço deve ser um número."}}
	}
	in.Price = price
	return in, nil
}

// Validate runs every rule against in, skipping fields listed in skip.
func (s Schema) Validate(in models.ProductInput, skip ...string) []Violation {
	var out []Violation
	for _, r := range s {
		if contains(skip, r.Field) {
			continue
		}
		if err := validate.Var(fieldValue(in, r.Field), r.Tag); err != nil {
			out = append(out, Violation{Field: r.Field, Message: r.Message})
		}
	}
	return out
}

// Check coerces and validates d, returning all violations.
func (s Schema) Check(d Draft) (models.ProductInput, []Violation) {
	in, violations := Coerce(d)
	var skip []string
	for _, v := range violations {
		skip = append(skip, v.Field)
	}
	violations = append(violations, s.Validate(in, skip...)...)
	return in, violations
}

func fieldValue(in models.ProductInput, field string) any {
	switch field {
	case FieldTitle:
		return in.Title
	case FieldPrice:
		return in.Price
	case FieldDescription:
		return in.Description
	case FieldCategory:
		return in.Category
	case FieldImage:
		return in.Image
	}
	panic("form: unknown field " + field)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
