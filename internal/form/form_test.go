package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/internal/models"
)

func validDraft() Draft {
	return Draft{
		Title:       "Novo Produto",
		Price:       "99.99",
		Description: "Uma descrição de teste",
		Category:    "Categoria X",
		Image:       "http://example.com/image.png",
	}
}

func messages(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Message
	}
	return out
}

func TestCheck_Valid(t *testing.T) {
	in, violations := ProductSchema.Check(validDraft())
	require.Empty(t, violations)
	assert.Equal(t, models.ProductInput{
		Title:       "Novo Produto",
		Price:       99.99,
		Description: "Uma descrição de teste",
		Category:    "Categoria X",
		Image:       "http://example.com/image.png",
	}, in)
}

func TestCheck_TitleTooLong(t *testing.T) {
	d := validDraft()
	d.Title = strings.Repeat("x", 31)

	_, violations := ProductSchema.Check(d)
	require.Len(t, violations, 1)
	assert.Equal(t, FieldTitle, violations[0].Field)
	assert.Contains(t, violations[0].Message, "30")
}

func TestCheck_TitleOf30AccentedCharsIsValid(t *testing.T) {
	d := validDraft()
	d.Title = strings.Repeat("ã", 30)

	_, violations := ProductSchema.Check(d)
	assert.Empty(t, violations)
}

func TestCheck_NegativePrice(t *testing.T) {
	d := validDraft()
	d.Price = "-1"

	_, violations := ProductSchema.Check(d)
	require.Len(t, violations, 1)
	assert.Equal(t, FieldPrice, violations[0].Field)
	assert.Contains(t, violations[0].Message, "negativo")
}

func TestCheck_PriceCoercion(t *testing.T) {
	d := validDraft()
	d.Price = " 10,5 "
	in, violations := ProductSchema.Check(d)
	require.Empty(t, violations)
	assert.Equal(t, 10.5, in.Price)

	d.Price = "dez"
	_, violations = ProductSchema.Check(d)
	assert.Equal(t, []string{"O preço deve ser um número."}, messages(violations))

	d.Price = ""
	_, violations = ProductSchema.Check(d)
	assert.Equal(t, []string{"O preço é obrigatório."}, messages(violations))

	for _, raw := range []string{"inf", "Infinity", "+Inf", "-inf", "NaN"} {
		d.Price = raw
		_, violations = ProductSchema.Check(d)
		assert.Equal(t, []string{"O preço deve ser um número."}, messages(violations), raw)
	}

	d.Price = "1e308"
	in, violations = ProductSchema.Check(d)
	require.Empty(t, violations)
	assert.Equal(t, 1e308, in.Price)
}

func TestCheck_CollectsEveryViolation(t *testing.T) {
	_, violations := ProductSchema.Check(Draft{
		Title: strings.Repeat("x", 40),
		Price: "-3",
		Image: "not a url",
	})

	assert.Equal(t, []string{
		"O título não pode ter mais de 30 caracteres.",
		"O preço não pode ser negativo.",
		"A descrição é obrigatória.",
		"A categoria é obrigatória.",
		"A imagem deve ser uma URL válida.",
	}, messages(violations))
}

func TestCheck_EmptyDraft(t *testing.T) {
	_, violations := ProductSchema.Check(Draft{Price: "0"})

	assert.Equal(t, []string{
		"O título é obrigatório.",
		"A descrição é obrigatória.",
		"A categoria é obrigatória.",
		"A URL da imagem é obrigatória.",
	}, messages(violations))
}

func TestDraftOf(t *testing.T) {
	d := DraftOf(models.Product{ID: 1, Title: "T", Price: 109.95, Description: "D", Category: "C", Image: "http://i"})
	assert.Equal(t, Draft{Title: "T", Price: "109.95", Description: "D", Category: "C", Image: "http://i"}, d)
}

func TestController_ValidSubmitCallsOnce(t *testing.T) {
	c := NewController(ProductSchema, Draft{}, nil)

	var states []State
	c.OnState(func(s State) { states = append(states, s) })

	var got []models.ProductInput
	out := c.Submit(context.Background(), validDraft(), func(ctx context.Context, in models.ProductInput) error {
		assert.True(t, c.Loading())
		got = append(got, in)
		return nil
	})

	require.True(t, out.Submitted())
	require.Len(t, got, 1)
	assert.Equal(t, 99.99, got[0].Price)
	assert.Equal(t, []State{StateValidating, StateValid, StateSubmitting, StateSuccess}, states)
	assert.False(t, c.Loading())
	assert.Empty(t, c.Errors())
}

func TestController_InvalidDoesNotSubmit(t *testing.T) {
	c := NewController(ProductSchema, Draft{}, nil)

	var states []State
	c.OnState(func(s State) { states = append(states, s) })

	d := validDraft()
	d.Title = strings.Repeat("x", 31)
	d.Price = "-5"

	called := 0
	out := c.Submit(context.Background(), d, func(context.Context, models.ProductInput) error {
		called++
		return nil
	})

	assert.Equal(t, 0, called)
	assert.False(t, out.Submitted())
	assert.Len(t, out.Violations, 2)
	assert.Len(t, c.Errors(), 2)
	assert.Equal(t, []State{StateValidating, StateInvalid, StateIdle}, states)
	assert.Equal(t, d, c.Draft())
}

func TestController_SubmitFailure(t *testing.T) {
	c := NewController(ProductSchema, Draft{}, nil)
	boom := errors.New("fetch failed")

	out := c.Submit(context.Background(), validDraft(), func(context.Context, models.ProductInput) error {
		return boom
	})

	assert.ErrorIs(t, out.Err, boom)
	assert.False(t, out.Submitted())
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Errors())
}

func TestController_LockedCategory(t *testing.T) {
	c := NewController(ProductSchema, validDraft(), nil)
	c.LockCategory("electronics")
	assert.True(t, c.CategoryLocked())
	assert.Equal(t, "electronics", c.Draft().Category)

	d := validDraft()
	d.Category = "drifted"

	var sent models.ProductInput
	out := c.Submit(context.Background(), d, func(_ context.Context, in models.ProductInput) error {
		sent = in
		return nil
	})

	require.True(t, out.Submitted())
	assert.Equal(t, "electronics", sent.Category)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "submitting", StateSubmitting.String())
	assert.Equal(t, "unknown", State(42).String())
}
