package models

import "unicode/utf8"

const (
	// TitleMaxLen is the longest title the catalog accepts and displays untruncated.
	TitleMaxLen = 30
	// HighlightRate is the rating a product must exceed to be highlighted.
	HighlightRate = 4.5
)

// Rating is computed by the remote API and never sent back.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product as served by the remote catalog.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// ProductInput is the body of create and update requests.
// Field order is the wire order.
type ProductInput struct {
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

// Category is a plain identifier such as "electronics".
type Category = string

// DisplayTitle cuts titles longer than TitleMaxLen characters and appends "...".
func (p Product) DisplayTitle() string {
	if utf8.RuneCountInString(p.Title) <= TitleMaxLen {
		return p.Title
	}
	return string([]rune(p.Title)[:TitleMaxLen]) + "..."
}

// Highlighted reports whether the card gets the "Destaque" badge.
func (p Product) Highlighted() bool {
	return p.Rating.Rate > HighlightRate
}

// Input returns the editable fields of p.
func (p Product) Input() ProductInput {
	return ProductInput{
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
	}
}
