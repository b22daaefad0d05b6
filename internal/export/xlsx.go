package export

import (
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize/v2"

	"catalog/internal/models"
)

// Sheet is the worksheet holding the listing.
const Sheet = "Produtos"

// ContentType of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headerStyle = `{"font":{"bold":true},"fill":{"type":"pattern","pattern":1,"color":["#f5c542"]}}`

// WriteProducts writes products as an xlsx workbook, one row per product.
func WriteProducts(w io.Writer, products []models.Product) error {
	f := excelize.NewFile()
	f.NewSheet(Sheet)
	// delete default sheet
	f.DeleteSheet("Sheet1")

	if err := f.SetColWidth(Sheet, "B", "B", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(Sheet, "D", "D", 20); err != nil {
		return err
	}

	header, err := f.NewStyle(headerStyle)
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(Sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", []interface{}{
		excelize.Cell{StyleID: header, Value: "ID"},
		excelize.Cell{StyleID: header, Value: "Título"},
		excelize.Cell{StyleID: header, Value: "Preço"},
		excelize.Cell{StyleID: header, Value: "Categoria"},
		excelize.Cell{StyleID: header, Value: "Avaliação"},
		excelize.Cell{StyleID: header, Value: "Destaque"},
	}); err != nil {
		return err
	}

	for n, p := range products {
		highlight := "não"
		if p.Highlighted() {
			highlight = "sim"
		}
		cell, _ := excelize.CoordinatesToCellName(1, n+2)
		if err := sw.SetRow(cell, []interface{}{
			p.ID, p.Title, p.Price, p.Category, p.Rating.Rate, highlight,
		}); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
