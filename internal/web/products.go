package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog/internal/catalog"
	"catalog/internal/export"
	"catalog/internal/fakestore"
	"catalog/internal/form"
	"catalog/internal/journal"
	"catalog/internal/models"
)

// Filters of the listing page.
type Filters struct {
	Limit    int
	Category string
	Sort     string
}

func newFilters(limit int, category, sort string) Filters {
	if limit < 1 {
		limit = catalog.PageSize
	}
	if category == "" {
		category = catalog.AllCategories
	}
	return Filters{Limit: limit, Category: category, Sort: string(catalog.ParseOrder(sort))}
}

// Query encodes f for links.
func (f Filters) Query() string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(f.Limit))
	q.Set("category", f.Category)
	q.Set("sort", f.Sort)
	return q.Encode()
}

// More is the next "Ver mais" page.
func (f Filters) More() Filters {
	f.Limit += catalog.PageSize
	return f
}

// filters reads the listing filters from the query string, falling back to the
// ones remembered in the session, and remembers the result.
func filters(c *gin.Context) Filters {
	_, hasLimit := c.GetQuery("limit")
	_, hasCategory := c.GetQuery("category")
	_, hasSort := c.GetQuery("sort")

	var f Filters
	if !hasLimit && !hasCategory && !hasSort {
		if saved, ok := savedFilters(c); ok {
			f = saved
		} else {
			f = newFilters(catalog.PageSize, catalog.AllCategories, "")
		}
	} else {
		limit, _ := strconv.Atoi(c.Query("limit"))
		f = newFilters(limit, strings.TrimSpace(c.Query("category")), c.Query("sort"))
	}
	saveFilters(c, f)
	return f
}

// load runs the catalog query for one page view: categories once, then products.
func (s *Server) load(ctx context.Context, f Filters, withCategories bool) catalog.Snapshot {
	q := catalog.NewQuery(s.api, s.log)
	if withCategories {
		q.FetchCategories(ctx)
	}
	q.FetchProducts(ctx, f.Limit, f.Category, catalog.Order(f.Sort))
	return q.Snapshot()
}

func (s *Server) listProducts(c *gin.Context) {
	f := filters(c)
	snap := s.load(c.Request.Context(), f, true)

	c.HTML(http.StatusOK, "list.tmpl", withFlash(c, ViewData{
		"Title":      "Lista de Produtos",
		"Filters":    f,
		"Products":   snap.Products,
		"Categories": snap.Categories,
		"ShowMore":   f.Category == catalog.AllCategories && len(snap.Products) > 0,
		"MoreURL":    "/products?" + f.More().Query(),
		"ExportURL":  "/export/products.xlsx?" + f.Query(),
	}))
}

func (s *Server) apiProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	f := newFilters(limit, c.Query("category"), c.Query("sort"))
	snap := s.load(c.Request.Context(), f, true)

	products := snap.Products
	if products == nil {
		products = []models.Product{}
	}
	categories := snap.Categories
	if categories == nil {
		categories = []models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"categories": categories,
		"state":      snap.State.String(),
	})
}

func (s *Server) exportProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	f := newFilters(limit, c.Query("category"), c.Query("sort"))
	snap := s.load(c.Request.Context(), f, false)

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", `attachment;filename="produtos.xlsx"`)
	c.Status(http.StatusOK)
	if err := export.WriteProducts(c.Writer, snap.Products); err != nil {
		s.log.Error("export failed", zap.Error(err))
		_ = c.Error(err)
	}
}

func draftFromForm(c *gin.Context) form.Draft {
	return form.Draft{
		Title:       c.PostForm(form.FieldTitle),
		Price:       c.PostForm(form.FieldPrice),
		Description: c.PostForm(form.FieldDescription),
		Category:    c.PostForm(form.FieldCategory),
		Image:       c.PostForm(form.FieldImage),
	}
}

func (s *Server) newProduct(c *gin.Context) {
	c.HTML(http.StatusOK, "form.tmpl", withFlash(c, ViewData{
		"Title": "Criar Produto", "Mode": "create", "Action": "/products",
		"Form": form.Draft{Price: "0"},
	}))
}

func (s *Server) createProduct(c *gin.Context) {
	ctx := c.Request.Context()
	ctl := form.NewController(form.ProductSchema, form.Draft{}, s.log)

	var created *models.Product
	out := ctl.Submit(ctx, draftFromForm(c), func(ctx context.Context, in models.ProductInput) error {
		p, err := s.api.Create(ctx, in)
		id := 0
		if p != nil {
			id = p.ID
		}
		s.record(ctx, journal.Entry(models.ActionCreate, id, in.Title, err))
		created = p
		return err
	})

	view := ViewData{
		"Title": "Criar Produto", "Mode": "create", "Action": "/products",
		"Form": ctl.Draft(), "Errors": ctl.Errors(),
	}
	switch {
	case len(out.Violations) > 0:
		c.HTML(http.StatusBadRequest, "form.tmpl", withFlash(c, view))
	case out.Err != nil:
		c.HTML(http.StatusBadGateway, "form.tmpl", withFlash(c, view))
	default:
		setFlash(c, fmt.Sprintf("Produto \"%s\" criado (id %d).", out.Values.Title, created.ID))
		c.Redirect(http.StatusSeeOther, "/products")
	}
}

// productParam loads the product named by :id, rendering the not-found page
// when it does not exist or cannot be fetched.
func (s *Server) productParam(c *gin.Context) (*models.Product, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.HTML(http.StatusNotFound, "notfound.tmpl", withFlash(c, ViewData{"Title": "Produto não encontrado"}))
		return nil, false
	}
	p, err := s.api.Product(c.Request.Context(), id)
	if err != nil {
		status := http.StatusNotFound
		if !errors.Is(err, fakestore.ErrNotFound) {
			s.log.Error("fetch product failed", zap.Int("id", id), zap.Error(err))
			status = http.StatusBadGateway
		}
		c.HTML(status, "notfound.tmpl", withFlash(c, ViewData{"Title": "Produto não encontrado"}))
		return nil, false
	}
	return p, true
}

func editView(p *models.Product, ctl *form.Controller, dialog *catalog.DeleteDialog) ViewData {
	return ViewData{
		"Title": "Editar Produto", "Mode": "edit",
		"Action":         fmt.Sprintf("/products/%d", p.ID),
		"Item":           p,
		"Form":           ctl.Draft(),
		"Errors":         ctl.Errors(),
		"CategoryLocked": ctl.CategoryLocked(),
		"DeleteOpen":     dialog.State() == catalog.DialogOpen,
	}
}

func (s *Server) editProduct(c *gin.Context) {
	p, ok := s.productParam(c)
	if !ok {
		return
	}
	ctl := form.NewController(form.ProductSchema, form.DraftOf(*p), s.log)
	ctl.LockCategory(p.Category)

	dialog := catalog.NewDeleteDialog(s.log)
	if c.Query("delete") == "confirm" {
		dialog.Open()
	}
	c.HTML(http.StatusOK, "form.tmpl", withFlash(c, editView(p, ctl, dialog)))
}

func (s *Server) updateProduct(c *gin.Context) {
	p, ok := s.productParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ctl := form.NewController(form.ProductSchema, form.DraftOf(*p), s.log)
	ctl.LockCategory(p.Category)

	out := ctl.Submit(ctx, draftFromForm(c), func(ctx context.Context, in models.ProductInput) error {
		_, err := s.api.Update(ctx, p.ID, in)
		s.record(ctx, journal.Entry(models.ActionUpdate, p.ID, in.Title, err))
		return err
	})

	view := editView(p, ctl, catalog.NewDeleteDialog(s.log))
	switch {
	case len(out.Violations) > 0:
		c.HTML(http.StatusBadRequest, "form.tmpl", withFlash(c, view))
	case out.Err != nil:
		c.HTML(http.StatusBadGateway, "form.tmpl", withFlash(c, view))
	default:
		setFlash(c, fmt.Sprintf("Produto %d atualizado.", p.ID))
		c.Redirect(http.StatusSeeOther, "/products")
	}
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.HTML(http.StatusNotFound, "notfound.tmpl", withFlash(c, ViewData{"Title": "Produto não encontrado"}))
		return
	}
	ctx := c.Request.Context()

	dialog := catalog.NewDeleteDialog(s.log)
	dialog.Open()
	navigate, err := dialog.Confirm(ctx, id, s.api)
	s.record(ctx, journal.Entry(models.ActionDelete, id, "", err))

	if !navigate {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/products/%d", id))
		return
	}
	setFlash(c, fmt.Sprintf("Produto %d excluído.", id))
	c.Redirect(http.StatusSeeOther, "/products")
}
