package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog/internal/catalog"
	"catalog/internal/journal"
	"catalog/internal/logger"
	"catalog/internal/models"
)

//go:embed views/*.tmpl
var views embed.FS

type ViewData map[string]any

// Catalog is the remote API as the pages use it. *fakestore.Client implements it.
type Catalog interface {
	catalog.Source
	catalog.Deleter
	Product(ctx context.Context, id int) (*models.Product, error)
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id int, in models.ProductInput) (*models.Product, error)
}

// Server holds the dependencies of the handlers.
type Server struct {
	api     Catalog
	journal journal.Recorder
	log     *zap.Logger
	secret  []byte
}

type Option func(*Server)

func WithJournal(r journal.Recorder) Option {
	return func(s *Server) { s.journal = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithSessionSecret sets the cookie store key.
func WithSessionSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

func NewServer(api Catalog, opts ...Option) *Server {
	s := &Server{api: api, journal: journal.Nop{}, secret: []byte("dev_fallback_secret")}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log)
	return s
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"price": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"rate":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"add":   func(a, b int) int { return a + b },
		"since": func(t time.Time) string { return humanize.Time(t) },
	}
}

func parseViews() (*template.Template, error) {
	return template.New("").Funcs(funcMap()).ParseFS(views, "views/*.tmpl")
}

// Handler builds the gin engine with every route.
func (s *Server) Handler() (*gin.Engine, error) {
	tmpl, err := parseViews()
	if err != nil {
		return nil, fmt.Errorf("parse views: %w", err)
	}

	r := gin.New()
	r.Use(RequestID(), AccessLog(s.log), gin.Recovery())
	r.SetHTMLTemplate(tmpl)

	store := cookie.NewStore(s.secret)
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("catalog_session", store))

	r.GET("/health", s.health)
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/products")
	})

	r.GET("/products", s.listProducts)
	r.GET("/products/new", s.newProduct)
	r.POST("/products", s.createProduct)
	r.GET("/products/:id", s.editProduct)
	r.POST("/products/:id", s.updateProduct)
	r.POST("/products/:id/delete", s.deleteProduct)

	r.GET("/export/products.xlsx", s.exportProducts)
	r.GET("/api/products", s.apiProducts)
	r.GET("/activity", s.activity)

	return r, nil
}

func (s *Server) health(c *gin.Context) {
	if s.journal.Enabled() {
		if err := s.journal.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) activity(c *gin.Context) {
	items, err := s.journal.Recent(c.Request.Context(), 50)
	if err != nil {
		s.log.Error("list activity failed", zap.Error(err))
	}
	c.HTML(http.StatusOK, "activity.tmpl", withFlash(c, ViewData{
		"Title":   "Atividade",
		"Enabled": s.journal.Enabled(),
		"Items":   items,
	}))
}

// record writes to the journal. Failures are logged only.
func (s *Server) record(ctx context.Context, a models.Activity) {
	if err := s.journal.Record(ctx, a); err != nil {
		s.log.Warn("journal record failed", zap.String("action", string(a.Action)), zap.Error(err))
	}
}
