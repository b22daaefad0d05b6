package journal

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"catalog/internal/fakestore"
	"catalog/internal/models"
)

// Recorder keeps a local trail of the mutations sent to the remote catalog,
// which does not persist them itself.
type Recorder interface {
	Record(ctx context.Context, a models.Activity) error
	Recent(ctx context.Context, n int) ([]models.Activity, error)
	Ping(ctx context.Context) error
	Enabled() bool
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, models.Activity) error          { return nil }
func (Nop) Recent(context.Context, int) ([]models.Activity, error) { return nil, nil }
func (Nop) Ping(context.Context) error                             { return nil }
func (Nop) Enabled() bool                                          { return false }

// Gorm stores activities in the activities table.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Migrate creates or updates the activities table.
func (g *Gorm) Migrate() error {
	return g.db.AutoMigrate(&models.Activity{})
}

func (g *Gorm) Record(ctx context.Context, a models.Activity) error {
	if err := g.db.WithContext(ctx).Create(&a).Error; err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// Recent returns the last n activities, newest first.
func (g *Gorm) Recent(ctx context.Context, n int) ([]models.Activity, error) {
	var items []models.Activity
	if err := g.db.WithContext(ctx).Order("id desc").Limit(n).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return items, nil
}

func (g *Gorm) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *Gorm) Enabled() bool { return true }

// Entry builds the activity row for a finished remote call.
func Entry(action models.Action, productID int, title string, err error) models.Activity {
	a := models.Activity{Action: action, ProductID: productID, Title: title, Status: 200}
	if err == nil {
		return a
	}
	a.Error = err.Error()
	var se *fakestore.StatusError
	switch {
	case errors.As(err, &se):
		a.Status = se.Code
	case errors.Is(err, fakestore.ErrNotFound):
		a.Status = 404
	default:
		a.Status = 0
	}
	return a
}
