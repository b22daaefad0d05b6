package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"catalog/internal/logger"
)

// DialogState of the delete confirmation.
type DialogState int

const (
	DialogClosed DialogState = iota
	DialogOpen
)

// Deleter removes a product remotely. *fakestore.Client implements it.
type Deleter interface {
	Delete(ctx context.Context, id int) error
}

// DeleteDialog is the confirm-before-delete modal of the product page.
type DeleteDialog struct {
	log *zap.Logger

	mu      sync.Mutex
	state   DialogState
	loading bool
}

func NewDeleteDialog(log *zap.Logger) *DeleteDialog {
	return &DeleteDialog{log: logger.OrNop(log)}
}

// Open shows the modal. It is only ever called from an explicit user action.
func (d *DeleteDialog) Open() {
	d.mu.Lock()
	d.state = DialogOpen
	d.mu.Unlock()
}

// Cancel closes the modal without deleting.
func (d *DeleteDialog) Cancel() {
	d.mu.Lock()
	d.state = DialogClosed
	d.mu.Unlock()
}

func (d *DeleteDialog) State() DialogState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *DeleteDialog) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// Confirm sends one DELETE for id. Whatever the outcome the modal closes and
// loading resets; navigate is true only when the delete succeeded.
func (d *DeleteDialog) Confirm(ctx context.Context, id int, del Deleter) (navigate bool, err error) {
	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.loading = false
		d.state = DialogClosed
		d.mu.Unlock()
	}()

	if err := del.Delete(ctx, id); err != nil {
		d.log.Error("delete product failed", zap.Int("id", id), zap.Error(err))
		return false, err
	}
	return true, nil
}
