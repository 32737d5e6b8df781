package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stock-price-alert/internal/entity"
	"stock-price-alert/pkg/logger"
)

// AlertRepository persists the alert collection. Every operation is a
// whole-collection read-modify-write; insertion order is preserved.
type AlertRepository interface {
	// LoadAll returns every alert. Missing or corrupt data is logged and
	// reported as an empty collection; any other read failure is returned
	// wrapping entity.ErrStorageRead.
	LoadAll(ctx context.Context) ([]entity.Alert, error)
	// SaveAll replaces the persisted collection.
	SaveAll(ctx context.Context, alerts []entity.Alert) error
	Add(ctx context.Context, alert entity.Alert) error
	// Remove reports whether an alert with the given ID existed.
	Remove(ctx context.Context, id string) (bool, error)
	// Update replaces the alert with the same ID in place and reports whether
	// it existed.
	Update(ctx context.Context, alert entity.Alert) (bool, error)
	// Modify applies fn to the stored alert and persists the result in one
	// locked read-modify-write. An error from fn aborts without writing.
	Modify(ctx context.Context, id string, fn func(*entity.Alert) error) (*entity.Alert, error)
	// Get returns entity.ErrNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*entity.Alert, error)
	ActiveOnly(ctx context.Context) ([]entity.Alert, error)
	Close() error
}

// errCorruptStore marks read failures caused by undecodable content. Only
// these are recovered as an empty collection.
var errCorruptStore = errors.New("corrupt alert store")

// snapshotStore reads and replaces the full persisted collection. read wraps
// errCorruptStore when the persisted content itself is unreadable.
type snapshotStore interface {
	read(ctx context.Context) ([]entity.Alert, error)
	write(ctx context.Context, alerts []entity.Alert) error
	close() error
	describe() string
}

type alertRepository struct {
	// mu serializes read-modify-write cycles within the process. Nothing
	// guards against other processes writing the same store.
	mu    sync.Mutex
	store snapshotStore
	log   *logger.Logger
}

func newAlertRepository(store snapshotStore, log *logger.Logger) *alertRepository {
	return &alertRepository{store: store, log: log}
}

func (r *alertRepository) LoadAll(ctx context.Context) ([]entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *alertRepository) SaveAll(ctx context.Context, alerts []entity.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, alerts)
}

func (r *alertRepository) Add(ctx context.Context, alert entity.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts, err := r.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(alerts, alert.ID) >= 0 {
		return &entity.ValidationError{Field: "alert_id", Reason: fmt.Sprintf("%s already exists", alert.ID)}
	}
	return r.save(ctx, append(alerts, alert))
}

func (r *alertRepository) Remove(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(alerts, id)
	if i < 0 {
		return false, nil
	}
	alerts = append(alerts[:i], alerts[i+1:]...)
	if err := r.save(ctx, alerts); err != nil {
		return false, err
	}
	return true, nil
}

func (r *alertRepository) Update(ctx context.Context, alert entity.Alert) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(alerts, alert.ID)
	if i < 0 {
		return false, nil
	}
	alerts[i] = alert
	if err := r.save(ctx, alerts); err != nil {
		return false, err
	}
	return true, nil
}

func (r *alertRepository) Modify(ctx context.Context, id string, fn func(*entity.Alert) error) (*entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(alerts, id)
	if i < 0 {
		return nil, entity.ErrNotFound
	}
	next := alerts[i]
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = id
	alerts[i] = next
	if err := r.save(ctx, alerts); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *alertRepository) Get(ctx context.Context, id string) (*entity.Alert, error) {
	alerts, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(alerts, id); i >= 0 {
		return &alerts[i], nil
	}
	return nil, entity.ErrNotFound
}

func (r *alertRepository) ActiveOnly(ctx context.Context) ([]entity.Alert, error) {
	alerts, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]entity.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.IsActive() {
			active = append(active, a)
		}
	}
	return active, nil
}

func (r *alertRepository) Close() error {
	return r.store.close()
}

func (r *alertRepository) load(ctx context.Context) ([]entity.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	alerts, err := r.store.read(ctx)
	switch {
	case err == nil:
		return alerts, nil
	case errors.Is(err, errCorruptStore):
		r.log.WarnContext(ctx, "Alert store corrupt, treating as empty",
			logger.StringField("store", r.store.describe()), logger.ErrorField(err))
		return []entity.Alert{}, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		r.log.ErrorContext(ctx, "Failed to read alerts",
			logger.StringField("store", r.store.describe()), logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrStorageRead, err)
	}
}

func (r *alertRepository) save(ctx context.Context, alerts []entity.Alert) error {
	if err := r.store.write(ctx, alerts); err != nil {
		r.log.ErrorContext(ctx, "Failed to persist alerts",
			logger.StringField("store", r.store.describe()), logger.ErrorField(err))
		return fmt.Errorf("%w: %w", entity.ErrStorageWrite, err)
	}
	return nil
}

func indexOf(alerts []entity.Alert, id string) int {
	for i := range alerts {
		if alerts[i].ID == id {
			return i
		}
	}
	return -1
}
