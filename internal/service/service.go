package service

import (
	"NFTMarket/internal/events"
	"NFTMarket/internal/repo"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Clock абстрагирует текущее время, чтобы логика окна аукциона была детерминирована в тестах.
type Clock interface {
	Now() time.Time
}

// RealClock возвращает текущее время.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

const (
	// DefaultConflictRetries: число попыток записи при конкурентных изменениях.
	DefaultConflictRetries = 3
	DefaultPageSize        = 20
	MaxPageSize            = 100
)

const publishTimeout = 5 * time.Second

// errStale: версия строки устарела, попытку нужно повторить с перечитыванием.
var errStale = errors.New("stale version")

// Option настраивает сервисы.
type Option func(*deps)

// WithClock подменяет часы.
func WithClock(c Clock) Option {
	return func(d *deps) { d.clock = c }
}

// WithConflictRetries задаёт число попыток при конфликте версий.
func WithConflictRetries(n int) Option {
	return func(d *deps) {
		if n > 0 {
			d.retries = n
		}
	}
}

// WithPageSize задаёт размер страницы списков по умолчанию.
func WithPageSize(n int) Option {
	return func(d *deps) {
		if n > 0 && n <= MaxPageSize {
			d.pageSize = n
		}
	}
}

// deps: общие зависимости сервисов рынка.
type deps struct {
	repos     repo.Repositories
	publisher events.Publisher
	logger    *zap.SugaredLogger
	clock     Clock
	retries   int
	pageSize  int
}

func newDeps(r repo.Repositories, p events.Publisher, logger *zap.SugaredLogger, opts []Option) deps {
	if p == nil {
		p = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	d := deps{repos: r, publisher: p, logger: logger, clock: RealClock{}, retries: DefaultConflictRetries, pageSize: DefaultPageSize}
	for _, o := range opts {
		o(&d)
	}
	return d
}

func (d *deps) now() time.Time {
	return d.clock.Now().UTC()
}

// Page: запрошенная страница списка; нулевой Limit означает размер по умолчанию.
type Page struct {
	Limit  int
	Offset int
}

// Paged: страница результатов с фактически применёнными limit и offset.
type Paged[T any] struct {
	Results []T
	Limit   int
	Offset  int
}

// page приводит limit/offset к допустимым значениям.
func (d *deps) page(p Page) Page {
	if p.Limit <= 0 {
		p.Limit = d.pageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// withRetry повторяет fn, пока она возвращает errStale.
func (d *deps) withRetry(op string, fn func() error) error {
	for attempt := 1; attempt <= d.retries; attempt++ {
		err := fn()
		if !errors.Is(err, errStale) {
			return err
		}
		d.logger.Warnw("concurrent update, retrying", "op", op, "attempt", attempt)
	}
	return ErrConflict
}

// publish отправляет событие; ошибка только логируется.
func (d *deps) publish(ev events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := d.publisher.Publish(ctx, ev); err != nil {
		d.logger.Warnw("failed to publish event", "type", ev.Type, "token_id", ev.TokenID, "error", err)
	}
}

// notFound переводит gorm.ErrRecordNotFound в ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// stale переводит несовпадение версии в errStale.
func stale(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errStale
	}
	return err
}
