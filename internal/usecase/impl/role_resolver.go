package impl

import (
	"context"
	"log/slog"
	"sync"

	"etuition/internal/domain/entity"
	"etuition/internal/domain/service"
	"etuition/internal/usecase"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

type roleEntry struct {
	value   entity.Role
	err     error
	settled bool
	done    chan struct{}
}

// roleResolver implements the RoleResolver interface. Roles are cached per
// normalized email; only the email of the current identity is kept.
type roleResolver struct {
	fetcher  service.RoleFetcher
	fallback entity.Role
	logger   *slog.Logger

	group singleflight.Group

	// fetches outlive the request that started them
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	email   string
	entries map[string]*roleEntry

	unwatch   func()
	closeOnce sync.Once
}

// NewRoleResolver is the constructor for roleResolver. It follows the session
// store and starts the lookup as soon as an identity appears.
func NewRoleResolver(
	store usecase.SessionStore,
	fetcher service.RoleFetcher,
	fallback entity.Role,
	logger *slog.Logger,
) usecase.RoleResolver {
	ctx, cancel := context.WithCancel(context.Background())
	r := &roleResolver{
		fetcher:  fetcher,
		fallback: fallback,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]*roleEntry),
	}

	r.unwatch = store.Watch(r.onSession)
	r.onSession(store.Current())

	return r
}

func (r *roleResolver) onSession(session entity.Session) {
	email := session.Email()

	r.mu.Lock()
	defer r.mu.Unlock()

	if email != r.email {
		r.email = email
		clear(r.entries)
	}
	if email != "" {
		r.ensureLocked(email)
	}
}

// ensureLocked returns the entry for email, starting a lookup when there is
// none. r.mu must be held.
func (r *roleResolver) ensureLocked(email string) *roleEntry {
	if entry, ok := r.entries[email]; ok {
		return entry
	}

	entry := &roleEntry{done: make(chan struct{})}
	r.entries[email] = entry
	go r.fetch(email, entry)

	return entry
}

func (r *roleResolver) fetch(email string, entry *roleEntry) {
	result, err, shared := r.group.Do(email, func() (any, error) {
		return r.fetcher.FetchRole(r.ctx, email)
	})

	role, _ := result.(entity.Role)
	if err != nil {
		r.logger.Warn("Failed to resolve role, using fallback",
			slog.String("email", email),
			slog.String("fallback", r.fallback.String()),
			slog.Any("error", err),
		)
		role = r.fallback
	} else {
		role = entity.ParseRole(role.String())
		r.logger.Debug("Role resolved",
			slog.String("email", email),
			slog.String("role", role.String()),
			slog.Bool("shared", shared),
		)
	}

	r.mu.Lock()
	entry.value = role
	entry.err = err
	entry.settled = true
	r.mu.Unlock()

	close(entry.done)
}

func (r *roleResolver) state(entry *roleEntry) usecase.RoleState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !entry.settled {
		return usecase.RoleState{Value: r.fallback, IsLoading: true}
	}

	return usecase.RoleState{Value: entry.value, Err: entry.err}
}

// current returns the entry for the email the watcher last saw, starting a
// lookup when there is none. Callers never look up an email the session
// binding has not been told about yet.
func (r *roleResolver) current() (*roleEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.email == "" {
		return nil, false
	}

	return r.ensureLocked(r.email), true
}

// ResolveRole implements usecase.RoleResolver
func (r *roleResolver) ResolveRole(ctx context.Context) usecase.RoleState {
	entry, ok := r.current()
	if !ok {
		return usecase.RoleState{Value: r.fallback}
	}

	return r.state(entry)
}

// AwaitRole implements usecase.RoleResolver
func (r *roleResolver) AwaitRole(ctx context.Context) (usecase.RoleState, error) {
	entry, ok := r.current()
	if !ok {
		return usecase.RoleState{Value: r.fallback}, nil
	}

	select {
	case <-entry.done:
		return r.state(entry), nil
	case <-ctx.Done():
		return r.state(entry), errors.WithStack(ctx.Err())
	}
}

// Refresh implements usecase.RoleResolver
func (r *roleResolver) Refresh(ctx context.Context) usecase.RoleState {
	r.mu.Lock()
	email := r.email
	if email == "" {
		r.mu.Unlock()

		return usecase.RoleState{Value: r.fallback}
	}
	delete(r.entries, email)
	r.group.Forget(email)
	entry := r.ensureLocked(email)
	r.mu.Unlock()

	return r.state(entry)
}

// Close implements usecase.RoleResolver
func (r *roleResolver) Close() error {
	r.closeOnce.Do(func() {
		r.unwatch()
		r.cancel()
	})

	return nil
}
