package impl

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/domain/service"
	internalerrors "etuition/internal/errors"
	"etuition/internal/usecase"

	"github.com/pkg/errors"
)

// sessionStore implements the SessionStore interface on top of an identity provider.
// The provider observer is the only writer of the identity.
type sessionStore struct {
	provider service.IdentityProvider
	logger   *slog.Logger

	// deliverMu keeps watcher deliveries in update order.
	deliverMu sync.Mutex

	mu       sync.RWMutex
	session  entity.Session
	changed  chan struct{}
	watchers map[uint64]func(entity.Session)
	nextID   uint64

	unsubscribe func()
	closeOnce   sync.Once
}

// NewSessionStore is the constructor for sessionStore. It subscribes to the
// provider immediately; the session stays loading until the first report.
func NewSessionStore(provider service.IdentityProvider, logger *slog.Logger) usecase.SessionStore {
	s := &sessionStore{
		provider: provider,
		logger:   logger,
		session:  entity.Session{IsLoading: true},
		changed:  make(chan struct{}),
		watchers: make(map[uint64]func(entity.Session)),
	}
	s.unsubscribe = provider.Subscribe(s.onIdentity)

	return s
}

func (s *sessionStore) onIdentity(identity *entity.Identity) {
	s.update(func(session *entity.Session) {
		session.Identity = identity.Clone()
		session.IsLoading = false
	})

	if identity == nil {
		s.logger.Debug("Session signed out")
	} else {
		s.logger.Debug("Session signed in", slog.String("uid", identity.UID))
	}
}

// update notifies watchers in registration order and only then publishes the
// new session to Current and Wait. Code that observes the change through the
// store therefore runs after every watcher has reacted to it.
func (s *sessionStore) update(fn func(session *entity.Session)) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	// Only update writes the session, and deliverMu serializes updates.
	s.mu.RLock()
	next := s.snapshotLocked()
	watchers := make([]func(entity.Session), 0, len(s.watchers))
	for _, id := range slices.Sorted(maps.Keys(s.watchers)) {
		watchers = append(watchers, s.watchers[id])
	}
	s.mu.RUnlock()

	fn(&next)

	for _, w := range watchers {
		w(entity.Session{Identity: next.Identity.Clone(), IsLoading: next.IsLoading})
	}

	s.mu.Lock()
	s.session = next
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

func (s *sessionStore) snapshotLocked() entity.Session {
	return entity.Session{Identity: s.session.Identity.Clone(), IsLoading: s.session.IsLoading}
}

// Current implements usecase.SessionStore
func (s *sessionStore) Current() entity.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

// Watch implements usecase.SessionStore
func (s *sessionStore) Watch(fn func(entity.Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// Wait implements usecase.SessionStore
func (s *sessionStore) Wait(ctx context.Context, cond func(entity.Session) bool) (entity.Session, error) {
	for {
		s.mu.RLock()
		session := s.snapshotLocked()
		changed := s.changed
		s.mu.RUnlock()

		if cond(session) {
			return session, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return session, errors.WithStack(ctx.Err())
		}
	}
}

// RegisterWithEmail implements usecase.SessionStore
func (s *sessionStore) RegisterWithEmail(ctx context.Context, email, password string) (*entity.Identity, error) {
	return s.signIn(ctx, "register", func() (*entity.Identity, error) {
		return s.provider.CreateAccount(ctx, email, password)
	})
}

// SignInWithEmail implements usecase.SessionStore
func (s *sessionStore) SignInWithEmail(ctx context.Context, email, password string) (*entity.Identity, error) {
	return s.signIn(ctx, "sign_in", func() (*entity.Identity, error) {
		return s.provider.SignIn(ctx, email, password)
	})
}

// SignInWithSocialProvider implements usecase.SessionStore
func (s *sessionStore) SignInWithSocialProvider(ctx context.Context, cred entity.SocialCredential) (*entity.Identity, error) {
	return s.signIn(ctx, "social_sign_in", func() (*entity.Identity, error) {
		return s.provider.SignInWithSocial(ctx, cred)
	})
}

// signIn runs op with the loading flag set. A failed op produces no observer
// report, so the flag is cleared here.
func (s *sessionStore) signIn(ctx context.Context, op string, fn func() (*entity.Identity, error)) (*entity.Identity, error) {
	s.setLoading(true)

	identity, err := fn()
	if err != nil {
		s.setLoading(false)
		s.logger.InfoContext(ctx, "Identity operation failed",
			slog.String("operation", op),
			slog.Any("error", err),
		)

		return nil, asIdentityError(err)
	}

	return identity, nil
}

// UpdateProfile implements usecase.SessionStore
func (s *sessionStore) UpdateProfile(ctx context.Context, update entity.ProfileUpdate) error {
	if !s.Current().SignedIn() {
		return domainerrors.NewIdentityError(domainerrors.KindNotSignedIn, nil)
	}

	if err := s.provider.UpdateProfile(ctx, update); err != nil {
		return asIdentityError(err)
	}

	return nil
}

// SignOut implements usecase.SessionStore
func (s *sessionStore) SignOut(ctx context.Context) error {
	s.setLoading(true)

	if err := s.provider.SignOut(ctx); err != nil {
		s.setLoading(false)

		return asIdentityError(err)
	}

	return nil
}

// Close implements usecase.SessionStore
func (s *sessionStore) Close() error {
	s.closeOnce.Do(func() {
		s.unsubscribe()
	})

	return nil
}

func (s *sessionStore) setLoading(loading bool) {
	s.update(func(session *entity.Session) {
		session.IsLoading = loading
	})
}

func asIdentityError(err error) error {
	if _, ok := internalerrors.AsTarget[*domainerrors.IdentityError](err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domainerrors.NewIdentityError(domainerrors.KindNetworkUnavailable, err)
	}

	return domainerrors.NewIdentityError(domainerrors.KindUnknown, err)
}
