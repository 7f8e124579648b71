package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"etuition/config"
	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/domain/service"
	internalerrors "etuition/internal/errors"
	"etuition/internal/infra/metrics"
	"etuition/internal/usecase"
)

const forcedLogoutTimeout = 10 * time.Second

// binding is the credential of one identity as seen by the interceptors.
type binding struct {
	uid      string
	token    string
	signedIn bool
	logout   sync.Once
}

// SessionBinding keeps the client's auth interceptors in step with the session
// store and signs out when the backend rejects the credential.
type SessionBinding struct {
	client    *Client
	store     usecase.SessionStore
	navigator service.Navigator
	loginPath string
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu         sync.Mutex
	current    *binding
	requestID  int
	responseID int
	unwatch    func()
	closeOnce  sync.Once
}

// NewSessionBinding binds the client to the store's current identity and
// follows every later change.
func NewSessionBinding(
	client *Client,
	store usecase.SessionStore,
	navigator service.Navigator,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SessionBinding {
	b := &SessionBinding{
		client:    client,
		store:     store,
		navigator: navigator,
		loginPath: cfg.Routes.Login,
		metrics:   m,
		logger:    logger,
	}

	b.unwatch = store.Watch(b.bind)
	b.bind(store.Current())

	return b
}

// bind swaps in a new interceptor pair when the identity or its token changed.
func (b *SessionBinding) bind(session entity.Session) {
	next := &binding{
		uid:      session.Identity.GetUID(),
		token:    session.Identity.BearerToken(),
		signedIn: session.SignedIn(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if cur := b.current; cur != nil && cur.uid == next.uid && cur.token == next.token && cur.signedIn == next.signedIn {
		return
	}

	request := func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+next.token)

		return nil
	}
	response := ResponseInterceptor{
		Rejected: func(req *http.Request, err error) error {
			return b.onRejected(req.Context(), next, err)
		},
	}

	b.requestID, b.responseID = b.client.ReplaceInterceptors(b.requestID, request, b.responseID, response)
	b.current = next
}

// onRejected forces a logout on 401/403 once per bound identity.
func (b *SessionBinding) onRejected(ctx context.Context, bound *binding, err error) error {
	respErr, ok := internalerrors.AsTarget[*ResponseError](err)
	if !ok {
		return err
	}
	if respErr.StatusCode != http.StatusUnauthorized && respErr.StatusCode != http.StatusForbidden {
		return err
	}
	if !bound.signedIn {
		return err
	}

	bound.logout.Do(func() {
		b.forceLogout(ctx, bound, respErr)
	})

	return domainerrors.NewAuthorizationError(respErr.StatusCode, err)
}

func (b *SessionBinding) forceLogout(ctx context.Context, bound *binding, respErr *ResponseError) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), forcedLogoutTimeout)
	defer cancel()

	b.logger.WarnContext(ctx, "Backend rejected the credential, signing out",
		slog.String("uid", bound.uid),
		slog.Int("status", respErr.StatusCode),
		slog.String("url", respErr.URL),
	)
	if b.metrics != nil {
		b.metrics.ForcedLogouts.Inc()
	}

	if err := b.store.SignOut(ctx); err != nil {
		// no observer report will follow a failed sign-out
		b.logger.ErrorContext(ctx, "Forced sign-out failed", slog.Any("error", err))
		b.navigator.Navigate(b.loginPath, nil)

		return
	}

	if _, err := b.store.Wait(ctx, func(s entity.Session) bool {
		return !s.SignedIn() && !s.IsLoading
	}); err != nil {
		b.logger.ErrorContext(ctx, "Session did not report the sign-out", slog.Any("error", err))
	}

	b.navigator.Navigate(b.loginPath, nil)
}

// Close stops following the store and removes the interceptors.
func (b *SessionBinding) Close() error {
	b.closeOnce.Do(func() {
		b.unwatch()

		b.mu.Lock()
		b.client.EjectInterceptors(b.requestID, b.responseID)
		b.current = nil
		b.mu.Unlock()
	})

	return nil
}
