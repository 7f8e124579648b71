package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"etuition/config"
	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	internalerrors "etuition/internal/errors"
	"etuition/internal/infra/identity/hub"
	"etuition/internal/infra/metrics"
	"etuition/internal/infra/navigation"
	"etuition/internal/usecase"
	"etuition/internal/usecase/impl"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider signs in any email with the password as access token.
type fakeProvider struct {
	*hub.Hub
	signOuts    atomic.Int32
	failSignOut atomic.Bool
}

func (p *fakeProvider) CreateAccount(ctx context.Context, email, password string) (*entity.Identity, error) {
	return p.SignIn(ctx, email, password)
}

func (p *fakeProvider) SignIn(_ context.Context, email, password string) (*entity.Identity, error) {
	identity := &entity.Identity{UID: email, Email: email, AccessToken: password}
	p.Publish(identity)

	return identity, nil
}

func (p *fakeProvider) SignInWithSocial(context.Context, entity.SocialCredential) (*entity.Identity, error) {
	return nil, errors.New("unsupported")
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.signOuts.Add(1)
	if p.failSignOut.Load() {
		return errors.New("identity service unreachable")
	}
	p.Publish(nil)

	return nil
}

func (p *fakeProvider) UpdateProfile(context.Context, entity.ProfileUpdate) error {
	return nil
}

type bindingFixture struct {
	client    *Client
	store     usecase.SessionStore
	provider  *fakeProvider
	history   *navigation.History
	metrics   *metrics.Metrics
	binding   *SessionBinding
	loginHits atomic.Int32
}

func newBindingFixture(t *testing.T, handler http.HandlerFunc) *bindingFixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Backend.BaseURL = server.URL
	cfg.Backend.Timeout = 5 * time.Second
	cfg.ApplyDefaults()

	f := &bindingFixture{
		provider: &fakeProvider{Hub: hub.New()},
		history:  navigation.NewHistory("/"),
		metrics:  metrics.New(),
	}

	var err error
	f.client, err = NewClient(cfg, f.metrics, discardLogger())
	require.NoError(t, err)

	f.store = impl.NewSessionStore(f.provider, discardLogger())
	f.history.Watch(func(loc entity.Location) {
		if loc.Path == "/login" {
			f.loginHits.Add(1)
		}
	})
	f.binding = NewSessionBinding(f.client, f.store, f.history, cfg, f.metrics, discardLogger())
	t.Cleanup(func() {
		_ = f.binding.Close()
		_ = f.store.Close()
	})

	return f
}

func echoAuthorization(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string][]string{"authorization": r.Header.Values("Authorization")})
}

func TestSessionBinding_SwapsTokenOnIdentityChange(t *testing.T) {
	f := newBindingFixture(t, echoAuthorization)
	ctx := context.Background()

	get := func() []string {
		var out map[string][]string
		require.NoError(t, f.client.Get(ctx, "/whoami", &out))

		return out["authorization"]
	}

	assert.Equal(t, []string{"Bearer "}, get())

	_, err := f.store.SignInWithEmail(ctx, "a@example.com", "token-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer token-a"}, get())

	_, err = f.store.SignInWithEmail(ctx, "b@example.com", "token-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer token-b"}, get())

	assert.Equal(t, 1, f.client.Requests.Len())
	assert.Equal(t, 1, f.client.Responses.Len())
}

func TestSessionBinding_UnauthorizedForcesLogout(t *testing.T) {
	f := newBindingFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/all", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	})
	ctx := context.Background()

	_, err := f.store.SignInWithEmail(ctx, "admin@example.com", "expired-token")
	require.NoError(t, err)
	f.history.Navigate("/dashboard/admin", nil)

	err = f.client.Get(ctx, "/users/all", nil)

	authErr, ok := internalerrors.AsTarget[*domainerrors.AuthorizationError](err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)

	_, wrapsResponse := internalerrors.AsTarget[*ResponseError](err)
	assert.True(t, wrapsResponse)

	assert.Nil(t, f.store.Current().Identity)
	assert.False(t, f.store.Current().IsLoading)
	assert.Equal(t, "/login", f.history.Current().Path)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ForcedLogouts), 0)
}

func TestSessionBinding_ConcurrentRejectionsLogOutOnce(t *testing.T) {
	const requests = 8
	var arrived atomic.Int32
	allArrived := make(chan struct{})

	f := newBindingFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if arrived.Add(1) == requests {
			close(allArrived)
		}
		select {
		case <-allArrived:
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusForbidden)
	})
	ctx := context.Background()

	_, err := f.store.SignInWithEmail(ctx, "a@example.com", "token-a")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, requests)
	for i := range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.client.Get(ctx, "/applications/all", nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		_, ok := internalerrors.AsTarget[*domainerrors.AuthorizationError](err)
		assert.True(t, ok, "got %v", err)
	}
	assert.Equal(t, int32(1), f.provider.signOuts.Load())
	assert.Equal(t, int32(1), f.loginHits.Load())
}

func TestSessionBinding_PassThrough(t *testing.T) {
	status := atomic.Int32{}
	f := newBindingFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	})
	ctx := context.Background()

	t.Run("401 without identity", func(t *testing.T) {
		status.Store(http.StatusUnauthorized)

		err := f.client.Get(ctx, "/users/all", nil)

		respErr, ok := internalerrors.AsTarget[*ResponseError](err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, respErr.StatusCode)
		assert.Equal(t, int32(0), f.provider.signOuts.Load())
	})

	t.Run("500 with identity", func(t *testing.T) {
		status.Store(http.StatusInternalServerError)
		_, err := f.store.SignInWithEmail(ctx, "a@example.com", "token-a")
		require.NoError(t, err)

		err = f.client.Get(ctx, "/users/all", nil)

		_, isAuth := internalerrors.AsTarget[*domainerrors.AuthorizationError](err)
		assert.False(t, isAuth)
		assert.NotNil(t, f.store.Current().Identity)
	})
}

func TestSessionBinding_CloseRemovesInterceptors(t *testing.T) {
	f := newBindingFixture(t, echoAuthorization)

	require.NoError(t, f.binding.Close())
	require.NoError(t, f.binding.Close())

	assert.Equal(t, 0, f.client.Requests.Len())
	assert.Equal(t, 0, f.client.Responses.Len())
}

func TestSessionBinding_FailedSignOutNavigatesWithoutWaiting(t *testing.T) {
	f := newBindingFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	ctx := context.Background()
	_, err := f.store.SignInWithEmail(ctx, "a@example.com", "token-a")
	require.NoError(t, err)
	f.provider.failSignOut.Store(true)

	start := time.Now()
	err = f.client.Get(ctx, "/users/all", nil)

	assert.Less(t, time.Since(start), 2*time.Second)
	_, ok := internalerrors.AsTarget[*domainerrors.AuthorizationError](err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), f.provider.signOuts.Load())
	assert.Equal(t, int32(1), f.loginHits.Load())
	assert.Equal(t, "/login", f.history.Current().Path)
}
