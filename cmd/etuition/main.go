package main

import (
	"context"
	"log/slog"
	"os"

	"etuition/config"
	"etuition/internal/delivery"
	"etuition/internal/delivery/http"
	"etuition/internal/delivery/http/middleware"
	"etuition/internal/delivery/http/router/handler"
	"etuition/internal/domain/entity"
	"etuition/internal/domain/service"
	"etuition/internal/infra/apiclient"
	"etuition/internal/infra/auth"
	"etuition/internal/infra/auth/google"
	"etuition/internal/infra/backend"
	"etuition/internal/infra/identity"
	logs "etuition/internal/infra/log"
	"etuition/internal/infra/metrics"
	"etuition/internal/infra/navigation"
	"etuition/internal/usecase"
	"etuition/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		metrics.New,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasherFromConfig,
			google.NewOAuthService,
			identity.NewIdentityProvider,
			navigation.NewNavigator,
			apiclient.NewClient,
			newSessionBinding,
			backend.NewAPI,
			backend.NewRoleFetcher,
		),
	)
}

// newSessionBinding attaches the backend client to the session store.
func newSessionBinding(
	lc fx.Lifecycle,
	client *apiclient.Client,
	store usecase.SessionStore,
	navigator service.Navigator,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *apiclient.SessionBinding {
	binding := apiclient.NewSessionBinding(client, store, navigator, cfg, m, logger)
	lc.Append(fx.StopHook(binding.Close))

	return binding
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			newSessionStore,
			newRoleResolver,
			newCountdownRunner,
		),
	)
}

func newSessionStore(lc fx.Lifecycle, provider service.IdentityProvider, logger *slog.Logger) usecase.SessionStore {
	store := impl.NewSessionStore(provider, logger)
	lc.Append(fx.StopHook(store.Close))

	return store
}

// newRoleResolver depends on the session binding so the binding watches the
// store first and every role lookup carries the current credential.
func newRoleResolver(
	lc fx.Lifecycle,
	store usecase.SessionStore,
	_ *apiclient.SessionBinding,
	fetcher service.RoleFetcher,
	cfg *config.Config,
	logger *slog.Logger,
) usecase.RoleResolver {
	resolver := impl.NewRoleResolver(store, fetcher, entity.ParseRole(cfg.Role.Fallback), logger)
	lc.Append(fx.StopHook(resolver.Close))

	return resolver
}

func newCountdownRunner(navigator service.Navigator, cfg *config.Config, logger *slog.Logger) *impl.CountdownRunner {
	return impl.NewCountdownRunner(navigator, cfg.Routes.Home, cfg.NotFound.Countdown, impl.RealTicker, logger)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewGuardMiddleware,
			middleware.NewNavigationMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewDashboardHandler,
			handler.NewHomeHandler,
			handler.NewNavigationHandler,
			handler.NewSessionHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
