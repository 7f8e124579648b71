// Package backend wraps the marketplace REST API calls made through the
// authenticated client.
package backend

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"etuition/internal/domain/entity"
	"etuition/internal/domain/service"
	"etuition/internal/infra/apiclient"
	"etuition/internal/infra/metrics"

	"github.com/pkg/errors"
)

// UserRecord is the user document stored by the backend.
type UserRecord struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role"`
	FirebaseUID string `json:"firebaseUID,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// TuitionPost is a tuition request posted by a student.
type TuitionPost struct {
	ID            string  `json:"_id"`
	Subject       string  `json:"subject"`
	ClassLevel    string  `json:"classLevel"`
	Location      string  `json:"location"`
	Schedule      string  `json:"schedule"`
	Details       string  `json:"details"`
	Budget        float64 `json:"budget"`
	Status        string  `json:"status"`
	AppliedTutors int     `json:"appliedTutors"`
}

// Application is a tutor's application to a tuition post.
type Application struct {
	ID             string    `json:"_id"`
	TuitionID      string    `json:"tuitionId"`
	TuitionTitle   string    `json:"tuitionTitle"`
	TutorName      string    `json:"tutorName"`
	TutorEmail     string    `json:"tutorEmail"`
	ExpectedSalary float64   `json:"expectedSalary"`
	Status         string    `json:"status"`
	AppliedAt      time.Time `json:"appliedAt"`
}

// CheckoutRequest is the payment of an accepted application.
type CheckoutRequest struct {
	ExpectedSalary float64 `json:"expectedSalary"`
	TuitionID      string  `json:"tuitionId"`
	TutorEmail     string  `json:"tutorEmail"`
	TutorName      string  `json:"tutorName"`
}

// API is the typed surface of the backend.
type API struct {
	client  *apiclient.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAPI is the constructor for API.
func NewAPI(client *apiclient.Client, m *metrics.Metrics, logger *slog.Logger) *API {
	return &API{client: client, metrics: m, logger: logger}
}

// NewRoleFetcher exposes the API as the domain RoleFetcher.
func NewRoleFetcher(api *API) service.RoleFetcher {
	return api
}

// FetchRole implements service.RoleFetcher with GET /users/{email}/role.
func (a *API) FetchRole(ctx context.Context, email string) (entity.Role, error) {
	start := time.Now()

	var resp struct {
		Role string `json:"role"`
	}
	err := a.client.Get(ctx, "/users/"+url.PathEscape(email)+"/role", &resp)

	if a.metrics != nil {
		a.metrics.RoleFetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		a.countRole("error")

		return entity.RoleUnknown, errors.Wrap(err, "failed to fetch role")
	}
	a.countRole("success")

	return entity.ParseRole(resp.Role), nil
}

func (a *API) countRole(result string) {
	if a.metrics != nil {
		a.metrics.RoleFetches.WithLabelValues(result).Inc()
	}
}

// SaveUser stores or updates the user record; the backend answers with the
// stored record.
func (a *API) SaveUser(ctx context.Context, user UserRecord) (*UserRecord, error) {
	var saved UserRecord
	if err := a.client.Post(ctx, "/users", user, &saved); err != nil {
		return nil, errors.Wrap(err, "failed to save user")
	}

	return &saved, nil
}

// ListUsers returns every user (admin only).
func (a *API) ListUsers(ctx context.Context) ([]UserRecord, error) {
	var users []UserRecord
	if err := a.client.Get(ctx, "/users/all", &users); err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return users, nil
}

// ListApprovedTuitions returns the public tuition listing.
func (a *API) ListApprovedTuitions(ctx context.Context) ([]TuitionPost, error) {
	var posts []TuitionPost
	if err := a.client.Get(ctx, "/all-approved-tuitions", &posts); err != nil {
		return nil, errors.Wrap(err, "failed to list approved tuitions")
	}

	return posts, nil
}

// TuitionPostsByEmail returns the posts of a student.
func (a *API) TuitionPostsByEmail(ctx context.Context, email string) ([]TuitionPost, error) {
	var posts []TuitionPost
	query := url.Values{"email": {email}}
	if err := a.client.Get(ctx, "/tuition-posts?"+query.Encode(), &posts); err != nil {
		return nil, errors.Wrap(err, "failed to list tuition posts")
	}

	return posts, nil
}

// TutorApplications returns the applications of a tutor.
func (a *API) TutorApplications(ctx context.Context, email string) ([]Application, error) {
	var applications []Application
	if err := a.client.Get(ctx, "/tutor/applications/"+url.PathEscape(email), &applications); err != nil {
		return nil, errors.Wrap(err, "failed to list tutor applications")
	}

	return applications, nil
}

// GetApplication returns one application.
func (a *API) GetApplication(ctx context.Context, id string) (*Application, error) {
	var application Application
	if err := a.client.Get(ctx, "/applications/"+url.PathEscape(id), &application); err != nil {
		return nil, errors.Wrap(err, "failed to get application")
	}

	return &application, nil
}

// CreateCheckoutSession starts the payment of an application and returns the
// checkout URL to send the browser to.
func (a *API) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := a.client.Post(ctx, "/create-checkout-session", req, &resp); err != nil {
		return "", errors.Wrap(err, "failed to create checkout session")
	}
	if resp.URL == "" {
		return "", errors.New("checkout session has no url")
	}

	a.logger.InfoContext(ctx, "Checkout session created", slog.String("tuition_id", req.TuitionID))

	return resp.URL, nil
}
