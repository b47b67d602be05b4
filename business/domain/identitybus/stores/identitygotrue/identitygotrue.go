// Package identitygotrue implements the identity store against a managed
// GoTrue auth server through its admin API.
package identitygotrue

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
)

// Config represents the settings for the GoTrue admin client.
type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// Store talks to the GoTrue admin API.
type Store struct {
	log    *logger.Logger
	client *resty.Client
}

// NewStore constructs a GoTrue backed identity store.
func NewStore(log *logger.Logger, cfg Config) *Store {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.ServiceKey).
		SetHeader("apikey", cfg.ServiceKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Store{
		log:    log,
		client: client,
	}
}

// Create registers a confirmed account.
func (s *Store) Create(ctx context.Context, ni identitybus.NewIdentity) (identitybus.Identity, error) {
	body := adminUserRequest{
		Email:        ni.Email.Address,
		Password:     ni.Password.Reveal(),
		EmailConfirm: ni.Verified,
		UserMetadata: &userMetadata{Name: ni.Name.String()},
	}

	var usr gotrueUser
	var apiErr apiError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&usr).
		SetError(&apiErr).
		Post("/admin/users")
	if err != nil {
		return identitybus.Identity{}, fmt.Errorf("post: %w", err)
	}

	if resp.IsError() {
		return identitybus.Identity{}, s.statusErr(ctx, "create", resp, &apiErr)
	}

	return toIdentity(usr)
}

// Update changes the metadata or credentials of an account.
func (s *Store) Update(ctx context.Context, id uuid.UUID, ui identitybus.UpdateIdentity) (identitybus.Identity, error) {
	var body adminUserRequest

	if ui.Name != nil {
		body.UserMetadata = &userMetadata{Name: ui.Name.String()}
	}

	if ui.Email != nil {
		body.Email = ui.Email.Address
	}

	if ui.Password != nil {
		body.Password = ui.Password.Reveal()
	}

	var usr gotrueUser
	var apiErr apiError
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		SetBody(body).
		SetResult(&usr).
		SetError(&apiErr).
		Put("/admin/users/{id}")
	if err != nil {
		return identitybus.Identity{}, fmt.Errorf("put: %w", err)
	}

	if resp.IsError() {
		return identitybus.Identity{}, s.statusErr(ctx, "update", resp, &apiErr)
	}

	return toIdentity(usr)
}

// Delete removes an account.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	var apiErr apiError
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		SetError(&apiErr).
		Delete("/admin/users/{id}")
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if resp.IsError() {
		return s.statusErr(ctx, "delete", resp, &apiErr)
	}

	return nil
}

// QueryByID retrieves an account by id.
func (s *Store) QueryByID(ctx context.Context, id uuid.UUID) (identitybus.Identity, error) {
	var usr gotrueUser
	var apiErr apiError
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		SetResult(&usr).
		SetError(&apiErr).
		Get("/admin/users/{id}")
	if err != nil {
		return identitybus.Identity{}, fmt.Errorf("get: %w", err)
	}

	if resp.IsError() {
		return identitybus.Identity{}, s.statusErr(ctx, "querybyid", resp, &apiErr)
	}

	return toIdentity(usr)
}

// usersPerPage is the page size requested from the admin user listing.
const usersPerPage = 50

// QueryByEmail searches the admin user listing for an exact email match. The
// listing filter is a substring match, so pages are read until the exact
// address shows up or the listing runs out.
func (s *Store) QueryByEmail(ctx context.Context, email mail.Address) (identitybus.Identity, error) {
	want := strings.ToLower(email.Address)

	for n := 1; ; n++ {
		var page usersPage
		var apiErr apiError
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"filter":   want,
				"page":     strconv.Itoa(n),
				"per_page": strconv.Itoa(usersPerPage),
			}).
			SetResult(&page).
			SetError(&apiErr).
			Get("/admin/users")
		if err != nil {
			return identitybus.Identity{}, fmt.Errorf("get: page[%d]: %w", n, err)
		}

		if resp.IsError() {
			return identitybus.Identity{}, s.statusErr(ctx, "querybyemail", resp, &apiErr)
		}

		for _, usr := range page.Users {
			if strings.EqualFold(usr.Email, want) {
				return toIdentity(usr)
			}
		}

		if len(page.Users) < usersPerPage {
			return identitybus.Identity{}, identitybus.ErrNotFound
		}
	}
}

// Authenticate runs the password grant.
func (s *Store) Authenticate(ctx context.Context, email mail.Address, password string) (identitybus.Identity, error) {
	var tok tokenResponse
	var apiErr apiError
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(tokenRequest{Email: email.Address, Password: password}).
		SetResult(&tok).
		SetError(&apiErr).
		Post("/token")
	if err != nil {
		return identitybus.Identity{}, fmt.Errorf("post: %w", err)
	}

	if resp.IsError() {
		if resp.StatusCode() == http.StatusBadRequest {
			return identitybus.Identity{}, identitybus.ErrAuthenticationFailure
		}
		return identitybus.Identity{}, s.statusErr(ctx, "authenticate", resp, &apiErr)
	}

	return toIdentity(tok.User)
}

func (s *Store) statusErr(ctx context.Context, op string, resp *resty.Response, apiErr *apiError) error {
	status := resp.StatusCode()

	switch {
	case status == http.StatusNotFound:
		return identitybus.ErrNotFound

	case apiErr.ErrorCode == "email_exists",
		status == http.StatusConflict,
		status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(apiErr.text()), "already been registered"):
		return identitybus.ErrEmailExists
	}

	s.log.Error(ctx, "gotrue: unexpected response", "op", op, "status", status, "msg", apiErr.text())

	return fmt.Errorf("%s: gotrue status %d: %s", op, status, apiErr.text())
}
