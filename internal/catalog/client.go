// Package catalog reads plant species and environment tags from the
// remote read-only catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/models"
	"github.com/julianstephens/plantmanager/internal/validation"
)

// Fetcher is the read side of the catalog. Client implements it.
type Fetcher interface {
	FetchPage(ctx context.Context, page, size int) ([]models.PlantSpecies, error)
	FetchEnvironments(ctx context.Context) ([]models.Environment, error)
}

// Client never caches: every call goes to the service, and every failure
// (network, non-2xx status, undecodable or invalid body, cancelled
// context) matches ErrCatalogUnavailable. Retrying is left to callers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	debug      bool
	userAgent  string

	rest     *resty.Client
	validate *validation.Validator
}

var _ Fetcher = (*Client)(nil)

func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, apperrors.InvalidInput("catalog url cannot be empty")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    constants.DefaultCatalogTimeout,
		userAgent:  constants.AppName + "/" + constants.Version,
		validate:   validation.New(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.debug {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.httpClient
		hc.Transport = &debugTransport{base: base}
		c.httpClient = &hc
	}

	c.rest = resty.NewWithClient(c.httpClient).
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", c.userAgent)

	return c, nil
}

// BaseURL returns the catalog root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchPage returns one page of species sorted by name ascending. Pages
// are numbered from 1.
func (c *Client) FetchPage(ctx context.Context, page, size int) ([]models.PlantSpecies, error) {
	if page < 1 {
		return nil, apperrors.InvalidInput("page must be at least 1, got %d", page)
	}
	if size < 1 {
		return nil, apperrors.InvalidInput("page size must be at least 1, got %d", size)
	}

	var species []models.PlantSpecies
	err := c.get(ctx, "fetch_page", constants.CatalogPlantsPath, map[string]string{
		"_sort":  "name",
		"_order": "asc",
		"_page":  strconv.Itoa(page),
		"_limit": strconv.Itoa(size),
	}, &species)
	if err != nil {
		return nil, err
	}

	for i := range species {
		if err := c.validate.Validate(species[i]); err != nil {
			return nil, apperrors.CatalogUnavailable("fetch_page", fmt.Errorf("species %d: %v", i, err))
		}
	}
	sort.SliceStable(species, func(i, j int) bool { return species[i].Name < species[j].Name })
	return species, nil
}

// FetchEnvironments returns the environment tags sorted by title, with the
// synthetic "all" tag first.
func (c *Client) FetchEnvironments(ctx context.Context) ([]models.Environment, error) {
	var envs []models.Environment
	err := c.get(ctx, "fetch_environments", constants.CatalogEnvPath, map[string]string{
		"_sort":  "title",
		"_order": "asc",
	}, &envs)
	if err != nil {
		return nil, err
	}

	out := make([]models.Environment, 0, len(envs)+1)
	out = append(out, models.Environment{Key: constants.EnvironmentAllKey, Title: constants.EnvironmentAllTitle})
	for i, env := range envs {
		if err := c.validate.Validate(env); err != nil {
			return nil, apperrors.CatalogUnavailable("fetch_environments", fmt.Errorf("environment %d: %v", i, err))
		}
		if env.Key == constants.EnvironmentAllKey {
			continue
		}
		out = append(out, env)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string, params map[string]string, dst any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		requestsTotal.WithLabelValues(op, outcome).Inc()
		requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	res, err := c.rest.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetQueryParams(params).
		Get("/" + path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return apperrors.CatalogUnavailable(op, ctxErr)
		}
		return apperrors.CatalogUnavailable(op, err)
	}
	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() > 299 {
		return apperrors.CatalogUnavailable(op, fmt.Errorf("unexpected status %d", res.StatusCode()))
	}

	if err := json.Unmarshal(res.Body(), dst); err != nil {
		return apperrors.CatalogUnavailable(op, fmt.Errorf("malformed body: %w", err))
	}
	return nil
}
