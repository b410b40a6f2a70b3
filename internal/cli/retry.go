package cli

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/logger"
)

// CatalogAttempts bounds how many times a command tries the catalog.
const CatalogAttempts = 3

// RetryCatalog runs op with exponential backoff. The catalog client does not
// retry on its own; only ErrCatalogUnavailable failures are retried.
func RetryCatalog(ctx context.Context, op func(context.Context) error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.Multiplier = 2
	exp.MaxInterval = 2 * time.Second
	exp.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, CatalogAttempts-1), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrCatalogUnavailable) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		logger.Debug("Catalog request failed", "attempt", attempt, "error", err)
		return err
	}, policy)
}
