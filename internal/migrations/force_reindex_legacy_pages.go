package migrations

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/do"

	"github.com/docuseek/indexcore/internal/migration"
	"github.com/docuseek/indexcore/internal/query"
)

// ForceReindexLegacyPages clears the content hash of every page imported from
// the legacy system (their IDs carry the "legacy-" prefix), so the indexing
// pipeline reprocesses them with the current extraction stages.
type ForceReindexLegacyPages struct{}

func (m *ForceReindexLegacyPages) Identifier() string {
	return "force_reindex_legacy_pages"
}

func (m *ForceReindexLegacyPages) Run(ctx context.Context, i *do.Injector) error {
	client, err := do.Invoke[*migration.Client](i)
	if err != nil {
		return fmt.Errorf("failed to initialize migration client: %w", err)
	}
	logger, err := do.Invoke[zerolog.Logger](i)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.With().
		Str("component", "migration").
		Str("identifier", m.Identifier()).
		Logger()

	// An empty patch still clears the content hash of every match.
	result, err := client.Update(ctx, "pages",
		query.Query{"id": map[string]any{"like": "legacy-%"}},
		migration.Patch(nil),
	)
	if err != nil {
		return fmt.Errorf("failed to mark legacy pages for reindex: %w", err)
	}

	logger.Info().
		Int64("matched", result.Matched).
		Msg("marked legacy pages for reindex")

	return nil
}
