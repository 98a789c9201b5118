package ics

import (
	"context"
	"errors"

	appLog "crmcal/internal/log"
	"crmcal/internal/model"
)

// Load fetches, parses and expands every source into one ordered event list,
// suitable for seeding the event store. Sources that fail are skipped; their
// errors are joined into a single *model.StoreError returned alongside
// whatever events did load.
func Load(ctx context.Context, f *Fetcher, sources []Source, cfg ExpandConfig) ([]model.CalendarEvent, error) {
	results, errs := f.FetchAll(ctx, sources)

	parsed := make([]ParsedEvent, 0)
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, &model.StoreError{Op: "ics parse " + res.Source.ID, Err: err})
			continue
		}
		parsed = append(parsed, events...)
	}

	expanded, err := Expand(parsed, cfg)
	if err != nil {
		return nil, err
	}

	appLog.Info("ics seed loaded", "sources", len(sources), "events", len(expanded.Events), "failures", len(errs))

	if len(errs) > 0 {
		return expanded.Events, &model.StoreError{Op: "ics load", Err: errors.Join(errs...)}
	}
	return expanded.Events, nil
}
