package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/core"
	"github.com/JonMunkholm/etl/internal/csvio"
	"github.com/JonMunkholm/etl/internal/logging"
	"github.com/JonMunkholm/etl/internal/storage"
)

// ErrNoFlights is returned when no flight could be fetched. The raw store is
// left untouched in that case.
var ErrNoFlights = errors.New("no flights retrieved")

// Fetcher returns the JSON body of one flight.
type Fetcher interface {
	Flight(ctx context.Context, id int64) ([]byte, error)
}

// Extractor writes fetched flights into the raw store.
type Extractor struct {
	fetcher Fetcher
	store   storage.Store
	ids     []int64
	table   string
}

// New creates an extractor for the configured flight ids.
func New(fetcher Fetcher, store storage.Store, cfg config.ExtractConfig) *Extractor {
	table := cfg.Table
	if table == "" {
		table = core.KindFlightData.Source()
	}
	return &Extractor{fetcher: fetcher, store: store, ids: cfg.FlightIDs, table: table}
}

// Result summarizes one extract.
type Result struct {
	Object  string  `json:"object"`
	Fetched []int64 `json:"fetched"`
	Skipped []int64 `json:"skipped,omitempty"`
	Columns int     `json:"columns"`
}

// Run fetches every flight id in order and writes the flattened table.
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	logger := logging.FromContext(ctx)
	res := &Result{Object: csvio.FileName(e.table)}

	var objects [][]field
	for _, id := range e.ids {
		body, err := e.fetcher.Flight(ctx, id)
		if errors.Is(err, ErrUnexpectedStatus) {
			logger.Warn("flight skipped", "flight_id", id, "error", err)
			res.Skipped = append(res.Skipped, id)
			continue
		}
		if err != nil {
			return nil, err
		}

		obj, err := decodeObject(body)
		if err != nil {
			logger.Warn("flight skipped", "flight_id", id, "error", err)
			res.Skipped = append(res.Skipped, id)
			continue
		}
		objects = append(objects, obj)
		res.Fetched = append(res.Fetched, id)
	}

	if len(objects) == 0 {
		return res, ErrNoFlights
	}

	raw := flatten(e.table, objects)
	res.Columns = len(raw.Columns)

	data, err := csvio.Encode(core.FromRaw(raw))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.table, err)
	}
	if err := e.store.Put(ctx, res.Object, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.Object, err)
	}

	logger.Info("flights extracted",
		"object", res.Object,
		"store", e.store.Location(),
		"fetched", len(res.Fetched),
		"skipped", len(res.Skipped),
	)
	return res, nil
}
