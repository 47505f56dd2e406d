package pipeline

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-retry"

	"github.com/JonMunkholm/etl/internal/core"
	"github.com/JonMunkholm/etl/internal/csvio"
	"github.com/JonMunkholm/etl/internal/logging"
	"github.com/JonMunkholm/etl/internal/storage"
	"github.com/JonMunkholm/etl/internal/warehouse"
)

// Publisher receives every canonical frame of a run.
type Publisher interface {
	Publish(ctx context.Context, f *core.Frame) error
	Name() string
}

// CSVPublisher writes frames as <table>.csv into a store.
type CSVPublisher struct {
	store storage.Store
}

// NewCSVPublisher returns a publisher writing to store.
func NewCSVPublisher(store storage.Store) *CSVPublisher {
	return &CSVPublisher{store: store}
}

func (p *CSVPublisher) Publish(ctx context.Context, f *core.Frame) error {
	data, err := csvio.Encode(f)
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.Name, err)
	}
	return p.store.Put(ctx, csvio.FileName(f.Name), data)
}

func (p *CSVPublisher) Name() string { return p.store.Location() }

// SinkPublisher loads frames into a warehouse.
type SinkPublisher struct {
	sink warehouse.Sink
}

// NewSinkPublisher returns a publisher loading into sink.
func NewSinkPublisher(sink warehouse.Sink) *SinkPublisher {
	return &SinkPublisher{sink: sink}
}

func (p *SinkPublisher) Publish(ctx context.Context, f *core.Frame) error {
	return p.sink.Write(ctx, f)
}

func (p *SinkPublisher) Name() string { return "warehouse:" + p.sink.Driver() }

// publish hands f to pub, retrying with exponential backoff. Cancellation of
// ctx is not retried.
func (p *Pipeline) publish(ctx context.Context, pub Publisher, f *core.Frame) error {
	backoff := retry.WithMaxRetries(uint64(p.opts.PublishRetries), retry.NewExponential(p.opts.RetryBaseDelay))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := pub.Publish(ctx, f)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		logging.FromContext(ctx).Debug("publish attempt failed",
			"output", f.Name,
			"publisher", pub.Name(),
			"attempt", attempt,
			"error", err,
		)
		return retry.RetryableError(err)
	})
}
