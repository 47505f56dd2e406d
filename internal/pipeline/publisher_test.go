package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/etl/internal/core"
)

type recordingSink struct {
	written []string
}

func (s *recordingSink) Write(_ context.Context, f *core.Frame) error {
	s.written = append(s.written, f.Name)
	return nil
}

func (s *recordingSink) Close() error   { return nil }
func (s *recordingSink) Driver() string { return "fake" }

func TestSinkPublisher(t *testing.T) {
	sink := &recordingSink{}
	pub := NewSinkPublisher(sink)
	assert.Equal(t, "warehouse:fake", pub.Name())

	f := newFixture(t, map[string]string{"Account.csv": accountCSV})
	p := f.pipeline(Options{}, pub)
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Account", core.OwnershipTable}, sink.written)
}

func TestCSVPublisher_Name(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, f.clean.Location(), NewCSVPublisher(f.clean).Name())
}
