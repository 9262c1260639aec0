package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("source_type", "cash"),
		attribute.String("account_id", "456"),
		attribute.String("reason", "unbalanced_entry"),
	)
	require.Len(t, attrs, 2)

	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("source_type"))
	assert.Contains(t, keys, attribute.Key("reason"))
	assert.NotContains(t, keys, attribute.Key("account_id"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordJournalPosted(context.Background(), "manual")
		m.RecordJournalRejected(context.Background(), "manual", "unbalanced_entry")
		m.RecordAccountChange(context.Background(), "create")
		m.RecordReport(context.Background(), "trial_balance")
	})
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "goldbook-test"}, noop.NewMeterProvider())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.RecordJournalPosted(context.Background(), "bank")
		m.RecordRateLimitDenied(context.Background(), "/api/journal-entries", "write-rate")
	})
}
