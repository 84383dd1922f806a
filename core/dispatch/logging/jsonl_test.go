package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recs := []LogRecord{
		{Timestamp: base, RequestID: "r1", Outcome: "assigned", DriverID: "d1", Candidates: []string{"d1", "d2"}},
		{Timestamp: base.Add(time.Minute), RequestID: "r2", Outcome: "no_driver", Candidates: []string{"d2"}},
		{Timestamp: base.Add(2 * time.Minute), RequestID: "r3", Outcome: "partial", DriverID: "d3"},
	}
	for _, r := range recs {
		require.NoError(t, store.Append(ctx, r))
	}

	tests := []struct {
		name string
		q    LogQuery
		want []string
	}{
		{"all", LogQuery{}, []string{"r1", "r2", "r3"}},
		{"by outcome", LogQuery{Outcome: "partial"}, []string{"r3"}},
		{"by candidate", LogQuery{DriverID: "d2"}, []string{"r1", "r2"}},
		{"by window", LogQuery{Start: base.Add(30 * time.Second), End: base.Add(90 * time.Second)}, []string{"r2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := store.Query(ctx, tt.q)
			require.NoError(t, err)
			var ids []string
			for _, r := range out {
				ids = append(ids, r.RequestID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestJSONLStore_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"request_id\":\"ok\"}\n"), 0o644))
	store, err := NewJSONLStore(path)
	require.NoError(t, err)

	out, err := store.Query(context.Background(), LogQuery{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].RequestID)
}
