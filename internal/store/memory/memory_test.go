package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo-app/saldo/internal/store"
)

func TestCRUD(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Create(ctx, "col", map[string]any{"name": "a", "n": 1})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, "col", id)
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Data["name"])

	require.NoError(t, s.Merge(ctx, "col", id, map[string]any{"n": 2}))
	doc, err = s.Get(ctx, "col", id)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Data["n"])
	assert.Equal(t, "a", doc.Data["name"])

	require.NoError(t, s.Delete(ctx, "col", id))
	_, err = s.Get(ctx, "col", id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting an absent document is a no-op.
	assert.NoError(t, s.Delete(ctx, "col", "missing"))
	assert.ErrorIs(t, s.Merge(ctx, "col", "missing", map[string]any{"n": 1}), store.ErrNotFound)
}

func TestGet_ReturnsIsolatedCopy(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Create(ctx, "col", map[string]any{"name": "a"})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "col", id)
	require.NoError(t, err)
	doc.Data["name"] = "mutated"

	doc, err = s.Get(ctx, "col", id)
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Data["name"])
}

func TestQuery(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	for _, doc := range []map[string]any{
		{"name": "b", "active": true, "date": day(2)},
		{"name": "a", "active": true, "date": day(3)},
		{"name": "c", "active": false, "date": day(1)},
	} {
		_, err := s.Create(ctx, "col", doc)
		require.NoError(t, err)
	}

	docs, err := s.Query(ctx, "col", store.Query{OrderBy: "name"})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].Data["name"])
	assert.Equal(t, "c", docs[2].Data["name"])

	docs, err = s.Query(ctx, "col", store.Query{OrderBy: "date", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, day(3), docs[0].Data["date"])

	docs, err = s.Query(ctx, "col", store.Query{
		Filters: []store.Filter{{Field: "active", Op: store.OpEqual, Value: true}},
		OrderBy: "name",
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	docs, err = s.Query(ctx, "col", store.Query{
		Filters: []store.Filter{
			{Field: "date", Op: store.OpGreaterEqual, Value: day(2)},
			{Field: "date", Op: store.OpLessEqual, Value: day(3)},
		},
	})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestBatchCreate(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	ids, err := s.BatchCreate(ctx, "col", []map[string]any{
		{"n": 1}, {"n": 2}, {"n": 3},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	docs, err := s.Query(ctx, "col", store.Query{})
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestRunTransaction_ReadModifyWrite(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Create(ctx, "col", map[string]any{"n": 1})
	require.NoError(t, err)

	err = s.RunTransaction(ctx, func(tx store.Tx) error {
		doc, err := tx.Get("col", id)
		if err != nil {
			return err
		}
		return tx.Merge("col", id, map[string]any{"n": doc.Data["n"].(int) + 1})
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "col", id)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Data["n"])
}

func TestRunTransaction_PropagatesError(t *testing.T) {
	s := New()
	defer s.Close()

	err := s.RunTransaction(context.Background(), func(tx store.Tx) error {
		_, err := tx.Get("col", "missing")
		return err
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func waitForDocs(t *testing.T, sub store.Subscription, want int) []store.Doc {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case docs, ok := <-sub.Updates():
			require.True(t, ok, "subscription closed while waiting for %d docs", want)
			if len(docs) >= want {
				return docs
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %d docs", want)
		}
	}
}

func TestListen(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	sub, err := s.Listen(ctx, "col", store.Query{OrderBy: "n"})
	require.NoError(t, err)
	defer sub.Close()

	// Initial snapshot of the empty collection.
	select {
	case docs := <-sub.Updates():
		assert.Empty(t, docs)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	_, err = s.Create(ctx, "col", map[string]any{"n": 1})
	require.NoError(t, err)
	docs := waitForDocs(t, sub, 1)
	assert.Equal(t, 1, docs[0].Data["n"])

	// Rapid writes may coalesce; the final state always arrives.
	for i := 2; i <= 5; i++ {
		_, err = s.Create(ctx, "col", map[string]any{"n": i})
		require.NoError(t, err)
	}
	docs = waitForDocs(t, sub, 5)
	assert.Len(t, docs, 5)
}

func TestListen_FilteredAndClosed(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	sub, err := s.Listen(ctx, "col", store.Query{
		Filters: []store.Filter{{Field: "active", Op: store.OpEqual, Value: true}},
	})
	require.NoError(t, err)

	_, err = s.Create(ctx, "col", map[string]any{"active": false})
	require.NoError(t, err)
	_, err = s.Create(ctx, "col", map[string]any{"active": true})
	require.NoError(t, err)

	docs := waitForDocs(t, sub, 1)
	require.Len(t, docs, 1)
	assert.Equal(t, true, docs[0].Data["active"])

	sub.Close()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				assert.NoError(t, sub.Err())
				return
			}
		case <-deadline:
			t.Fatal("updates channel not closed after Close")
		}
	}
}

func TestListen_UnreadConsumerDoesNotBlockWriters(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	sub, err := s.Listen(ctx, "col", store.Query{})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, err := s.Create(ctx, "col", map[string]any{"n": i})
			assert.NoError(t, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writers blocked behind an unread subscription")
	}
	sub.Close()
}
