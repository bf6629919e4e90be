package drafts_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemagraph/drafts"
	"github.com/reoring/schemagraph/jsonschema"
)

func open(t *testing.T) *drafts.Store {
	t.Helper()
	s, err := drafts.Open(context.Background(), filepath.Join(t.TempDir(), "nested", "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSave_DedupesLatest(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	first, created, err := s.Save(ctx, "order", []byte(`{"type":"object"}`))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, drafts.Digest([]byte(`{"type":"object"}`)), first.Digest)
	assert.Len(t, first.Digest, 64)

	again, created, err := s.Save(ctx, "order", []byte(`{"type":"object"}`))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	second, created, err := s.Save(ctx, "order", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Greater(t, second.ID, first.ID)

	// identical to an older revision but not the latest: stored again
	third, created, err := s.Save(ctx, "order", []byte(`{"type":"object"}`))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.Digest, third.Digest)

	hist, err := s.History(ctx, "order")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{hist[0].ID, hist[1].ID, hist[2].ID})
	assert.Nil(t, hist[0].Content)
}

func TestLatestAndGet(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	_, err := s.Latest(ctx, "missing")
	assert.True(t, errors.Is(err, drafts.ErrNotFound))
	_, err = s.Get(ctx, 42)
	assert.True(t, errors.Is(err, drafts.ErrNotFound))

	_, _, err = s.Save(ctx, "a", []byte("one"))
	require.NoError(t, err)
	rev, _, err := s.Save(ctx, "a", []byte("two"))
	require.NoError(t, err)
	_, _, err = s.Save(ctx, "b", []byte("three"))
	require.NoError(t, err)

	latest, err := s.Latest(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "two", string(latest.Content))
	assert.Equal(t, rev.ID, latest.ID)
	assert.False(t, latest.CreatedAt.IsZero())

	got, err := s.Get(ctx, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, latest, got)
}

func TestSave_EmptyName(t *testing.T) {
	_, _, err := open(t).Save(context.Background(), "", []byte("x"))
	require.Error(t, err)
}

func TestSaver_WritesIndentedJSON(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	doc, err := jsonschema.DecodeJSON(strings.NewReader(`{"type":"object","properties":{}}`))
	require.NoError(t, err)

	save := s.Saver("doc")
	rev, created, err := save(ctx, doc)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "{\n  \"type\": \"object\",\n  \"properties\": {}\n}\n", string(rev.Content))

	_, created, err = save(ctx, doc)
	require.NoError(t, err)
	assert.False(t, created)
}
