package schemagraph_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/pointer"
)

func TestSession_SelectionFollowsEdits(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sess := schemagraph.NewSession(nil, schemagraph.WithLogger(zap.New(core)))
	_, err := uuid.Parse(sess.ID())
	require.NoError(t, err)

	a, err := sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpAddProperty, Pointer: pointer.Root, Name: "a"})
	require.NoError(t, err)
	require.NoError(t, sess.Select(a))

	b, err := sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpRename, Pointer: a, Name: "b"})
	require.NoError(t, err)
	sel, ok := sess.Selected()
	require.True(t, ok)
	assert.Equal(t, b, sel)

	_, err = sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpSetArray, Pointer: b, Flag: true})
	require.NoError(t, err)
	sel, _ = sess.Selected()
	assert.Equal(t, b, sel)

	removed, err := sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpDelete, Pointer: b})
	require.NoError(t, err)
	assert.Equal(t, b, removed)
	_, ok = sess.Selected()
	assert.False(t, ok)

	applied := logs.FilterMessage("edit applied")
	assert.Equal(t, 4, applied.Len())
	for _, e := range applied.All() {
		assert.Equal(t, sess.ID(), e.ContextMap()["session"])
	}
}

func TestSession_RejectedEditKeepsStore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sess := schemagraph.NewSession(nil, schemagraph.WithLogger(zap.New(core)))
	def, err := sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpAddDefinition, Name: "A"})
	require.NoError(t, err)
	_, err = sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpAddReference, Pointer: pointer.Root, Name: "r", Target: def})
	require.NoError(t, err)
	before := sess.Store()

	_, err = sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpDelete, Pointer: def})
	require.ErrorIs(t, err, schemagraph.ErrInUse)
	assert.Same(t, before, sess.Store())

	rejected := logs.FilterMessage("edit rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.WarnLevel, rejected[0].Level)
	assert.Equal(t, schemagraph.CodeInUse, rejected[0].ContextMap()["code"])

	_, err = sess.Dispatch(schemagraph.Edit{Op: "explode"})
	assert.ErrorIs(t, err, schemagraph.ErrInvalidValue)
}

func TestSession_MoveTracksSelection(t *testing.T) {
	sess := schemagraph.NewSession(nil)
	c, err := sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpAddCombination, Pointer: pointer.Root, Name: "c", Kind: schemagraph.OneOf})
	require.NoError(t, err)
	for range 3 {
		_, err = sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpAddItem, Pointer: c})
		require.NoError(t, err)
	}
	require.NoError(t, sess.Select("#/properties/c/oneOf/2"))

	_, err = sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpDeleteItem, Pointer: "#/properties/c/oneOf/0"})
	require.NoError(t, err)
	sel, _ := sess.Selected()
	assert.Equal(t, pointer.Pointer("#/properties/c/oneOf/1"), sel)

	_, err = sess.Dispatch(schemagraph.Edit{Op: schemagraph.OpSetCombinator, Pointer: c, Kind: schemagraph.AllOf})
	require.NoError(t, err)
	sel, _ = sess.Selected()
	assert.Equal(t, pointer.Pointer("#/properties/c/allOf/1"), sel)

	sess.Load(schemagraph.New())
	_, ok := sess.Selected()
	assert.False(t, ok)
	assert.ErrorIs(t, sess.Select(c), schemagraph.ErrNotFound)
}
