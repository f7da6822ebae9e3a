package streams

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryTracksStreamsPerUser(t *testing.T) {
	r := NewRegistry()

	require.Zero(t, r.ActiveForUser("u1"))

	id1 := r.Add("u1", "f1")
	id2 := r.Add("u1", "f2")
	r.Add("u2", "f1")

	require.Equal(t, 2, r.ActiveForUser("u1"))
	require.Equal(t, 1, r.ActiveForUser("u2"))

	stream, ok := r.Get(id1)
	require.True(t, ok)
	require.Equal(t, "u1", stream.UserID)
	require.Equal(t, "f1", stream.FileID)

	require.NoError(t, r.Remove(id1))
	require.Equal(t, 1, r.ActiveForUser("u1"))

	require.NoError(t, r.Remove(id2))
	require.Zero(t, r.ActiveForUser("u1"))

	_, ok = r.Get(id1)
	require.False(t, ok)
}

func TestRegistryRemoveUnknownStream(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Remove(StreamID(42)))
}
