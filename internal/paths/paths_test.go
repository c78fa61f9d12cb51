package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

func TestResolveDatabasePath(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantPath string
		detached bool
	}{
		{"md5 index path", "/a/b/set-md5.idx", "/a/b/set", true},
		{"sha1 index path", "/a/b/set-sha1.idx", "/a/b/set", true},
		{"kdb database path", "/a/b/set.kdb", "/a/b/set.kdb", false},
		{"plain text path", "/a/b/NSRLFile.txt", "/a/b/NSRLFile.txt", false},
		{"suffix in middle only", "/a/set-md5.idx.bak", "/a/set-md5.idx.bak", false},
		{"relative index path", "set-sha1.idx", "set", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detached, err := ResolveDatabasePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, got)
			assert.Equal(t, tt.detached, detached)
		})
	}
}

func TestResolveDatabasePath_Empty(t *testing.T) {
	_, _, err := ResolveDatabasePath("")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestResolveDatabasePath_BareSuffix(t *testing.T) {
	// A path that is nothing but the suffix has no stem to derive.
	got, detached, err := ResolveDatabasePath("-md5.idx")
	require.NoError(t, err)
	assert.False(t, detached)
	assert.Equal(t, "-md5.idx", got)
}

func TestIndexPath(t *testing.T) {
	got, err := IndexPath("/a/b/set", types.HashMD5)
	require.NoError(t, err)
	assert.Equal(t, "/a/b/set-md5.idx", got)

	got, err = IndexPath("/a/b/set", types.HashSHA1)
	require.NoError(t, err)
	assert.Equal(t, "/a/b/set-sha1.idx", got)
}

func TestIndexPath_NoConvention(t *testing.T) {
	_, err := IndexPath("/a/b/set", types.HashSHA256)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestIndexPath_RoundTripsThroughResolver(t *testing.T) {
	idxPath, err := IndexPath("/corpora/known-good", types.HashSHA1)
	require.NoError(t, err)

	dbPath, detached, err := ResolveDatabasePath(idxPath)
	require.NoError(t, err)
	assert.True(t, detached)
	assert.Equal(t, "/corpora/known-good", dbPath)
}
