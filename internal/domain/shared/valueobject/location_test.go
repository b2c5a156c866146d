package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation(t *testing.T) {
	t.Run("normalizes state", func(t *testing.T) {
		loc, err := NewLocation(" Dallas ", "tx", "75201")
		require.NoError(t, err)
		assert.Equal(t, "Dallas", loc.City())
		assert.Equal(t, "TX", loc.State())
		assert.Equal(t, "Dallas, TX", loc.String())
	})

	t.Run("rejects long state", func(t *testing.T) {
		_, err := NewLocation("Dallas", "Texas", "")
		assert.Error(t, err)
	})

	t.Run("empty is allowed", func(t *testing.T) {
		loc, err := NewLocation("", "", "")
		require.NoError(t, err)
		assert.True(t, loc.IsEmpty())
	})
}

func TestLocation_JSONAndScan(t *testing.T) {
	loc := MustNewLocation("Memphis", "TN", "38103")

	data, err := json.Marshal(loc)
	require.NoError(t, err)

	var decoded Location
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, loc.Equals(decoded))

	var scanned Location
	require.NoError(t, scanned.Scan(string(data)))
	assert.True(t, loc.Equals(scanned))

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsEmpty())

	v, err := Location{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
