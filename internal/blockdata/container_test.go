package blockdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyStored = MustKey("blockenergy", "stored_energy")
	keyFaces  = MustKey("blockenergy", "allowed_faces")
)

func TestKey(t *testing.T) {
	k, err := NewKey("blockenergy", "max_energy")
	require.NoError(t, err)
	assert.Equal(t, "blockenergy:max_energy", k.String())

	parsed, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	for _, bad := range []string{"nocolon", ":name", "ns:", "NS:name", "ns:has space"} {
		_, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, "ParseKey(%q)", bad)
	}

	assert.Panics(t, func() { MustKey("", "x") })
}

func TestContainer_IntAndMap(t *testing.T) {
	c := NewContainer()
	assert.True(t, c.IsEmpty())

	c.SetInt(keyStored, 42)
	v, ok := c.Int(keyStored)
	assert.True(t, ok)
	assert.Equal(t, int32(42), v)
	assert.Equal(t, int32(7), c.IntOr(keyFaces, 7))

	c.SetStringMap(keyFaces, map[string]string{"UP": "OUTPUT"})
	m, ok := c.StringMap(keyFaces)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"UP": "OUTPUT"}, m)

	assert.Equal(t, []Key{keyFaces, keyStored}, c.Keys())
	assert.Equal(t, 2, c.Len())
}

func TestContainer_KindReplacement(t *testing.T) {
	c := NewContainer()
	c.SetInt(keyStored, 1)
	c.SetStringMap(keyStored, nil)

	kind, ok := c.KindOf(keyStored)
	require.True(t, ok)
	assert.Equal(t, KindStringMap, kind)
	_, isInt := c.Int(keyStored)
	assert.False(t, isInt)
	assert.Equal(t, 1, c.Len())

	m, _ := c.StringMap(keyStored)
	assert.NotNil(t, m, "nil map is stored as empty")
}

func TestContainer_CopiesMaps(t *testing.T) {
	in := map[string]string{"UP": "OUTPUT"}
	c := NewContainer()
	c.SetStringMap(keyFaces, in)
	in["UP"] = "INPUT"

	out, _ := c.StringMap(keyFaces)
	assert.Equal(t, "OUTPUT", out["UP"])
	out["UP"] = "DISABLED"

	again, _ := c.StringMap(keyFaces)
	assert.Equal(t, "OUTPUT", again["UP"])
}

func TestContainer_RemoveAndClone(t *testing.T) {
	c := NewContainer()
	c.SetInt(keyStored, 5)
	c.SetStringMap(keyFaces, map[string]string{"DOWN": "INPUT"})

	clone := c.Clone()
	c.Remove(keyStored)

	assert.False(t, c.Has(keyStored))
	assert.True(t, clone.Has(keyStored))
	assert.Equal(t, 2, clone.Len())
}
