package blockdata

import (
	"maps"
	"slices"
	"strings"
)

// Kind is the value type held by a key.
type Kind string

const (
	KindInt       Kind = "int"
	KindStringMap Kind = "string_map"
)

// Container holds the block data of one location. A key has exactly one
// kind; setting it with another kind replaces the old value.
//
// Container is not safe for concurrent use. Values handed in and out are
// copied, so callers may keep and mutate their maps.
type Container struct {
	ints map[Key]int32
	maps map[Key]map[string]string
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{
		ints: make(map[Key]int32),
		maps: make(map[Key]map[string]string),
	}
}

// Has reports whether k holds a value of any kind.
func (c *Container) Has(k Key) bool {
	if _, ok := c.ints[k]; ok {
		return true
	}
	_, ok := c.maps[k]
	return ok
}

// KindOf returns the kind stored under k.
func (c *Container) KindOf(k Key) (Kind, bool) {
	if _, ok := c.ints[k]; ok {
		return KindInt, true
	}
	if _, ok := c.maps[k]; ok {
		return KindStringMap, true
	}
	return "", false
}

// Int returns the integer under k. ok is false if k is absent or not an int.
func (c *Container) Int(k Key) (v int32, ok bool) {
	v, ok = c.ints[k]
	return v, ok
}

// IntOr returns the integer under k, or def.
func (c *Container) IntOr(k Key, def int32) int32 {
	if v, ok := c.ints[k]; ok {
		return v
	}
	return def
}

// SetInt stores an integer under k.
func (c *Container) SetInt(k Key, v int32) {
	delete(c.maps, k)
	c.ints[k] = v
}

// StringMap returns a copy of the map under k.
func (c *Container) StringMap(k Key) (map[string]string, bool) {
	m, ok := c.maps[k]
	if !ok {
		return nil, false
	}
	return maps.Clone(m), true
}

// SetStringMap stores a copy of m under k. A nil m is stored as empty.
func (c *Container) SetStringMap(k Key, m map[string]string) {
	delete(c.ints, k)
	cp := make(map[string]string, len(m))
	maps.Copy(cp, m)
	c.maps[k] = cp
}

// Remove deletes k from the container.
func (c *Container) Remove(k Key) {
	delete(c.ints, k)
	delete(c.maps, k)
}

// Len returns the number of keys.
func (c *Container) Len() int {
	return len(c.ints) + len(c.maps)
}

// IsEmpty reports whether the container holds no keys.
func (c *Container) IsEmpty() bool {
	return c.Len() == 0
}

// Keys returns every key sorted by its string form.
func (c *Container) Keys() []Key {
	keys := make([]Key, 0, c.Len())
	for k := range c.ints {
		keys = append(keys, k)
	}
	for k := range c.maps {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// Clone returns a deep copy.
func (c *Container) Clone() *Container {
	out := NewContainer()
	maps.Copy(out.ints, c.ints)
	for k, m := range c.maps {
		out.maps[k] = maps.Clone(m)
	}
	return out
}
