package capability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

func TestNewFactory_Unconstructible(t *testing.T) {
	_, err := NewFactory[*energy.Bank]("battery", nil)
	assert.ErrorIs(t, err, ErrUnconstructibleType)

	_, err = NewFactory("", func(loc world.Location) (*energy.Bank, error) { return energy.NewBank(loc), nil })
	assert.ErrorIs(t, err, ErrUnconstructibleType)
}

func TestFactory_New(t *testing.T) {
	calls := 0
	f, err := NewFactory("battery", func(loc world.Location) (*energy.Bank, error) {
		calls++
		return energy.NewBank(loc), nil
	})
	require.NoError(t, err)
	assert.Equal(t, TypeID("battery"), f.TypeID())

	loc := world.At("w", 1, 2, 3)
	a, err := f.New(loc)
	require.NoError(t, err)
	b, err := f.New(loc)
	require.NoError(t, err)

	assert.Equal(t, loc, a.Anchor())
	assert.NotSame(t, a, b, "factory never caches")
	assert.Equal(t, 2, calls)
}

func TestFactory_ConstructionFailed(t *testing.T) {
	cause := errors.New("out of copper")
	f, err := NewFactory("battery", func(world.Location) (*energy.Bank, error) {
		return nil, cause
	})
	require.NoError(t, err)

	_, err = f.New(world.At("w", 0, 0, 0))
	assert.ErrorIs(t, err, ErrConstructionFailed)
	assert.ErrorIs(t, err, cause, "cause stays reachable")

	var ce *ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, TypeID("battery"), ce.TypeID)
	assert.Equal(t, world.At("w", 0, 0, 0), ce.Anchor)
}

func TestFactory_ConstructorPanic(t *testing.T) {
	f, err := NewFactory("battery", func(world.Location) (*energy.Bank, error) {
		panic("boom")
	})
	require.NoError(t, err)

	inst, err := f.New(world.At("w", 0, 0, 0))
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrConstructionFailed)
	assert.Contains(t, err.Error(), "boom")
}
