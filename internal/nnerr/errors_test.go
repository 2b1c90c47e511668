package nnerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := Dimensionf("linear.Forward", "expected %d features, got %d", 3, 4)

	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.False(t, errors.Is(err, ErrUnimplemented))
	assert.Equal(t, DimensionMismatch, KindOf(err))
	assert.Equal(t, "linear.Forward: dimension mismatch: expected 3 features, got 4", err.Error())
}

func TestErrorSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading: %w", Shapef("ctc.Align", "empty targets"))

	assert.True(t, errors.Is(err, ErrUnsupportedShape))
	assert.Equal(t, UnsupportedShape, KindOf(err))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("boom")))
	assert.Equal(t, "kind(0)", Kind(0).String())
	assert.Equal(t, "unimplemented", Unimplemented.String())
}
