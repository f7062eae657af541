package cosmo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedshift(t *testing.T) {
	c, err := New(9, []float64{0, 1, 3}, []float64{1, 2, 5})
	require.NoError(t, err)

	tests := []struct {
		t, z float64
	}{
		{0, 9},
		{1, 4},
		{2, 10.0/3.5 - 1},
		{3, 1},
	}
	for i := range tests {
		z, err := c.Redshift(tests[i].t)
		if err != nil {
			t.Errorf("%d) Got error %s.", i+1, err.Error())
		} else if d := z - tests[i].z; d > 1e-12 || d < -1e-12 {
			t.Errorf("%d) Expected z = %g, got %g.", i+1, tests[i].z, z)
		}
	}

	_, err = c.Redshift(3.5)
	assert.True(t, errors.Is(err, ErrOutOfTable))
	_, err = c.Redshift(-1)
	assert.True(t, errors.Is(err, ErrOutOfTable))
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		z    float64
		t, a []float64
	}{
		{0, []float64{0, 1}, []float64{1}},
		{0, []float64{0}, []float64{1}},
		{-1, []float64{0, 1}, []float64{1, 2}},
		{0, []float64{0, 1}, []float64{1, 0}},
		{0, []float64{1, 1}, []float64{1, 2}},
	}
	for i := range tests {
		if _, err := New(tests[i].z, tests[i].t, tests[i].a); err == nil {
			t.Errorf("%d) Expected error.", i+1)
		}
	}
}
