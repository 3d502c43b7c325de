package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile(t *testing.T) {
	var tr Tracker

	assert.True(t, tr.Reconcile(800, 600), "first call")
	assert.False(t, tr.Reconcile(800, 600), "repeat")
	assert.False(t, tr.Reconcile(800, 600), "repeat again")
	assert.True(t, tr.Reconcile(640, 600), "width change")
	assert.True(t, tr.Reconcile(640, 480), "height change")
	assert.False(t, tr.Reconcile(640, 480))
	assert.Equal(t, Size{Width: 640, Height: 480}, tr.Current())
}

func TestReconcileFirstCallWithZeroSize(t *testing.T) {
	var tr Tracker
	assert.True(t, tr.Reconcile(0, 0))
	assert.False(t, tr.Reconcile(0, 0))
}

func TestDensityConversion(t *testing.T) {
	tests := []struct {
		name          string
		w, h          int
		density       float64
		physW, physH  int
		logicW, logicH int
	}{
		{"unit", 400, 300, 1, 400, 300, 400, 300},
		{"retina", 400, 300, 2, 800, 600, 200, 150},
		{"fractional", 400, 300, 1.5, 600, 450, 266, 200},
		{"missing density", 400, 300, 0, 400, 300, 400, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ToPhysical(tt.w, tt.h, tt.density)
			assert.Equal(t, tt.physW, w)
			assert.Equal(t, tt.physH, h)

			w, h = ToLogical(tt.w, tt.h, tt.density)
			assert.Equal(t, tt.logicW, w)
			assert.Equal(t, tt.logicH, h)
		})
	}
}
