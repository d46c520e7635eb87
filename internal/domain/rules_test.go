package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules_Validate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())

	tests := []struct {
		name   string
		modify func(r *Rules)
	}{
		{"zero capacity", func(r *Rules) { r.Capacity = 0 }},
		{"negative max batches", func(r *Rules) { r.MaxBatches = -1 }},
		{"no ranges", func(r *Rules) { r.DateRanges = nil }},
		{"ranges not increasing", func(r *Rules) {
			r.DateRanges = []DateRange{{2020, "a"}, {2018, "b"}}
		}},
		{"duplicate label", func(r *Rules) {
			r.DateRanges = []DateRange{{2018, "old"}, {2020, "old"}}
		}},
		{"open label collides", func(r *Rules) { r.OpenRangeLabel = "2015-2018" }},
		{"label with separator", func(r *Rules) { r.DateRanges[0].Label = "2015/2018" }},
		{"category named like a batch", func(r *Rules) {
			r.Domains = map[string]Placement{"x": {"batch_001", "y"}}
		}},
		{"hidden state", func(r *Rules) { r.States = []string{".ny"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRules()
			tt.modify(&r)
			assert.Error(t, r.Validate())
		})
	}
}
