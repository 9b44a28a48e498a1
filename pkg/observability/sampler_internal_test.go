package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ratio     float64
		env, arg  string
		wantDescr string
	}{
		{"default", 0, "", "", "ParentBased{root:AlwaysOnSampler"},
		{"configured_ratio", 0.25, "", "", "ParentBased{root:TraceIDRatioBased{0.25}"},
		{"env_wins", 0.25, "always_off", "", "AlwaysOffSampler"},
		{"env_ratio", 0, "traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"env_bad_arg", 0, "traceidratio", "x", "TraceIDRatioBased{1}"},
		{"unknown_name", 0.25, "bogus", "", "ParentBased{root:AlwaysOnSampler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Contains(t, sampler(tt.ratio, tt.env, tt.arg).Description(), tt.wantDescr)
		})
	}
}
