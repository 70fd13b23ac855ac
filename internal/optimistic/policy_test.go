package optimistic

import (
	"testing"

	"github.com/dyluth/teamboard/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"store", ModeStore, false},
		{"shared", ModeShared, false},
		{"", "", true},
		{"server", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicies(t *testing.T) {
	one := record.New("1", nil)
	two := record.New("2", nil)

	uniform := UniformPolicy(ModeShared)
	assert.Equal(t, ModeShared, uniform(one))
	assert.Equal(t, ModeShared, uniform(two))

	ids := []string{"1"}
	byID := IDPolicy(ids, ModeStore, ModeShared)
	ids[0] = "2"
	assert.Equal(t, ModeStore, byID(one), "policy keeps its own copy of the id list")
	assert.Equal(t, ModeShared, byID(two))
}
