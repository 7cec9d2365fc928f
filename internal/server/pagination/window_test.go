package pagination

import (
	"testing"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestLimitsResolve(t *testing.T) {
	limits := Limits{DefaultSize: 20, MaxSize: 100}
	c104 := EncodeCursor(104)

	tests := []struct {
		name    string
		args    Args
		want    Window
		wantErr bool
	}{
		{name: "defaults to forward", args: Args{}, want: Window{Size: 20}},
		{name: "first", args: Args{First: ptr(2)}, want: Window{Size: 2}},
		{name: "first after", args: Args{First: ptr(2), After: &c104}, want: Window{Size: 2, Bound: 104}},
		{name: "after only uses default", args: Args{After: &c104}, want: Window{Size: 20, Bound: 104}},
		{name: "last before", args: Args{Last: ptr(3), Before: &c104}, want: Window{Backward: true, Size: 3, Bound: 104}},
		{name: "before only", args: Args{Before: &c104}, want: Window{Backward: true, Size: 20, Bound: 104}},
		{name: "clamped", args: Args{First: ptr(1000)}, want: Window{Size: 100}},
		{name: "first and last", args: Args{First: ptr(1), Last: ptr(1)}, wantErr: true},
		{name: "after and before", args: Args{After: &c104, Before: &c104}, wantErr: true},
		{name: "first and before", args: Args{First: ptr(1), Before: &c104}, wantErr: true},
		{name: "zero", args: Args{First: ptr(0)}, wantErr: true},
		{name: "negative last", args: Args{Last: ptr(-1)}, wantErr: true},
		{name: "bad cursor", args: Args{After: ptr("garbage")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := limits.Resolve(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLimitsNormalize(t *testing.T) {
	w, err := Limits{}.Resolve(Args{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimits.DefaultSize, w.Size)

	w, err = Limits{}.Resolve(Args{First: ptr(500)})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimits.MaxSize, w.Size)
}
