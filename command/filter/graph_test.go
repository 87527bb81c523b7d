package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	assert.Equal(t, Label("3:a"), InputPad(3, StreamAudio))
	assert.Equal(t, "[0:v]", InputPad(0, StreamVideo).String())
	assert.True(t, InputPad(1, StreamAudio).IsInputPad())
	assert.False(t, Indexed("ma", 1).IsInputPad())
	assert.Equal(t, "[mx2]", Indexed("mx", 2).String())
}

func TestFilterString(t *testing.T) {
	tests := []struct {
		name     string
		filter   Filter
		expected string
	}{
		{"no args", New("anull"), "anull"},
		{"positional", Volume(0.8), "volume=0.8"},
		{"integer volume", Volume(1), "volume=1"},
		{"named", Acrossfade(10), "acrossfade=d=10:c1=qsin:c2=qsin"},
		{"fractional crossfade", Acrossfade(1.5), "acrossfade=d=1.5:c1=qsin:c2=qsin"},
		{"xfade", Xfade(1, 9), "xfade=transition=fade:duration=1:offset=9"},
		{"amix", Amix(2), "amix=inputs=2:duration=longest:dropout_transition=0"},
		{"atrim", Atrim(22.5), "atrim=duration=22.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.String())
		})
	}
}

func TestStageAndGraphString(t *testing.T) {
	var g Graph
	assert.True(t, g.Empty())

	g.Add(Stage{
		Inputs:  []Label{InputPad(0, StreamVideo)},
		Filters: []Filter{New("format", Arg{Value: "yuv420p"}), New("setsar", Arg{Value: "1"})},
		Outputs: []Label{"v0"},
	})
	g.Add(Stage{
		Inputs:  []Label{InputPad(1, StreamAudio)},
		Filters: []Filter{Volume(0.7)},
		Outputs: []Label{"ma0"},
	})

	assert.False(t, g.Empty())
	assert.Equal(t, "[0:v]format=yuv420p,setsar=1[v0];[1:a]volume=0.7[ma0]", g.String())
}

func TestGraphValidate(t *testing.T) {
	vol := []Filter{Volume(1)}

	tests := []struct {
		name    string
		stages  []Stage
		wantErr bool
	}{
		{
			name: "valid chain",
			stages: []Stage{
				{Inputs: []Label{"0:a"}, Filters: vol, Outputs: []Label{"a"}},
				{Inputs: []Label{"1:a"}, Filters: vol, Outputs: []Label{"b"}},
				{Inputs: []Label{"a", "b"}, Filters: []Filter{Acrossfade(1)}, Outputs: []Label{"c"}},
			},
		},
		{
			name: "consumed before produced",
			stages: []Stage{
				{Inputs: []Label{"b"}, Filters: vol, Outputs: []Label{"c"}},
				{Inputs: []Label{"0:a"}, Filters: vol, Outputs: []Label{"b"}},
			},
			wantErr: true,
		},
		{
			name: "produced twice",
			stages: []Stage{
				{Inputs: []Label{"0:a"}, Filters: vol, Outputs: []Label{"a"}},
				{Inputs: []Label{"1:a"}, Filters: vol, Outputs: []Label{"a"}},
			},
			wantErr: true,
		},
		{
			name: "consumed twice",
			stages: []Stage{
				{Inputs: []Label{"0:a"}, Filters: vol, Outputs: []Label{"a"}},
				{Inputs: []Label{"a"}, Filters: vol, Outputs: []Label{"b"}},
				{Inputs: []Label{"a"}, Filters: vol, Outputs: []Label{"c"}},
			},
			wantErr: true,
		},
		{
			name: "stage without filters",
			stages: []Stage{
				{Inputs: []Label{"0:a"}, Outputs: []Label{"a"}},
			},
			wantErr: true,
		},
		{
			name: "writes input pad",
			stages: []Stage{
				{Inputs: []Label{"0:a"}, Filters: vol, Outputs: []Label{"1:a"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Graph{Stages: tt.stages}.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidGraph))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGraphDangling(t *testing.T) {
	g := Graph{Stages: []Stage{
		{Inputs: []Label{"0:a"}, Filters: []Filter{Volume(1)}, Outputs: []Label{"a"}},
		{Inputs: []Label{"1:a"}, Filters: []Filter{Volume(1)}, Outputs: []Label{"b"}},
		{Inputs: []Label{"a"}, Filters: []Filter{Volume(1)}, Outputs: []Label{"c"}},
	}}

	assert.Equal(t, []Label{"b", "c"}, g.Dangling())
}

func TestGraphAppend(t *testing.T) {
	var a, b Graph
	a.Add(Stage{Inputs: []Label{"0:a"}, Filters: []Filter{Volume(1)}, Outputs: []Label{"x"}})
	b.Add(Stage{Inputs: []Label{"x"}, Filters: []Filter{New("anull")}, Outputs: []Label{"y"}})

	a.Append(b)
	assert.Len(t, a.Stages, 2)
	assert.NoError(t, a.Validate())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "10", FormatNumber(10))
	assert.Equal(t, "0.7", FormatNumber(0.7))
	assert.Equal(t, "1.1", FormatNumber(1.1))
	assert.Equal(t, "19.5", FormatNumber(19.5))
}
