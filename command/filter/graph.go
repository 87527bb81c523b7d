// Package filter models ffmpeg filtergraphs as typed values and builds the
// crossfade chains used by the mixing command.
//
// A Graph is a list of stages. Each stage reads one or more labelled pads,
// runs a linear chain of filters and writes one or more labelled pads:
//
//	[0:v]format=yuv420p,setsar=1[v0];[1:v]format=yuv420p,setsar=1[v1];[v0][v1]xfade=...[vx1]
//
// Graph.String renders the -filter_complex argument.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyInput is returned when a chain is requested for zero inputs.
	ErrEmptyInput = errors.New("filter: empty input list")

	// ErrInvalidGraph is returned when pads are not produced and consumed in order.
	ErrInvalidGraph = errors.New("filter: invalid graph")
)

// StreamType selects the audio or video stream of an input file.
type StreamType string

const (
	StreamAudio StreamType = "a"
	StreamVideo StreamType = "v"
)

// Label names a pad in the graph, without brackets.
type Label string

// InputPad returns the label of the first stream of the given type of input index.
func InputPad(index int, st StreamType) Label {
	return Label(strconv.Itoa(index) + ":" + string(st))
}

// Indexed returns prefix followed by i, e.g. Indexed("ma", 2) == "ma2".
func Indexed(prefix string, i int) Label {
	return Label(prefix + strconv.Itoa(i))
}

// IsInputPad reports whether l refers to an input file stream rather than
// a pad produced inside the graph.
func (l Label) IsInputPad() bool {
	return strings.Contains(string(l), ":")
}

// String renders the label in brackets.
func (l Label) String() string {
	return "[" + string(l) + "]"
}

// Arg is one filter option. A positional option has an empty Key.
type Arg struct {
	Key   string
	Value string
}

// KV builds a named option. Floats are rendered in their shortest form.
func KV(key string, value interface{}) Arg {
	return Arg{Key: key, Value: formatValue(value)}
}

// Filter is a single filter invocation such as "volume=0.8".
type Filter struct {
	Name string
	Args []Arg
}

// New returns a filter with the given options.
func New(name string, args ...Arg) Filter {
	return Filter{Name: name, Args: args}
}

// String renders name[=k=v:k=v].
func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	opts := make([]string, 0, len(f.Args))
	for _, a := range f.Args {
		if a.Key == "" {
			opts = append(opts, a.Value)
			continue
		}
		opts = append(opts, a.Key+"="+a.Value)
	}
	return f.Name + "=" + strings.Join(opts, ":")
}

// Stage is a linear filter chain between labelled pads.
type Stage struct {
	Inputs  []Label
	Filters []Filter
	Outputs []Label
}

// String renders [in]...f1,f2[out].
func (s Stage) String() string {
	var b strings.Builder
	for _, in := range s.Inputs {
		b.WriteString(in.String())
	}
	for i, f := range s.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.String())
	}
	for _, out := range s.Outputs {
		b.WriteString(out.String())
	}
	return b.String()
}

// Graph is an ordered list of stages.
type Graph struct {
	Stages []Stage
}

// Add appends stages.
func (g *Graph) Add(stages ...Stage) {
	g.Stages = append(g.Stages, stages...)
}

// Append appends every stage of other.
func (g *Graph) Append(other Graph) {
	g.Stages = append(g.Stages, other.Stages...)
}

// Empty reports whether the graph has no stages.
func (g Graph) Empty() bool {
	return len(g.Stages) == 0
}

// String renders the graph in ffmpeg filtergraph syntax.
func (g Graph) String() string {
	parts := make([]string, 0, len(g.Stages))
	for _, s := range g.Stages {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ";")
}

// Validate checks that every named pad is produced exactly once, and is
// consumed at most once and only after it has been produced.
func (g Graph) Validate() error {
	produced := make(map[Label]bool)
	consumed := make(map[Label]bool)

	for i, s := range g.Stages {
		if len(s.Filters) == 0 {
			return fmt.Errorf("%w: stage %d has no filters", ErrInvalidGraph, i)
		}
		for _, in := range s.Inputs {
			if in.IsInputPad() {
				continue
			}
			if !produced[in] {
				return fmt.Errorf("%w: stage %d reads %s before it is produced", ErrInvalidGraph, i, in)
			}
			if consumed[in] {
				return fmt.Errorf("%w: stage %d reads %s which is already consumed", ErrInvalidGraph, i, in)
			}
			consumed[in] = true
		}
		for _, out := range s.Outputs {
			if out.IsInputPad() {
				return fmt.Errorf("%w: stage %d writes input pad %s", ErrInvalidGraph, i, out)
			}
			if produced[out] {
				return fmt.Errorf("%w: %s is produced more than once", ErrInvalidGraph, out)
			}
			produced[out] = true
		}
	}
	return nil
}

// Dangling returns the produced pads no stage consumes, in production order.
// These are the pads that must be mapped to an output.
func (g Graph) Dangling() []Label {
	consumed := make(map[Label]bool)
	for _, s := range g.Stages {
		for _, in := range s.Inputs {
			consumed[in] = true
		}
	}
	var out []Label
	for _, s := range g.Stages {
		for _, l := range s.Outputs {
			if !consumed[l] {
				out = append(out, l)
			}
		}
	}
	return out
}

// FormatNumber renders v in the shortest decimal form ffmpeg accepts.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return FormatNumber(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
