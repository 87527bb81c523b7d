package filter

import (
	"fmt"

	"github.com/Dayti-0/Video-Musique/models"
)

// Chain is a built audio chain and the pad carrying its result.
type Chain struct {
	Graph  Graph
	Output Label
}

// AudioChain builds the music chain for tracks read from inputs
// baseInputIndex, baseInputIndex+1, ...
//
// Every track gets a volume stage [base+i:a]volume=v[ma{i}]. Tracks are then
// joined left to right with N-1 acrossfade stages writing mx1..mx{N-1}.
// A single track is returned as ma0.
func AudioChain(tracks []models.AudioTrack, crossfadeSeconds int, baseInputIndex int) (Chain, error) {
	if len(tracks) == 0 {
		return Chain{}, fmt.Errorf("audio chain: %w", ErrEmptyInput)
	}

	var g Graph
	for i, t := range tracks {
		g.Add(Stage{
			Inputs:  []Label{InputPad(baseInputIndex+i, StreamAudio)},
			Filters: []Filter{Volume(t.EffectiveVolume())},
			Outputs: []Label{Indexed("ma", i)},
		})
	}

	prev := Indexed("ma", 0)
	for j := 1; j < len(tracks); j++ {
		out := Indexed("mx", j)
		g.Add(Stage{
			Inputs:  []Label{prev, Indexed("ma", j)},
			Filters: []Filter{Acrossfade(float64(crossfadeSeconds))},
			Outputs: []Label{out},
		})
		prev = out
	}

	return Chain{Graph: g, Output: prev}, nil
}

// Volume returns volume=v.
func Volume(v float64) Filter {
	return New("volume", Arg{Value: FormatNumber(v)})
}

// Acrossfade returns acrossfade=d=D:c1=qsin:c2=qsin.
func Acrossfade(seconds float64) Filter {
	return New("acrossfade", KV("d", seconds), KV("c1", "qsin"), KV("c2", "qsin"))
}

// Amix mixes n inputs, running until the longest ends.
func Amix(n int) Filter {
	return New("amix", KV("inputs", n), KV("duration", "longest"), KV("dropout_transition", 0))
}

// Atrim cuts the stream at seconds.
func Atrim(seconds float64) Filter {
	return New("atrim", KV("duration", seconds))
}
