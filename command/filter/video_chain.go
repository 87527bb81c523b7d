package filter

import (
	"fmt"

	"github.com/Dayti-0/Video-Musique/models"
)

// VideoResult is the output of VideoChain.
//
// Video and Audio are kept apart so callers can drop the clip audio, or the
// video stages when the single clip is stream-copied.
type VideoResult struct {
	Video    Graph
	Audio    Graph
	VideoOut Label
	AudioOut Label

	// Offsets[j-1] is the xfade offset used when joining clip j.
	Offsets []float64

	// Timeline is the length of the joined timeline in seconds.
	Timeline float64
}

// VideoChain normalises every clip and joins them with xfade, with a
// parallel acrossfade chain on the clip audio.
//
// The offset of each transition is max(acc-d, 0), where acc starts at the
// first clip's duration and grows by max(dur_j-d, 0) after each join.
func VideoChain(clips []models.VideoClip, crossfadeSeconds float64) (VideoResult, error) {
	if len(clips) == 0 {
		return VideoResult{}, fmt.Errorf("video chain: %w", ErrEmptyInput)
	}

	var res VideoResult
	for i := range clips {
		res.Video.Add(Stage{
			Inputs:  []Label{InputPad(i, StreamVideo)},
			Filters: []Filter{New("format", Arg{Value: "yuv420p"}), New("setsar", Arg{Value: "1"})},
			Outputs: []Label{Indexed("v", i)},
		})
		res.Audio.Add(Stage{
			Inputs:  []Label{InputPad(i, StreamAudio)},
			Filters: []Filter{New("anull")},
			Outputs: []Label{Indexed("va", i)},
		})
	}

	acc := clips[0].Duration
	prevV, prevA := Indexed("v", 0), Indexed("va", 0)
	d := crossfadeSeconds

	for j := 1; j < len(clips); j++ {
		offset := acc - d
		if offset < 0 {
			offset = 0
		}
		vo, ao := Indexed("vx", j), Indexed("vax", j)

		res.Video.Add(Stage{
			Inputs:  []Label{prevV, Indexed("v", j)},
			Filters: []Filter{Xfade(d, offset)},
			Outputs: []Label{vo},
		})
		res.Audio.Add(Stage{
			Inputs:  []Label{prevA, Indexed("va", j)},
			Filters: []Filter{Acrossfade(d)},
			Outputs: []Label{ao},
		})
		res.Offsets = append(res.Offsets, offset)

		prevV, prevA = vo, ao
		if seg := clips[j].Duration - d; seg > 0 {
			acc += seg
		}
	}

	res.VideoOut = prevV
	res.AudioOut = prevA
	res.Timeline = acc
	return res, nil
}

// Xfade returns xfade=transition=fade:duration=d:offset=o.
func Xfade(duration, offset float64) Filter {
	return New("xfade", KV("transition", "fade"), KV("duration", duration), KV("offset", offset))
}
