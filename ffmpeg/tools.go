package ffmpeg

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool is an external executable the engine depends on.
type Tool struct {
	Name     string // Configured name or path
	Path     string // Resolved path, empty when missing
	Required bool
}

// Found reports whether the tool was resolved.
func (t Tool) Found() bool {
	return t.Path != ""
}

// LookupTools resolves ffmpeg, ffprobe and ffplay. ffplay is optional.
// The error wraps ErrToolNotFound and names every missing required tool.
func LookupTools(ffmpegPath, ffprobePath string) ([]Tool, error) {
	tools := []Tool{
		{Name: orDefault(ffmpegPath, "ffmpeg"), Required: true},
		{Name: orDefault(ffprobePath, "ffprobe"), Required: true},
		{Name: "ffplay"},
	}

	var missing []string
	for i := range tools {
		path, err := exec.LookPath(tools[i].Name)
		if err != nil {
			if tools[i].Required {
				missing = append(missing, tools[i].Name)
			}
			continue
		}
		tools[i].Path = path
	}

	if len(missing) > 0 {
		return tools, fmt.Errorf("%w: %s", ErrToolNotFound, strings.Join(missing, ", "))
	}
	return tools, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
