package scene

import "strings"

type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeWalking Mode = "walking"
	ModeTurning Mode = "turning"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeIdle:
		return ModeIdle, true
	case ModeWalking:
		return ModeWalking, true
	case ModeTurning:
		return ModeTurning, true
	}
	return ModeIdle, false
}

// preferredClips are common rig animation names per mode, best first.
var preferredClips = map[Mode][]string{
	ModeIdle:    {"Idle", "idle_breathing", "idle", "breathing"},
	ModeWalking: {"Walking", "walk", "walk_forward", "strolling"},
	ModeTurning: {"Turning", "turn", "turn_90", "rotate"},
}

var clipKeyword = map[Mode]string{
	ModeIdle:    "idle",
	ModeWalking: "walk",
	ModeTurning: "turn",
}

// SelectClip picks the clip to play for mode: an exact preferred name, then
// the first name containing the mode keyword (case-insensitive), then the
// first clip. It returns "" when nothing is available.
func SelectClip(mode Mode, available []string) string {
	if len(available) == 0 {
		return ""
	}
	have := make(map[string]bool, len(available))
	for _, a := range available {
		have[a] = true
	}
	for _, name := range preferredClips[mode] {
		if have[name] {
			return name
		}
	}
	if kw := clipKeyword[mode]; kw != "" {
		for _, a := range available {
			if strings.Contains(strings.ToLower(a), kw) {
				return a
			}
		}
	}
	return available[0]
}
