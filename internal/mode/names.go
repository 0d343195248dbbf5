package mode

import "strconv"

// modeAdjectives and modeNouns give each mode a small vocabulary for titles.
var modeAdjectives = map[Mode][]string{
	Focus:    {"steady", "clear", "driven", "lucid", "bright"},
	Relax:    {"drifting", "warm", "easy", "soft", "unhurried"},
	Sleep:    {"deep", "midnight", "velvet", "slow", "hushed"},
	Meditate: {"still", "open", "breathing", "quiet", "boundless"},
}

var modeNouns = map[Mode][]string{
	Focus:    {"current", "signal", "pulse", "horizon"},
	Relax:    {"tide", "breeze", "meadow", "harbor"},
	Sleep:    {"ocean", "nightfall", "cloud", "lantern"},
	Meditate: {"sky", "circle", "ember", "valley"},
}

// TrackTitle returns a deterministic display title for one generated rendering.
// Equal (mode, seed) pairs always produce the same title.
func TrackTitle(m Mode, seed int64) string {
	adjs := modeAdjectives[m]
	nouns := modeNouns[m]
	if len(adjs) == 0 || len(nouns) == 0 {
		return string(m) + " session"
	}

	var h uint64
	for _, c := range strconv.FormatInt(seed, 10) {
		h = h*31 + uint64(c)
	}

	return adjs[h%uint64(len(adjs))] + " " + nouns[(h/7)%uint64(len(nouns))]
}
