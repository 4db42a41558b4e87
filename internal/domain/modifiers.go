package domain

// Modifier short codes as stored on scores. Display labels only ever
// appear in legacy rows and are migrated to codes in place.
const (
	ModifierNoFail             = "NF"
	ModifierOneLife            = "OL"
	ModifierNoBombs            = "NB"
	ModifierNoObstacles        = "NO"
	ModifierNoArrows           = "NA"
	ModifierSlowerSong         = "SS"
	ModifierFasterSong         = "FS"
	ModifierSuperFastSong      = "SF"
	ModifierGhostNotes         = "GN"
	ModifierDisappearingArrows = "DA"
	ModifierBatteryEnergy      = "BE"
	ModifierInstaFail          = "IF"
	ModifierSmallNotes         = "SC"
	ModifierProMode            = "PM"
	ModifierStrictAngles       = "SA"
	ModifierZenMode            = "ZM"
)

// NoFailScorePenalty is the score multiplier applied when No Fail
// triggers; modifiedScore = score / NoFailScorePenalty.
const NoFailScorePenalty = 0.5

var modifierLabels = map[string]string{
	"No Fail":             ModifierNoFail,
	"One Life":            ModifierOneLife,
	"No Bombs":            ModifierNoBombs,
	"No Obstacles":        ModifierNoObstacles,
	"No Walls":            ModifierNoObstacles,
	"No Arrows":           ModifierNoArrows,
	"Slower Song":         ModifierSlowerSong,
	"Faster Song":         ModifierFasterSong,
	"Super Fast Song":     ModifierSuperFastSong,
	"Ghost Notes":         ModifierGhostNotes,
	"Disappearing Arrows": ModifierDisappearingArrows,
	"Battery Energy":      ModifierBatteryEnergy,
	"Insta Fail":          ModifierInstaFail,
	"Small Notes":         ModifierSmallNotes,
	"Pro Mode":            ModifierProMode,
	"Strict Angles":       ModifierStrictAngles,
	"Zen Mode":            ModifierZenMode,
}

var modifierCodes = func() map[string]bool {
	codes := make(map[string]bool, len(modifierLabels))
	for _, code := range modifierLabels {
		codes[code] = true
	}
	return codes
}()

// NormalizeModifier maps a single modifier entry to its canonical short
// code. Entries that are already codes pass through; unknown entries
// report ok=false.
func NormalizeModifier(value string) (string, bool) {
	if modifierCodes[value] {
		return value, true
	}
	if code, ok := modifierLabels[value]; ok {
		return code, true
	}
	return "", false
}

// HasModifier reports whether the list contains the given code.
func HasModifier(modifiers []string, code string) bool {
	for _, m := range modifiers {
		if m == code {
			return true
		}
	}
	return false
}
