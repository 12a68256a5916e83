package threshold

import "strings"

// intensityKind selects which channel drives steadiness and pace/power prediction
type intensityKind int

const (
	intensityNone intensityKind = iota
	intensityPower
	intensityVelocity
)

// sportProfile carries the per-sport policy constants
type sportProfile struct {
	sport          Sport
	lt1DriftLimit  float64 // percent
	lt2Minutes     float64 // qualifying segment length
	protocolOffset int     // bpm below LT1 for the first stage
	intensity      intensityKind
}

var profiles = map[Sport]sportProfile{
	SportRun: {
		sport:          SportRun,
		lt1DriftLimit:  4,
		lt2Minutes:     20,
		protocolOffset: 15,
		intensity:      intensityVelocity,
	},
	SportBike: {
		sport:          SportBike,
		lt1DriftLimit:  3,
		lt2Minutes:     30,
		protocolOffset: 12,
		intensity:      intensityPower,
	},
}

// generic handling for swims and anything unrecognized
func genericProfile(s Sport) sportProfile {
	return sportProfile{
		sport:          s,
		lt1DriftLimit:  4,
		lt2Minutes:     20,
		protocolOffset: 15,
		intensity:      intensityNone,
	}
}

func profileFor(s Sport) sportProfile {
	if p, ok := profiles[s]; ok {
		return p
	}
	return genericProfile(s)
}

// ParseSport maps free-text sport names (including Strava activity types) to a
// sport family
func ParseSport(name string) Sport {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "", "-", "", " ", "").Replace(n)

	switch n {
	case "run", "running", "trailrun", "virtualrun", "treadmill", "treadmillrunning":
		return SportRun
	case "bike", "ride", "cycling", "biking", "virtualride", "ebikeride", "gravelride",
		"mountainbikeride", "indoorcycling", "roadcycling":
		return SportBike
	case "swim", "swimming", "openwaterswimming", "lapswimming":
		return SportSwim
	}

	switch {
	case strings.Contains(n, "run"):
		return SportRun
	case strings.Contains(n, "ride"), strings.Contains(n, "cycl"), strings.Contains(n, "bike"):
		return SportBike
	case strings.Contains(n, "swim"):
		return SportSwim
	}
	return SportOther
}
