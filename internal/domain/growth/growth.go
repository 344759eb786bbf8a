// Package growth defines the ordered growth stages of the tree metaphor and
// the two mappings into them: onboarding score bands and total XP thresholds.
package growth

import (
	"fmt"
	"strings"
)

// Stage is one of five ordered progression tiers.
type Stage int

// Stages in ascending order. The zero value is Seed.
const (
	Seed Stage = iota
	Sprout
	YoungPlant
	Blooming
	Flourishing
)

// XP thresholds at which each stage begins.
const (
	sproutXP      = 100
	youngPlantXP  = 300
	bloomingXP    = 600
	flourishingXP = 1000
)

// Onboarding score band boundaries (lower bound inclusive).
const (
	sproutScore     = 25
	youngPlantScore = 50
	bloomingScore   = 75
)

// All lists every stage in ascending order.
var All = []Stage{Seed, Sprout, YoungPlant, Blooming, Flourishing}

type info struct {
	key        string
	title      string
	message    string
	image      string
	startingXP int
}

var stageInfo = map[Stage]info{
	Seed: {
		key:        "seed",
		title:      "Seed",
		message:    "You're just getting started. Small daily rituals will unlock powerful growth.",
		image:      "seed",
		startingXP: 0,
	},
	Sprout: {
		key:        "sprout",
		title:      "Sprout",
		message:    "You've taken the first step. A little consistency will strengthen your roots.",
		image:      "sprout",
		startingXP: 120,
	},
	YoungPlant: {
		key:        "youngPlant",
		title:      "Young Plant",
		message:    "You're growing steadily. Stay consistent and your ecosystem will flourish.",
		image:      "young_plant",
		startingXP: 350,
	},
	Blooming: {
		key:        "blooming",
		title:      "Blooming",
		message:    "You're thriving beautifully. Keep nurturing your habits and blossom fully.",
		image:      "mature_tree",
		startingXP: 700,
	},
	Flourishing: {
		key:        "flourishing",
		title:      "Flourishing",
		message:    "You're a tree of life! Keep nurturing and you'll continue to grow and thrive.",
		image:      "blossom_tree",
		startingXP: 1200,
	},
}

// String returns the stable key of the stage, e.g. "youngPlant".
func (s Stage) String() string {
	if i, ok := stageInfo[s]; ok {
		return i.key
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Title is the display title.
func (s Stage) Title() string { return stageInfo[s].title }

// Message is the narrative shown when the stage is reached.
func (s Stage) Message() string { return stageInfo[s].message }

// ImageKey names the artwork the rendering layer draws for the stage.
func (s Stage) ImageKey() string { return stageInfo[s].image }

// StartingXP is the total XP granted when onboarding lands on this stage.
func (s Stage) StartingXP() int { return stageInfo[s].startingXP }

// Valid reports whether s is one of the five defined stages.
func (s Stage) Valid() bool {
	_, ok := stageInfo[s]
	return ok
}

// MarshalText encodes the stage by key.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage key, case-insensitively.
func (s *Stage) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = p
	return nil
}

// Parse resolves a stage key such as "youngPlant" (case-insensitive).
func Parse(key string) (Stage, error) {
	k := strings.TrimSpace(key)
	for _, s := range All {
		if strings.EqualFold(stageInfo[s].key, k) {
			return s, nil
		}
	}
	return Seed, fmt.Errorf("%w: %q", ErrUnknownStage, key)
}

// ForXP maps a total XP value onto the five stages. Negative values map to Seed.
func ForXP(totalXP int) Stage {
	switch {
	case totalXP >= flourishingXP:
		return Flourishing
	case totalXP >= bloomingXP:
		return Blooming
	case totalXP >= youngPlantXP:
		return YoungPlant
	case totalXP >= sproutXP:
		return Sprout
	default:
		return Seed
	}
}

// ForScore maps a 0..100 wellness score onto the four onboarding bands.
// Flourishing is deliberately never returned: it is earned through XP only.
func ForScore(score float64) Stage {
	switch {
	case score >= bloomingScore:
		return Blooming
	case score >= youngPlantScore:
		return YoungPlant
	case score >= sproutScore:
		return Sprout
	default:
		return Seed
	}
}

// NextThreshold returns the XP at which the stage after ForXP(totalXP) begins,
// and false when the stage is already the last one.
func NextThreshold(totalXP int) (int, bool) {
	switch ForXP(totalXP) {
	case Seed:
		return sproutXP, true
	case Sprout:
		return youngPlantXP, true
	case YoungPlant:
		return bloomingXP, true
	case Blooming:
		return flourishingXP, true
	default:
		return 0, false
	}
}
