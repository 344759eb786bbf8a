package model

// RitualCategory classifies a ritual by the area of wellness it serves.
type RitualCategory string

// Ritual categories.
const (
	RitualPhysical  RitualCategory = "physical"
	RitualMental    RitualCategory = "mental"
	RitualEmotional RitualCategory = "emotional"
)

// Ritual is a single recommended daily task.
type Ritual struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Category    RitualCategory `json:"category"`
	Icon        string         `json:"icon"`
	IsCompleted bool           `json:"is_completed"`
}

// CountCompleted returns how many rituals are marked complete.
func CountCompleted(rituals []Ritual) int {
	n := 0
	for _, r := range rituals {
		if r.IsCompleted {
			n++
		}
	}
	return n
}
