// Package onboarding scores the first-run questionnaire into a 0..100 value
// and a starting growth stage.
package onboarding

// Category groups questions by the wellness area they cover.
type Category string

// Question categories.
const (
	CategorySleep    Category = "sleep"
	CategoryMind     Category = "mind"
	CategoryMovement Category = "movement"
	CategoryStress   Category = "stress"
	CategoryEnergy   Category = "energy"
)

// Option is one selectable answer.
type Option struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Question is a static multiple-choice prompt with four options ordered from
// the healthiest answer to the least healthy one.
type Question struct {
	Category Category `json:"category"`
	Icon     string   `json:"icon"`
	Prompt   string   `json:"prompt"`
	Options  []Option `json:"options"`
}

var catalog = []Question{
	{
		Category: CategorySleep,
		Icon:     "moon.zzz.fill",
		Prompt:   "On a typical night, how long do you sleep?",
		Options: []Option{
			{Text: "8+ peaceful hours", Score: 100},
			{Text: "6–7 solid hours", Score: 66},
			{Text: "4–5 restless hours", Score: 33},
			{Text: "Barely any rest", Score: 0},
		},
	},
	{
		Category: CategoryMind,
		Icon:     "brain.head.profile",
		Prompt:   "How clear does your mind feel most days?",
		Options: []Option{
			{Text: "Crystal clear", Score: 100},
			{Text: "Mostly focused", Score: 66},
			{Text: "A little foggy", Score: 33},
			{Text: "Completely cluttered", Score: 0},
		},
	},
	{
		Category: CategoryMovement,
		Icon:     "figure.walk",
		Prompt:   "On most days, how active are you?",
		Options: []Option{
			{Text: "Active athlete", Score: 100},
			{Text: "Light enthusiast", Score: 66},
			{Text: "Occasional walker", Score: 33},
			{Text: "Mostly stationary", Score: 0},
		},
	},
	{
		Category: CategoryStress,
		Icon:     "cloud.fill",
		Prompt:   "How often do you feel mentally overwhelmed?",
		Options: []Option{
			{Text: "Rarely", Score: 100},
			{Text: "Sometimes", Score: 66},
			{Text: "Often", Score: 33},
			{Text: "Almost constantly", Score: 0},
		},
	},
	{
		Category: CategoryEnergy,
		Icon:     "bolt.fill",
		Prompt:   "How energized do you feel during the day?",
		Options: []Option{
			{Text: "Full of energy", Score: 100},
			{Text: "Generally steady", Score: 66},
			{Text: "Often drained", Score: 33},
			{Text: "Completely exhausted", Score: 0},
		},
	},
}

// Questions returns a copy of the questionnaire in presentation order.
func Questions() []Question {
	out := make([]Question, len(catalog))
	for i, q := range catalog {
		q.Options = append([]Option(nil), q.Options...)
		out[i] = q
	}
	return out
}
