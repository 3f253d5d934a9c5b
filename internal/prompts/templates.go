package prompts

import (
	"fmt"
	"strings"

	"github.com/uplift-app/uplift-api/internal/domain"
)

// Template is the static prompt definition for one category. Word-count
// and token ceilings live in the template data, never computed.
type Template struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

var templates = map[domain.Category]Template{
	domain.CategoryMotivational: {
		SystemPrompt: "You are an encouraging coach who writes short, punchy motivational messages. Keep every message to 40 words or fewer. Avoid clichés and empty platitudes.",
		UserPrompt:   "Write one original motivational message that helps someone push through a difficult moment today.",
		MaxTokens:    80,
		Temperature:  0.9,
	},
	domain.CategoryMindfulness: {
		SystemPrompt: "You are a calm mindfulness guide. Write grounded, present-tense reflections of 40 words or fewer. No spiritual jargon.",
		UserPrompt:   "Write one short mindfulness reflection that helps someone slow down and notice the present moment.",
		MaxTokens:    70,
		Temperature:  0.7,
	},
	domain.CategoryFitness: {
		SystemPrompt: "You are a no-nonsense fitness coach. Write direct, energizing messages of 40 words or fewer about movement and consistency.",
		UserPrompt:   "Write one short message that gets someone moving today, whatever their fitness level.",
		MaxTokens:    70,
		Temperature:  0.8,
	},
	domain.CategoryPhilosophy: {
		SystemPrompt: "You are a thoughtful writer who distills philosophical ideas into plain language. Keep every message to 40 words or fewer and never name-drop philosophers.",
		UserPrompt:   "Write one short reflection on living well, drawn from a philosophical idea but expressed in everyday words.",
		MaxTokens:    90,
		Temperature:  0.75,
	},
	domain.CategoryProductivity: {
		SystemPrompt: "You are a pragmatic productivity mentor. Write concrete, actionable messages of 40 words or fewer. One idea per message.",
		UserPrompt:   "Write one short, practical message that helps someone focus on what matters today.",
		MaxTokens:    70,
		Temperature:  0.6,
	},
}

var timeOfDayModifiers = map[domain.TimeOfDay]string{
	domain.TimeOfDayMorning: "Frame it for the start of the day, when energy is fresh.",
	domain.TimeOfDayEvening: "Frame it for winding down in the evening, reflecting on the day.",
}

var weatherModifiers = map[domain.WeatherContext]string{
	domain.WeatherSunny: "It is sunny outside; let that brightness color the tone.",
	domain.WeatherRain:  "It is raining; acknowledge the cozy, quieter mood.",
	domain.WeatherCold:  "It is cold outside; lean into warmth and resilience.",
	domain.WeatherHot:   "It is hot outside; keep the tone light and unhurried.",
}

// GetTemplate returns the static template for a category. It fails only
// on a category outside the closed set.
func GetTemplate(category domain.Category) (Template, error) {
	tpl, ok := templates[category]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
	}
	return tpl, nil
}

// BuildContextualPrompt appends deterministic modifier clauses for
// time-of-day and weather to the base user prompt. Unknown modifier
// values are ignored rather than rejected.
func BuildContextualPrompt(category domain.Category, timeOfDay domain.TimeOfDay, weather domain.WeatherContext) (systemPrompt, userPrompt string, err error) {
	tpl, err := GetTemplate(category)
	if err != nil {
		return "", "", err
	}
	parts := []string{tpl.UserPrompt}
	if mod, ok := timeOfDayModifiers[timeOfDay]; ok {
		parts = append(parts, mod)
	}
	if mod, ok := weatherModifiers[weather]; ok {
		parts = append(parts, mod)
	}
	return tpl.SystemPrompt, strings.Join(parts, " "), nil
}
