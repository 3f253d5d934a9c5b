package domain

import "time"

// Category enumerates supported message categories. The set is closed;
// anything outside it is rejected with ErrInvalidCategory.
type Category string

const (
	CategoryMotivational Category = "motivational"
	CategoryMindfulness  Category = "mindfulness"
	CategoryFitness      Category = "fitness"
	CategoryPhilosophy   Category = "philosophy"
	CategoryProductivity Category = "productivity"
)

// AllCategories lists every valid category.
func AllCategories() []Category {
	return []Category{
		CategoryMotivational,
		CategoryMindfulness,
		CategoryFitness,
		CategoryPhilosophy,
		CategoryProductivity,
	}
}

// ValidCategory reports whether c belongs to the closed category set.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryMotivational, CategoryMindfulness, CategoryFitness, CategoryPhilosophy, CategoryProductivity:
		return true
	}
	return false
}

// TimeOfDay buckets a generation request by local time.
type TimeOfDay string

const (
	TimeOfDayMorning TimeOfDay = "morning"
	TimeOfDayEvening TimeOfDay = "evening"
)

// WeatherContext buckets current weather for prompt flavoring.
type WeatherContext string

const (
	WeatherSunny WeatherContext = "sunny"
	WeatherRain  WeatherContext = "rain"
	WeatherCold  WeatherContext = "cold"
	WeatherHot   WeatherContext = "hot"
)

// GeneratedMessage is a single AI-produced snippet accepted into history.
type GeneratedMessage struct {
	ID        string
	UserID    string
	Content   string
	Category  Category
	Locale    string
	Tokens    int
	Cost      float64
	Model     string
	TimeOfDay TimeOfDay
	Weather   WeatherContext
	CreatedAt time.Time
}
