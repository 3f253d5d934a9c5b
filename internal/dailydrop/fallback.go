package dailydrop

import "hash/fnv"

// Curated content used when every AI attempt fails. Selection hashes
// the date so a retried regeneration for the same day yields the same
// entry.
var fallbackMessages = []string{
	"Progress is quiet. Show up today, even for ten minutes, and let the small win count.",
	"You do not need to feel ready. Start anyway, and let momentum catch up with you.",
	"One honest hour beats a perfect plan. Pick the next small thing and do it.",
	"Hard days shrink when you stop measuring them and start moving through them.",
	"What you repeat becomes who you are. Repeat one good thing today.",
	"Rest is part of the work. Push when you can, recover when you must, and keep going.",
	"The gap between where you are and where you want to be closes one unremarkable day at a time.",
	"Doubt makes noise; effort makes progress. Choose which one gets your attention today.",
	"You have survived every difficult day so far. Today asks only for the next step.",
	"Begin before you feel like it. The feeling follows the doing, not the other way around.",
}

var fallbackChallenges = []string{
	"Write down three things you are grateful for today.",
	"Take a ten-minute walk without your phone.",
	"Send an encouraging message to someone you care about.",
	"Spend five minutes breathing slowly before your next task.",
	"Finish one task you have been putting off for over a week.",
	"Drink a glass of water first thing and stretch for two minutes.",
	"Write one sentence about what went well yesterday.",
}

// FallbackMessage deterministically selects curated content for a date
// and locale.
func FallbackMessage(date, locale string) string {
	return fallbackMessages[fallbackIndex(date, locale, len(fallbackMessages))]
}

// FallbackChallenge deterministically selects a curated task for a date
// and locale.
func FallbackChallenge(date, locale string) string {
	return fallbackChallenges[fallbackIndex(date, locale, len(fallbackChallenges))]
}

func fallbackIndex(date, locale string, size int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(date))
	_, _ = h.Write([]byte(locale))
	return int(h.Sum32() % uint32(size))
}
