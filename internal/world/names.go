package world

import (
	"fmt"
	"math/rand"
)

// Names is the pool of pookie names assigned on join.
var Names = []string{
	"Pookieboo",
	"Snugbug",
	"Wobbles",
	"Nibble",
	"Pawpaw",
	"Boo",
	"Glimmy",
	"Momo",
	"Toodle",
	"Pipspeak",
	"Mochi",
	"Wafflebean",
	"Nuggie",
	"Jellybun",
	"Puddington",
}

var personalityAdjectives = []string{
	"friendly",
	"curious",
	"shy",
	"brave",
	"smart",
	"funny",
	"silly",
	"hilarious",
	"talkative",
	"lazy",
	"quiet",
	"greedy",
	"selfish",
	"arrogant",
	"dishonest",
	"honest",
}

var personalityGoals = []string{
	"to find a friend",
	"to have as many items as possible in your inventory",
	"to have as much food as possible",
	"to fall in love",
	"to get revenge on a bully",
	"to make sure that there is no violence in the world",
	"to save the world from a disaster that you are 100% sure exists, and let everyone know about it.",
	"to be mean to other pookies for no reason (you use insults such as 'pestlepuff' or 'stinkybun')",
}

// GeneratePersonality builds a random personality line for a new pookie.
func GeneratePersonality(rng *rand.Rand) string {
	return fmt.Sprintf("You are a %s and %s pookie who wants %s",
		personalityAdjectives[rng.Intn(len(personalityAdjectives))],
		personalityAdjectives[rng.Intn(len(personalityAdjectives))],
		personalityGoals[rng.Intn(len(personalityGoals))],
	)
}
