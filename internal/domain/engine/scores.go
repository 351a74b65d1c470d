package engine

import "math/rand/v2"

// ScoreForRank derives the preference score for a 1-based rank within a
// list of numChoices ranked options: the first choice scores numChoices,
// the last scores 1.
func ScoreForRank(numChoices, rank int) int {
	return numChoices - rank + 1
}

// ShuffleParticipants returns a copy of participants permuted by a
// seeded deterministic shuffle. Callers wanting reproducible tie-breaks
// among equally optimal solutions shuffle the participant order before
// building a Problem, since declaration order influences which optimum a
// solver picks.
func ShuffleParticipants(participants []string, seed uint64) []string {
	shuffled := make([]string, len(participants))
	copy(shuffled, participants)
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
