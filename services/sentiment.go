package services

import "strings"

type sentimentKeywords struct {
	words  []string
	weight int
}

var sentimentLexicon = []sentimentKeywords{
	{words: []string{"amazing", "excellent", "outstanding", "perfect", "incredible", "fantastic", "love", "highly recommend"}, weight: 2},
	{words: []string{"good", "tasty", "fresh", "nice", "friendly", "enjoyed", "satisfied", "would come back"}, weight: 1},
	{words: []string{"terrible", "horrible", "awful", "worst", "disgusting", "never again", "ruined", "unacceptable"}, weight: -2},
	{words: []string{"bad", "cold", "slow", "rude", "disappointed", "disappointing", "overpriced", "not good"}, weight: -1},
}

// baseRating is the given rating when it is a valid star count, 3 otherwise
func baseRating(rating int) int {
	if validStars(rating) {
		return rating
	}
	return 3
}

func validStars(stars int) bool {
	return stars >= 1 && stars <= 5
}

// ScoreSentiment maps review text plus the given rating to a 1..5 star
// estimate using substring keyword matching. ok is false only when the text
// is blank and the rating is out of range.
func ScoreSentiment(rating int, text string) (int, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		if validStars(rating) {
			return rating, true
		}
		return 0, false
	}

	score := 0
	for _, group := range sentimentLexicon {
		for _, word := range group.words {
			if strings.Contains(lowered, word) {
				score += group.weight
			}
		}
	}

	base := baseRating(rating)
	switch {
	case score >= 4:
		return 5, true
	case score == 3:
		return 4, true
	case score == 2:
		if base >= 4 {
			return 4, true
		}
		return 3, true
	case score == 1:
		if base <= 3 {
			return 3, true
		}
		return 4, true
	case score == 0:
		return base, true
	case score == -1:
		if base <= 3 {
			return 2, true
		}
		return 3, true
	default:
		return 1, true
	}
}
