package assistant

import "strings"

const maxSuggestions = 4

type suggestionBucket struct {
	keywords    []string
	suggestions []string
}

var suggestionBuckets = []suggestionBucket{
	{
		keywords:    []string{"emergency", "danger", "help", "sos", "attack", "threat", "unsafe"},
		suggestions: []string{"How to use the SOS feature", "Emergency contact setup", "Self-defense techniques", "Safety planning tips"},
	},
	{
		keywords:    []string{"safety", "safe", "protect", "security"},
		suggestions: []string{"Daily safety practices", "Technology safety tips", "Travel safety guidelines", "Self-defense basics"},
	},
	{
		keywords:    []string{"health", "healthy", "wellness", "medical", "doctor"},
		suggestions: []string{"Mental health resources", "Physical wellness tips", "Preventive care guide", "Stress management techniques"},
	},
	{
		keywords:    []string{"relationship", "dating", "partner", "marriage"},
		suggestions: []string{"Setting healthy boundaries", "Communication skills", "Red flags to watch for", "Building self-worth"},
	},
	{
		keywords:    []string{"career", "job", "work", "profession"},
		suggestions: []string{"Career development tips", "Workplace rights", "Salary negotiation", "Professional confidence"},
	},
}

// answer keyword -> suggestion, used when the question matched no bucket
var answerHints = []struct{ keyword, suggestion string }{
	{"safety", "More safety tips"},
	{"health", "Health and wellness resources"},
	{"confidence", "Building self-confidence"},
	{"legal", "Legal rights and resources"},
}

var genericSuggestions = []string{"Ask me anything else", "Emergency contacts setup", "Self-defense techniques"}

// Suggestions picks up to four follow-up prompts for the question and the
// answer it got.
func Suggestions(question, answer string) []string {
	q := strings.ToLower(question)
	var picked []string
	matched := false
	for _, b := range suggestionBuckets {
		if containsAny(q, b.keywords) {
			picked = append(picked, b.suggestions...)
			matched = true
			break
		}
	}
	if !matched {
		a := strings.ToLower(answer)
		for _, h := range answerHints {
			if strings.Contains(a, h.keyword) {
				picked = append(picked, h.suggestion)
			}
		}
	}
	picked = append(picked, genericSuggestions...)

	seen := make(map[string]struct{}, len(picked))
	out := make([]string, 0, maxSuggestions)
	for _, s := range picked {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
