// Package safety holds the rule-based crisis filter. It runs before any
// provider call and never depends on network state.
//
// Matching is plain substring containment on the lower-cased message, so
// unrelated uses of a trigger word ("cutting the grass") are reported as a
// crisis.
package safety

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// CrisisResponse is returned verbatim whenever IsCrisis reports true.
const CrisisResponse = "I'm really concerned about what you're sharing. " +
	"Please reach out for immediate support:\n\n" +
	"• National Suicide Prevention Lifeline: 988 (US)\n" +
	"• Crisis Text Line: Text HOME to 741741\n" +
	"• International Association for Suicide Prevention: https://www.iasp.info/resources/Crisis_Centres/\n\n" +
	"You don't have to face this alone. These services are free and confidential."

// crisisPhrases are matched as substrings. Misspellings are listed explicitly.
var crisisPhrases = []string{
	"suicide", "suicidal", "suicde", "sucide", "suiside", "suicid",
	"kill myself", "kil myself", "killing myself",
	"end my life", "end it all", "ending it all", "take my own life", "take my life",
	"want to die", "wanna die", "wish i was dead", "wish i were dead", "better off dead",
	"don't want to live", "dont want to live", "do not want to live", "no reason to live",
	"self-harm", "self harm", "selfharm", "self harming",
	"cutting", "cut myself", "hurt myself", "harm myself", "burn myself",
	"overdose", "over dose", "overdosing",
	"hang myself", "jump off a bridge",
}

// medicineWords are matched as substrings.
var medicineWords = []string{
	"pill", "tablet", "meds", "medication", "medicine", "painkiller",
	"paracetamol", "acetaminophen", "tylenol", "ibuprofen", "aspirin",
	"sleeping aid", "antidepressant", "capsule",
}

// quantityWords are matched as whole words; "all" as a substring would hit
// "really", "call", "small" and friends.
var quantityWords = map[string]struct{}{
	"all": {}, "many": {}, "bottle": {}, "bottles": {}, "handful": {}, "dozen": {},
}

// quantityThreshold is the smallest number token treated as an overdose quantity.
const quantityThreshold = 10

// IsCrisis reports whether message contains crisis language.
func IsCrisis(message string) bool {
	_, ok := Match(message)
	return ok
}

// Match returns the phrase (or heuristic name) that flagged message.
func Match(message string) (string, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return "", false
	}
	for _, p := range crisisPhrases {
		if strings.Contains(msg, p) {
			return p, true
		}
	}
	if med, ok := containsAny(msg, medicineWords); ok && hasQuantity(msg) {
		return "medicine+quantity:" + med, true
	}
	return "", false
}

func containsAny(msg string, words []string) (string, bool) {
	for _, w := range words {
		if strings.Contains(msg, w) {
			return w, true
		}
	}
	return "", false
}

func hasQuantity(msg string) bool {
	fields := strings.FieldsFunc(msg, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if _, ok := quantityWords[f]; ok {
			return true
		}
		if isLargeNumber(f) {
			return true
		}
	}
	return false
}

// isLargeNumber reports whether f is an all-digit token of at least
// quantityThreshold. Tokens too long for an int count as large.
func isLargeNumber(f string) bool {
	for _, r := range f {
		if r < '0' || r > '9' {
			return false
		}
	}
	n, err := strconv.Atoi(f)
	if errors.Is(err, strconv.ErrRange) {
		return true
	}
	return err == nil && n >= quantityThreshold
}
