// Package readability scores English text with the Flesch-Kincaid grade level.
package readability

import (
	"math"
	"strings"
	"unicode"
)

// Stats are the raw counts behind a grade.
type Stats struct {
	Sentences int `json:"sentences"`
	Words     int `json:"words"`
	Syllables int `json:"syllables"`
}

// Analyze counts sentences, words and syllables in text.
func Analyze(text string) Stats {
	var s Stats
	for _, field := range strings.Fields(text) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" {
			continue
		}
		s.Words++
		s.Syllables += Syllables(word)
	}
	s.Sentences = countSentences(text)
	if s.Words > 0 && s.Sentences == 0 {
		s.Sentences = 1
	}
	return s
}

// FleschKincaidGrade returns 0.39*(words/sentences) + 11.8*(syllables/words) - 15.59,
// rounded to one decimal. Text without words scores 0.
func FleschKincaidGrade(text string) float64 {
	return Analyze(text).Grade()
}

// Grade computes the Flesch-Kincaid grade from the counts.
func (s Stats) Grade() float64 {
	if s.Words == 0 {
		return 0
	}
	wordsPerSentence := float64(s.Words) / float64(s.Sentences)
	syllablesPerWord := float64(s.Syllables) / float64(s.Words)
	grade := 0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59
	return math.Round(grade*10) / 10
}

// countSentences counts runs of terminal punctuation that follow a letter or digit.
func countSentences(text string) int {
	count := 0
	sawWord := false
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			if sawWord {
				count++
				sawWord = false
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sawWord = true
		}
	}
	if sawWord {
		count++
	}
	return count
}

// Syllables estimates the syllable count of a single word by counting vowel
// groups, dropping a silent trailing "e", and never returning less than 1.
func Syllables(word string) int {
	w := strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
