package readability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"make", 1},
		{"table", 2},
		{"happy", 2},
		{"beautiful", 3},
		{"rhythm", 1},
		{"the", 1},
		{"a", 1},
		{"42", 1},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, Syllables(tt.word))
		})
	}
}

func TestAnalyze(t *testing.T) {
	s := Analyze("The cat sat. The dog ran!")
	assert.Equal(t, Stats{Sentences: 2, Words: 6, Syllables: 6}, s)

	s = Analyze("no terminal punctuation here")
	assert.Equal(t, 1, s.Sentences)
	assert.Equal(t, 4, s.Words)

	s = Analyze("Wait... what?!")
	assert.Equal(t, 2, s.Sentences)
	assert.Equal(t, 2, s.Words)
}

func TestFleschKincaidGrade(t *testing.T) {
	assert.Equal(t, 0.0, FleschKincaidGrade(""))
	assert.Equal(t, 0.0, FleschKincaidGrade("   ...  "))

	// 6 words, 2 sentences, 6 syllables: 0.39*3 + 11.8*1 - 15.59 = -2.62
	assert.Equal(t, -2.6, FleschKincaidGrade("The cat sat. The dog ran!"))

	simple := FleschKincaidGrade("The cat sat on the mat.")
	hard := FleschKincaidGrade("Comprehensive institutional considerations necessitate extraordinary deliberation regarding organizational responsibilities.")
	assert.Greater(t, hard, simple)
}
