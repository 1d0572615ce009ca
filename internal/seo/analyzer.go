// Package seo computes SEO metrics and issues from plain text. All functions
// are pure and deterministic: the same content and keyword always produce the
// same metrics and the same ordered issue list.
package seo

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/seoscout/seoscout/pkg/models"
)

// ErrEmptyContent is returned when content is empty or whitespace-only.
// It is the only error the analyzer can produce.
var ErrEmptyContent = errors.New("content is empty")

var reSentenceEnd = regexp.MustCompile(`[.!?]+`)

// Limits holds the scoring thresholds and per-severity penalties. They are
// deliberately centralized here rather than spread across rules.
type Limits struct {
	DensityMin     float64 // percent, below is under-optimization
	DensityMax     float64 // percent, above is keyword stuffing
	MinWordCount   int
	MinReadability float64

	PenaltyInfo     float64
	PenaltyWarning  float64
	PenaltyCritical float64
}

// DefaultLimits returns the production scoring configuration.
func DefaultLimits() Limits {
	return Limits{
		DensityMin:      0.5,
		DensityMax:      3.0,
		MinWordCount:    300,
		MinReadability:  50,
		PenaltyInfo:     2,
		PenaltyWarning:  10,
		PenaltyCritical: 20,
	}
}

// Structure describes the HTML skeleton of a fetched page. It is only
// available when the record was created from a URL; nil means the input was
// raw text and structural rules are skipped.
type Structure struct {
	HasH1              bool
	HasMetaDescription bool
	HasSubheadings     bool
}

// Metrics is the full analysis output.
type Metrics struct {
	WordCount         int
	KeywordCount      int
	KeywordDensity    float64
	SentenceCount     int
	AvgSentenceLength float64
	ReadabilityScore  float64
	SEOScore          float64
	Issues            []models.Issue
}

// Analyzer evaluates content against a Limits configuration.
type Analyzer struct {
	limits Limits
}

// NewAnalyzer creates an Analyzer with the given limits.
func NewAnalyzer(limits Limits) *Analyzer {
	return &Analyzer{limits: limits}
}

// Analyze computes all metrics and issues for the content. targetKeyword may
// be empty, in which case density is 0 and density rules are skipped.
// structure may be nil. Malformed but non-empty text never fails.
func (a *Analyzer) Analyze(content, targetKeyword string, structure *Structure) (*Metrics, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	words := strings.Fields(content)
	wordCount := len(words)

	keyword := strings.ToLower(strings.TrimSpace(targetKeyword))
	keywordCount := 0
	if keyword != "" {
		for _, w := range words {
			if normalizeWord(w) == keyword {
				keywordCount++
			}
		}
	}

	density := 0.0
	if keyword != "" && wordCount > 0 {
		density = round2(float64(keywordCount) / float64(wordCount) * 100)
	}

	// Minimum 1 sentence so length and readability never divide by zero.
	sentenceCount := len(reSentenceEnd.FindAllString(content, -1))
	if sentenceCount < 1 {
		sentenceCount = 1
	}

	avgSentenceLength := round2(float64(wordCount) / float64(sentenceCount))

	readability := 0.0
	if wordCount > 0 {
		syllables := 0
		for _, w := range words {
			syllables += countSyllables(w)
		}
		readability = fleschReadingEase(wordCount, sentenceCount, syllables)
	}

	m := &Metrics{
		WordCount:         wordCount,
		KeywordCount:      keywordCount,
		KeywordDensity:    density,
		SentenceCount:     sentenceCount,
		AvgSentenceLength: avgSentenceLength,
		ReadabilityScore:  readability,
	}
	m.Issues = a.detectIssues(m, keyword != "", structure)
	m.SEOScore = a.score(m.Issues)
	return m, nil
}

// Density computes keyword density alone, using the same whole-word formula as
// Analyze. Used to rescore AI-optimized content.
func Density(content, targetKeyword string) float64 {
	words := strings.Fields(content)
	keyword := strings.ToLower(strings.TrimSpace(targetKeyword))
	if len(words) == 0 || keyword == "" {
		return 0
	}
	count := 0
	for _, w := range words {
		if normalizeWord(w) == keyword {
			count++
		}
	}
	return round2(float64(count) / float64(len(words)) * 100)
}

// detectIssues evaluates every rule in a fixed order. Each rule yields at most
// one issue so the list is stable for a given input.
func (a *Analyzer) detectIssues(m *Metrics, hasKeyword bool, structure *Structure) []models.Issue {
	issues := []models.Issue{}

	if m.WordCount == 0 {
		issues = append(issues, models.Issue{
			Code:       "no_content",
			Severity:   models.SeverityCritical,
			Message:    "No readable content found.",
			Suggestion: "Provide text content or a URL with an article body.",
		})
	} else if m.WordCount < a.limits.MinWordCount {
		issues = append(issues, models.Issue{
			Code:       "thin_content",
			Severity:   models.SeverityWarning,
			Message:    "Content is too short to rank well.",
			Suggestion: "Expand the content to cover the topic in more depth.",
		})
	}

	if hasKeyword && m.WordCount > 0 {
		if m.KeywordDensity < a.limits.DensityMin {
			issues = append(issues, models.Issue{
				Code:       "keyword_density_low",
				Severity:   models.SeverityWarning,
				Message:    "Keyword density is too low.",
				Suggestion: "Add the target keyword naturally a few more times.",
			})
		} else if m.KeywordDensity > a.limits.DensityMax {
			issues = append(issues, models.Issue{
				Code:       "keyword_density_high",
				Severity:   models.SeverityWarning,
				Message:    "Keyword density is too high.",
				Suggestion: "Reduce keyword usage to avoid keyword stuffing.",
			})
		}
	}

	if m.WordCount > 0 && m.ReadabilityScore < a.limits.MinReadability {
		issues = append(issues, models.Issue{
			Code:       "readability_poor",
			Severity:   models.SeverityWarning,
			Message:    "Content readability is poor.",
			Suggestion: "Shorten sentences and simplify language.",
		})
	}

	if structure != nil {
		if !structure.HasH1 {
			issues = append(issues, models.Issue{
				Code:       "missing_h1",
				Severity:   models.SeverityCritical,
				Message:    "Missing H1 tag.",
				Suggestion: "Add an H1 tag containing the target keyword.",
			})
		}
		if !structure.HasMetaDescription {
			issues = append(issues, models.Issue{
				Code:       "missing_meta_description",
				Severity:   models.SeverityWarning,
				Message:    "Meta description is missing.",
				Suggestion: "Add a meta description of 150-160 characters containing the target keyword.",
			})
		}
		if !structure.HasSubheadings {
			issues = append(issues, models.Issue{
				Code:       "missing_subheadings",
				Severity:   models.SeverityInfo,
				Message:    "No subheadings detected.",
				Suggestion: "Break content into sections using H2/H3 tags.",
			})
		}
	}

	return issues
}

// score starts at 100 and subtracts a fixed penalty per issue by severity.
// The result is always within [0, 100].
func (a *Analyzer) score(issues []models.Issue) float64 {
	score := 100.0
	for _, issue := range issues {
		switch issue.Severity {
		case models.SeverityCritical:
			score -= a.limits.PenaltyCritical
		case models.SeverityWarning:
			score -= a.limits.PenaltyWarning
		default:
			score -= a.limits.PenaltyInfo
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// fleschReadingEase computes the classic Flesch formula. The result is not
// clamped; values below 0 or above 100 mean extreme readability, not errors.
func fleschReadingEase(words, sentences, syllables int) float64 {
	wordsPerSentence := float64(words) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(words)
	return round2(206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord)
}

// countSyllables estimates syllables by counting maximal vowel runs, with a
// silent trailing "e" dropped. Every word counts as at least one syllable.
func countSyllables(word string) int {
	letters := strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, word))
	if letters == "" {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range letters {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	if strings.HasSuffix(letters, "e") && !strings.HasSuffix(letters, "le") && count > 1 {
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

// normalizeWord lowercases a token and strips leading/trailing punctuation so
// "Fox," and "fox" compare equal for density counting.
func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
