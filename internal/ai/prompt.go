// Package ai defines the request/response contract with generative-text
// providers: prompt construction for both optimization shapes and strict
// validation of the structured output they return.
package ai

import (
	"fmt"
	"strings"

	"github.com/seoscout/seoscout/pkg/models"
)

// SystemPrompt pins the output contract. Every provider sends it verbatim.
const SystemPrompt = "You are an expert SEO content optimizer. " +
	"Always respond in valid JSON format with exactly these keys: " +
	"`optimized_content` (string) and `improvements_done` (list of strings)."

// BuildPrompt renders the user prompt for an optimization request. The two
// request shapes share the same core instructions and JSON contract.
func BuildPrompt(req models.OptimizeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Optimize this content for SEO with keyword %q:\n", req.TargetKeyword)
	b.WriteString("- Maintain natural keyword density (1-3%)\n")
	b.WriteString("- Improve readability\n")
	b.WriteString("- Add relevant semantic keywords\n")

	switch req.Kind {
	case models.OptimizeDirect:
		fmt.Fprintf(&b, "- Tone: %s\n", req.Tone)
		fmt.Fprintf(&b, "- Target length: %d words\n", req.TargetLength)
	default:
		b.WriteString("- Keep the same tone and style\n")
		if a := req.Analysis; a != nil {
			fmt.Fprintf(&b, "- Current readability score: %.2f\n", a.ReadabilityScore)
			fmt.Fprintf(&b, "- Current keyword density: %.2f%%\n", a.KeywordDensity)
			fmt.Fprintf(&b, "- Current average sentence length: %.2f\n", a.AvgSentenceLength)
			fmt.Fprintf(&b, "- Current word count: %d\n", a.WordCount)
			if len(a.Issues) > 0 {
				b.WriteString("- Issues found during analysis:\n")
				for _, issue := range a.Issues {
					fmt.Fprintf(&b, "  - [%s] %s %s\n", issue.Severity, issue.Message, issue.Suggestion)
				}
			}
		}
	}

	b.WriteString("Return ONLY valid JSON like this:\n")
	b.WriteString(`{"optimized_content": "string", "improvements_done": ["string", "string"]}`)
	b.WriteString("\n\nContent:\n")
	b.WriteString(req.Content)

	return b.String()
}
