package review

import (
	"fmt"

	"github.com/bazelment/agenttap/contract"
)

// Issue is a single review finding.
type Issue struct {
	Severity   Severity `json:"severity" jsonschema:"enum=critical,enum=high,enum=medium,enum=low"`
	File       string   `json:"file,omitempty"`
	Line       int      `json:"line,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Report is the structured output of a review session. OverallScore grades
// the reviewed change from 0 (broken) to 10 (ship it).
type Report struct {
	Summary      string  `json:"summary,omitempty"`
	Issues       []Issue `json:"issues"`
	OverallScore float64 `json:"overallScore"`
}

// HasBlocking reports whether any issue is at or above min severity.
func (r Report) HasBlocking(min Severity) bool {
	for _, issue := range r.Issues {
		if issue.Severity.AtLeast(min) {
			return true
		}
	}
	return false
}

// ReportContract returns the structured-output contract review sessions
// declare: a payload must carry issues and overallScore to count as success.
func ReportContract() *contract.Contract {
	return contract.MustForType[Report]("review_report")
}

// ParseReport validates and decodes a terminal payload into a Report, with
// issues ordered most severe first.
func ParseReport(payload []byte) (Report, error) {
	report, err := contract.Decode[Report](ReportContract(), payload)
	if err != nil {
		return Report{}, err
	}
	SortIssues(report.Issues)
	return report, nil
}

// buildGoalText formats the goal text for review prompts.
func buildGoalText(goal string) string {
	if goal == "" {
		return "Review all changes on this branch. Use commit messages to understand their purpose."
	}
	return "Review all changes on this branch. The main goal of the change on this branch is: " + goal
}

// BuildPrompt creates a review prompt that requests a Report-shaped JSON
// response.
func BuildPrompt(goal string) string {
	return fmt.Sprintf(`You are an experienced software engineer, with bias toward code quality and correctness.
%s

Focus on these areas:
- Is the implementation correct? Is there any gap that should be addressed.
- Does it provide sufficient test coverage for the code paths it touched.
- Maintainability. Also look at surrounding code; flag avoidable duplication.
- Developer experience.
- Performance.
- Security.

When you flag an issue, provide a short, direct explanation and cite the affected file and line.
Prioritize severe issues and avoid nit-level comments unless they block understanding of the diff.

## Output Format
Respond with JSON in this exact format:
{
  "summary": "Brief overall assessment of the changes",
  "issues": [
    {
      "severity": "critical|high|medium|low",
      "file": "path/to/file.go",
      "line": 42,
      "message": "Description of the issue",
      "suggestion": "How to fix it"
    }
  ],
  "overallScore": 7.5
}

## Severity Levels
- critical: Bugs, security vulnerabilities, broken functionality, data loss risks
- high: Missing error handling, incorrect logic that could cause failures
- medium: Code style issues, minor inefficiencies, missing edge cases
- low: Naming preferences, formatting, optional improvements

## Rules
- severity MUST be exactly one of: critical, high, medium, low
- issues can be empty when there is nothing to flag
- overallScore grades the change from 0 (broken) to 10 (ship it)`, buildGoalText(goal))
}
