package synthesis

import (
	"fmt"
	"strings"

	"ai-interview-be/internal/entity"
)

// Context is everything a generation strategy may see. The contextual
// strategy ignores Candidates.
type Context struct {
	AnswerText  string
	Domain      entity.Domain
	Difficulty  entity.Difficulty
	DesiredType entity.QuestionType
	Candidates  []entity.FollowUpCandidate
}

// PromptBuilder assembles the generation prompt for one strategy.
type PromptBuilder struct {
	strategy      entity.Strategy
	ctx           Context
	maxCandidates int
}

func NewPromptBuilder(strategy entity.Strategy, ctx Context, maxCandidates int) *PromptBuilder {
	if maxCandidates <= 0 {
		maxCandidates = 3
	}
	return &PromptBuilder{strategy: strategy, ctx: ctx, maxCandidates: maxCandidates}
}

func (b *PromptBuilder) Build() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	if b.strategy == entity.StrategyHighConfidenceRefine {
		b.writeCandidates(&prompt)
	}
	b.writeAnswer(&prompt)
	b.writeGuidelines(&prompt)

	return prompt.String()
}

func (b *PromptBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a technical interviewer running a live interview.\n")
	fmt.Fprintf(prompt, "Domain: %s\n", b.ctx.Domain)
	if b.ctx.Difficulty != "" {
		fmt.Fprintf(prompt, "Difficulty: %s\n", b.ctx.Difficulty)
	}
	if b.ctx.DesiredType != "" {
		fmt.Fprintf(prompt, "Preferred question type: %s\n", b.ctx.DesiredType)
	}

	switch b.strategy {
	case entity.StrategyHighConfidenceRefine:
		prompt.WriteString("Rephrase the most relevant reference question so it follows naturally from the candidate's answer.\n")
		prompt.WriteString("Preserve the technical intent of the reference question exactly. Only adjust wording and context.\n")
	default:
		prompt.WriteString("Write one new follow-up question that digs deeper into what the candidate just said.\n")
	}
	prompt.WriteString("</task>\n\n")
}

func (b *PromptBuilder) writeCandidates(prompt *strings.Builder) {
	prompt.WriteString("<reference_questions>\n")
	for i, c := range b.ctx.Candidates {
		if i >= b.maxCandidates {
			break
		}
		fmt.Fprintf(prompt, "%d. %s\n", i+1, strings.TrimSpace(c.Question.Text))
	}
	prompt.WriteString("</reference_questions>\n\n")
}

func (b *PromptBuilder) writeAnswer(prompt *strings.Builder) {
	prompt.WriteString("<candidate_answer>\n")
	prompt.WriteString(strings.TrimSpace(b.ctx.AnswerText))
	prompt.WriteString("\n</candidate_answer>\n\n")
}

func (b *PromptBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("- Reply with the question only, on a single line\n")
	prompt.WriteString("- No preamble, numbering, quotes or explanation\n")
	prompt.WriteString("- The reply must end with a question mark\n")
	prompt.WriteString("</guidelines>\n")
}

const retryNotice = "\nYour previous reply was rejected because it was not a single question ending with '?'. Reply with the question only.\n"
