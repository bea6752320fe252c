package personalization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/pkg/llm"
)

const (
	defaultLimit   = 3
	idPrefix       = "pers-"
	maxProfileText = 1200
)

var ErrNoQuestions = errors.New("personalization produced no usable questions")

type Profile struct {
	TargetRole        string
	Skills            []string
	ExperienceSummary string
	YearsOfExperience int
}

func (p Profile) Empty() bool {
	return strings.TrimSpace(p.TargetRole) == "" &&
		len(p.Skills) == 0 &&
		strings.TrimSpace(p.ExperienceSummary) == ""
}

type Request struct {
	ModuleId string
	Domain   entity.Domain
	Profile  Profile
	Limit    int
}

// Provider turns a candidate profile into extra difficulty-tagged questions
// for a session. Callers treat any error as "no personalized questions".
type Provider interface {
	Personalize(ctx context.Context, req Request) ([]entity.Question, error)
}

// LLMProvider asks a text-generation model for a JSON array of questions.
type LLMProvider struct {
	llm     llm.LLMProvider
	timeout time.Duration
	logger  logger.ILogger
}

var _ Provider = (*LLMProvider)(nil)

func NewLLMProvider(provider llm.LLMProvider, timeout time.Duration, log logger.ILogger) *LLMProvider {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &LLMProvider{llm: provider, timeout: timeout, logger: log}
}

type generatedQuestion struct {
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

func (p *LLMProvider) Personalize(ctx context.Context, req Request) ([]entity.Question, error) {
	if req.Profile.Empty() {
		return nil, nil
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildPrompt(req)},
	}, llm.WithTemperature(0.5), llm.WithMaxTokens(512))
	if err != nil {
		return nil, fmt.Errorf("personalize: %w", err)
	}

	questions, skipped := Parse(raw, req)
	if skipped > 0 {
		p.logger.Debug("PERSONALIZATION", "Dropped malformed generated questions", map[string]interface{}{
			"module_id": req.ModuleId,
			"skipped":   skipped,
		})
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

const systemPrompt = `You write technical interview questions tailored to a candidate.
Reply with a JSON array only. Each element has "text", "difficulty" (easy, medium or hard) and "type" (conceptual, technical, behavioral, coding or design).`

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<domain>%s</domain>\n", req.Domain)
	if role := strings.TrimSpace(req.Profile.TargetRole); role != "" {
		fmt.Fprintf(&b, "<target_role>%s</target_role>\n", role)
	}
	if len(req.Profile.Skills) > 0 {
		fmt.Fprintf(&b, "<skills>%s</skills>\n", strings.Join(req.Profile.Skills, ", "))
	}
	if req.Profile.YearsOfExperience > 0 {
		fmt.Fprintf(&b, "<years_of_experience>%d</years_of_experience>\n", req.Profile.YearsOfExperience)
	}
	if summary := strings.TrimSpace(req.Profile.ExperienceSummary); summary != "" {
		summary = truncateUTF8(summary, maxProfileText)
		fmt.Fprintf(&b, "<experience>%s</experience>\n", summary)
	}
	fmt.Fprintf(&b, "Write %d questions that explore this experience. Spread them across difficulties.", req.Limit)
	return b.String()
}

// Parse extracts questions from model output. Elements that fail validation
// are counted in skipped. Ids are stable per module and text.
func Parse(raw string, req Request) ([]entity.Question, int) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, 0
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &generated); err != nil {
		return nil, 0
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		out     []entity.Question
		seen    = make(map[string]bool)
		skipped int
	)
	for _, g := range generated {
		text := strings.Join(strings.Fields(g.Text), " ")
		difficulty, err := entity.ParseDifficulty(g.Difficulty)
		if text == "" || !strings.HasSuffix(text, "?") || err != nil {
			skipped++
			continue
		}
		qType, err := entity.ParseQuestionType(g.Type)
		if err != nil {
			qType = defaultType(req.Domain)
		}

		id := questionId(req.ModuleId, text)
		if seen[id] {
			skipped++
			continue
		}
		seen[id] = true

		out = append(out, entity.Question{
			Id:         id,
			ModuleId:   req.ModuleId,
			Text:       text,
			Domain:     req.Domain,
			Difficulty: difficulty,
			Type:       qType,
			CreatedAt:  time.Now(),
		})
		if len(out) == limit {
			break
		}
	}
	return out, skipped
}

func defaultType(domain entity.Domain) entity.QuestionType {
	if domain == entity.DomainBehavioral {
		return entity.QuestionTypeBehavioral
	}
	return entity.QuestionTypeTechnical
}

func questionId(moduleId, text string) string {
	sum := sha256.Sum256([]byte(moduleId + "|" + strings.ToLower(text)))
	return idPrefix + hex.EncodeToString(sum[:8])
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
