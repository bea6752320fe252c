package dto

import "time"

// PersonalizationContext is the candidate profile used to generate extra
// questions for a session.
type PersonalizationContext struct {
	TargetRole        string   `json:"target_role" validate:"max=200"`
	Skills            []string `json:"skills" validate:"max=30,dive,max=80"`
	ExperienceSummary string   `json:"experience_summary" validate:"max=2000"`
	YearsOfExperience int      `json:"years_of_experience" validate:"gte=0,lte=60"`
}

type CreateSessionRequest struct {
	ModuleId               string                  `json:"module_id" validate:"required,max=128"`
	Domain                 string                  `json:"domain" validate:"omitempty,interview_domain"`
	Difficulty             string                  `json:"difficulty" validate:"omitempty,difficulty"`
	TypeRotation           []string                `json:"type_rotation" validate:"max=10,dive,question_type"`
	PersonalizationContext *PersonalizationContext `json:"personalization_context" validate:"omitempty"`
}

type CreateSessionResponse struct {
	SessionId    string `json:"session_id"`
	Domain       string `json:"domain"`
	Difficulty   string `json:"difficulty"`
	QueueLength  int    `json:"queue_length"`
	Personalized int    `json:"personalized"`
}

type QuestionResponse struct {
	Id         string `json:"id"`
	Text       string `json:"text"`
	Domain     string `json:"domain"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

type NextQuestionResponse struct {
	Question        *QuestionResponse `json:"question,omitempty"`
	Remaining       int               `json:"remaining"`
	SessionComplete bool              `json:"session_complete"`
}

type GenerateFollowUpRequest struct {
	SessionId     string
	AnswerText    string `json:"answer_text" validate:"required,max=20000"`
	Domain        string `json:"domain" validate:"omitempty,interview_domain"`
	Difficulty    string `json:"difficulty" validate:"omitempty,difficulty"`
	MaxCandidates int    `json:"max_candidates" validate:"gte=0,lte=20"`
}

type GenerateFollowUpResponse struct {
	QuestionId       string   `json:"question_id,omitempty"`
	Question         string   `json:"question,omitempty"`
	Type             string   `json:"type,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
	SourceIds        []string `json:"source_ids"`
	GenerationMethod string   `json:"generation_method,omitempty"`
	Source           string   `json:"source,omitempty"`
	ConfidenceScore  float64  `json:"confidence_score"`
	CacheHit         bool     `json:"cache_hit"`
	NoMoreQuestions  bool     `json:"no_more_questions"`
}

type SessionSnapshotResponse struct {
	SessionId    string     `json:"session_id"`
	ModuleId     string     `json:"module_id"`
	Domain       string     `json:"domain"`
	Difficulty   string     `json:"difficulty"`
	Status       string     `json:"status"`
	QueueLength  int        `json:"queue_length"`
	AskedCount   int        `json:"asked_count"`
	Remaining    int        `json:"remaining"`
	FollowUps    int        `json:"follow_ups"`
	Personalized int        `json:"personalized"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}
