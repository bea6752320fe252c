package dto

import "time"

type SyncQuestionRequest struct {
	Id                string   `json:"id" validate:"required,max=128"`
	ModuleId          string   `json:"module_id" validate:"required,max=128"`
	Text              string   `json:"text" validate:"required,max=2000"`
	Domain            string   `json:"domain" validate:"required,interview_domain"`
	Difficulty        string   `json:"difficulty" validate:"required,difficulty"`
	Type              string   `json:"type" validate:"required,question_type"`
	FollowUpTemplates []string `json:"follow_up_templates" validate:"max=20,dive,max=500"`
}

type SyncQuestionResponse struct {
	Id       string    `json:"id"`
	Queued   bool      `json:"queued"`
	QueuedAt time.Time `json:"queued_at"`
}

// QuestionSyncMessage is the payload of the question sync topic.
type QuestionSyncMessage struct {
	QuestionId string `json:"question_id"`
}

type ListQuestionsRequest struct {
	ModuleId   string `query:"module_id" validate:"max=128"`
	Domain     string `query:"domain" validate:"omitempty,interview_domain"`
	Difficulty string `query:"difficulty" validate:"omitempty,difficulty"`
	Type       string `query:"type" validate:"omitempty,question_type"`
	Query      string `query:"q" validate:"max=200"`
	Page       int    `query:"page" validate:"gte=0"`
	PageSize   int    `query:"page_size" validate:"gte=0,lte=100"`
}

type QuestionDetailResponse struct {
	Id                string     `json:"id"`
	ModuleId          string     `json:"module_id"`
	Text              string     `json:"text"`
	Domain            string     `json:"domain"`
	Difficulty        string     `json:"difficulty"`
	Type              string     `json:"type"`
	FollowUpTemplates []string   `json:"follow_up_templates"`
	LastSyncedAt      *time.Time `json:"last_synced_at"`
}

type ListQuestionsResponse struct {
	Items       []QuestionDetailResponse `json:"items"`
	Total       int64                    `json:"total"`
	PendingSync int64                    `json:"pending_sync"`
	Page        int                      `json:"page"`
	PageSize    int                      `json:"page_size"`
}
