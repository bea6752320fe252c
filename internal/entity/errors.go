package entity

import "errors"

// Provider-facing errors. The follow-up engine recovers from all of these by
// degrading one strategy tier; they never reach the caller.
var (
	ErrEmbeddingUnavailable   = errors.New("embedding unavailable")
	ErrRetrievalUnavailable   = errors.New("retrieval unavailable")
	ErrSynthesisTimeout       = errors.New("synthesis timeout")
	ErrSynthesisUnavailable   = errors.New("synthesis provider unavailable")
	ErrSynthesisInvalidOutput = errors.New("synthesis produced invalid output")
)

// Caller-facing errors.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrModuleNotFound   = errors.New("module has no questions")

	// ErrDuplicateQuestionConflict means the asked-set invariant was about to
	// be broken. It indicates a bug and is never swallowed.
	ErrDuplicateQuestionConflict = errors.New("question already asked in session")

	ErrSessionCompleted = errors.New("session already completed")
)

// ErrNoMoreQuestions is the normal terminal state of an interview: the
// fallback table is exhausted for the session's domain and difficulty.
var ErrNoMoreQuestions = errors.New("no more questions")

// ErrNoCandidate is returned by strategies that need a retrieved candidate
// when none survived filtering.
var ErrNoCandidate = errors.New("no candidate available")

// Boundary validation.
var (
	ErrInvalidDomain       = errors.New("invalid domain")
	ErrInvalidDifficulty   = errors.New("invalid difficulty")
	ErrInvalidQuestionType = errors.New("invalid question type")
	ErrInvalidQuestion     = errors.New("invalid question")
	ErrEmptyAnswer         = errors.New("answer text is required")
)
