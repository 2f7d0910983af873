// Package storage defines quiz history records and the persistence contract
// for storing and restoring them.
package storage

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/countryquiz/internal/platform/errors"
)

// SlotCount is the fixed number of question slots in a quiz record.
const SlotCount = 6

var (
	// ErrHandleNotOpen indicates a repository call without an open storage handle.
	ErrHandleNotOpen = apperrors.New(apperrors.CodeHandleNotOpen, "storage handle is not open")
	// ErrStoreUnavailable indicates the underlying store cannot be opened or reached.
	ErrStoreUnavailable = apperrors.New(apperrors.CodeStoreUnavailable, "store unavailable")
	// ErrMalformedRow indicates a stored row with missing columns or an undecodable payload.
	ErrMalformedRow = apperrors.New(apperrors.CodeMalformedRow, "malformed quiz row")
	// ErrInsertRejected indicates the store refused to insert a quiz row.
	ErrInsertRejected = apperrors.New(apperrors.CodeInsertRejected, "quiz insert rejected")
	// ErrQuizRequired indicates a nil quiz was passed to Store.
	ErrQuizRequired = apperrors.New(apperrors.CodeQuizRequired, "quiz is required")
	// ErrAlreadyPersistent indicates Store was called with a quiz that already has an id.
	ErrAlreadyPersistent = apperrors.New(apperrors.CodeAlreadyPersistent, "quiz is already persistent")
)

// Question is one quiz item embedded in a quiz record. It has no identity of
// its own.
type Question struct {
	Prompt   string   `json:"prompt,omitempty"`
	Choices  []string `json:"choices"`
	Answer   string   `json:"answer,omitempty"`
	Selected string   `json:"selected,omitempty"`
}

// Correct reports whether the selected choice matches the answer.
func (q Question) Correct() bool {
	return q.Selected != "" && q.Selected == q.Answer
}

// Quiz is one completed quiz attempt. A zero ID marks a quiz that has not
// been stored yet.
type Quiz struct {
	ID            int64
	Date          string
	Result        string
	QuestionCount int
	// Questions holds slots 1..6 in order. A nil slot is absent.
	Questions [SlotCount]*Question
}

// Persistent reports whether the quiz has a store-assigned id.
func (q Quiz) Persistent() bool {
	return q.ID != 0
}

// Filled returns the number of non-nil question slots.
func (q Quiz) Filled() int {
	n := 0
	for _, question := range q.Questions {
		if question != nil {
			n++
		}
	}
	return n
}

// String renders the quiz for log lines.
func (q Quiz) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s %s %d", q.ID, q.Date, q.Result, q.QuestionCount)
	for i, question := range q.Questions {
		if question == nil {
			continue
		}
		fmt.Fprintf(&b, " q%d=%q", i+1, question.Prompt)
	}
	return b.String()
}

// QuizStore persists quiz records. Implementations are not safe for
// concurrent use; callers serialize access.
type QuizStore interface {
	Store(ctx context.Context, quiz *Quiz) (*Quiz, error)
	RetrieveAll(ctx context.Context) ([]Quiz, error)
}
