package storage

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/countryquiz/internal/platform/errors"
)

func TestQuizPersistent(t *testing.T) {
	if (Quiz{}).Persistent() {
		t.Fatal("zero id quiz must be transient")
	}
	if !(Quiz{ID: 7}).Persistent() {
		t.Fatal("quiz with id must be persistent")
	}
}

func TestQuizFilledCountsNonNilSlots(t *testing.T) {
	quiz := Quiz{QuestionCount: 6}
	quiz.Questions[0] = &Question{Prompt: "Capital of France?"}
	quiz.Questions[3] = &Question{}

	if got := quiz.Filled(); got != 2 {
		t.Fatalf("Filled() = %d, want 2", got)
	}
}

func TestQuizStringListsPresentSlots(t *testing.T) {
	quiz := Quiz{ID: 3, Date: "2024-01-01", Result: "1/6", QuestionCount: 1}
	quiz.Questions[1] = &Question{Prompt: "Peru"}

	got := quiz.String()
	if !strings.HasPrefix(got, "3 2024-01-01 1/6 1") {
		t.Fatalf("String() = %q, want quiz header prefix", got)
	}
	if !strings.Contains(got, `q2="Peru"`) {
		t.Fatalf("String() = %q, want slot 2 prompt", got)
	}
	if strings.Contains(got, "q1=") {
		t.Fatalf("String() = %q, absent slot must be omitted", got)
	}
}

func TestQuestionCorrect(t *testing.T) {
	tests := []struct {
		name     string
		question Question
		want     bool
	}{
		{name: "match", question: Question{Answer: "Asia", Selected: "Asia"}, want: true},
		{name: "miss", question: Question{Answer: "Asia", Selected: "Europe"}, want: false},
		{name: "unanswered", question: Question{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.question.Correct(); got != tt.want {
				t.Fatalf("Correct() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinelsCarryCodes(t *testing.T) {
	err := fmt.Errorf("store quiz: %w", ErrInsertRejected)
	if !errors.Is(err, ErrInsertRejected) {
		t.Fatal("expected wrapped sentinel to match")
	}
	if got := apperrors.CodeOf(err); got != apperrors.CodeInsertRejected {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeInsertRejected)
	}
	if errors.Is(err, ErrHandleNotOpen) {
		t.Fatal("different sentinels must not match")
	}
}
