package sqlite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/countryquiz/internal/platform/errors"
	"github.com/louisbranch/countryquiz/internal/services/quiz/storage"
)

const quizTable = "quizzes"

const (
	columnID            = "id"
	columnDate          = "date"
	columnResult        = "result"
	columnQuestionCount = "question_count"
)

var questionColumns = [storage.SlotCount]string{
	"question1",
	"question2",
	"question3",
	"question4",
	"question5",
	"question6",
}

// insertColumns lists the columns written on insert in statement order. The
// id column is generated by the store.
var insertColumns = append(
	[]string{columnDate, columnResult, columnQuestionCount},
	questionColumns[:]...,
)

// quizColumnCount is the number of columns a quiz row must carry.
var quizColumnCount = len(insertColumns) + 1

// EncodeQuiz maps a quiz to its column values, keyed by column name. The id
// is omitted. Absent question slots map to nil (SQL NULL); present ones to the
// question's JSON object text. Choices are written as given, so a nil list
// and an empty list decode back unchanged.
func EncodeQuiz(quiz storage.Quiz) (map[string]any, error) {
	values := map[string]any{
		columnDate:          quiz.Date,
		columnResult:        quiz.Result,
		columnQuestionCount: int64(quiz.QuestionCount),
	}
	for i, question := range quiz.Questions {
		value, err := encodeQuestion(question)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", questionColumns[i], err)
		}
		values[questionColumns[i]] = value
	}
	return values, nil
}

func encodeQuestion(question *storage.Question) (any, error) {
	if question == nil {
		return nil, nil
	}
	data, err := json.Marshal(question)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// DecodeQuiz rebuilds a quiz from one row. Columns are matched by name, so
// their order does not matter. Any missing column, NULL scalar, or question
// payload that is not a JSON object yields an error matching
// storage.ErrMalformedRow.
func DecodeQuiz(columns []string, values []any) (storage.Quiz, error) {
	if len(columns) != len(values) {
		return storage.Quiz{}, malformed("", "row has %d values for %d columns", len(values), len(columns))
	}
	if len(columns) < quizColumnCount {
		return storage.Quiz{}, malformed("", "row has %d columns, want %d", len(columns), quizColumnCount)
	}

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[strings.ToLower(name)] = i
	}
	value := func(column string) (any, error) {
		i, ok := index[column]
		if !ok {
			return nil, malformed(column, "missing column %s", column)
		}
		return values[i], nil
	}

	var quiz storage.Quiz
	raw, err := value(columnID)
	if err != nil {
		return storage.Quiz{}, err
	}
	if quiz.ID, err = asInt64(columnID, raw); err != nil {
		return storage.Quiz{}, err
	}

	if raw, err = value(columnDate); err != nil {
		return storage.Quiz{}, err
	}
	if quiz.Date, err = asString(columnDate, raw); err != nil {
		return storage.Quiz{}, err
	}

	if raw, err = value(columnResult); err != nil {
		return storage.Quiz{}, err
	}
	if quiz.Result, err = asString(columnResult, raw); err != nil {
		return storage.Quiz{}, err
	}

	if raw, err = value(columnQuestionCount); err != nil {
		return storage.Quiz{}, err
	}
	count, err := asInt64(columnQuestionCount, raw)
	if err != nil {
		return storage.Quiz{}, err
	}
	quiz.QuestionCount = int(count)

	for i, column := range questionColumns {
		if raw, err = value(column); err != nil {
			return storage.Quiz{}, err
		}
		if quiz.Questions[i], err = decodeQuestion(column, raw); err != nil {
			return storage.Quiz{}, err
		}
	}
	return quiz, nil
}

func decodeQuestion(column string, raw any) (*storage.Question, error) {
	if raw == nil {
		return nil, nil
	}
	var payload []byte
	switch v := raw.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		return nil, malformed(column, "%s holds %T, want text", column, raw)
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '{' {
		return nil, malformed(column, "%s is not a question object", column)
	}
	var question storage.Question
	if err := json.Unmarshal(payload, &question); err != nil {
		return nil, apperrors.WrapWithMetadata(
			apperrors.CodeMalformedRow,
			"decode "+column,
			map[string]string{"column": column},
			err,
		)
	}
	return &question, nil
}

func asInt64(column string, raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case []byte:
		return parseInt(column, string(v))
	case string:
		return parseInt(column, v)
	case nil:
		return 0, malformed(column, "%s is null", column)
	default:
		return 0, malformed(column, "%s holds %T, want integer", column, raw)
	}
}

func parseInt(column, text string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, apperrors.WrapWithMetadata(
			apperrors.CodeMalformedRow,
			"decode "+column,
			map[string]string{"column": column},
			err,
		)
	}
	return n, nil
}

func asString(column string, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", malformed(column, "%s is null", column)
	default:
		return "", malformed(column, "%s holds %T, want text", column, raw)
	}
}

func malformed(column, format string, args ...any) error {
	var metadata map[string]string
	if column != "" {
		metadata = map[string]string{"column": column}
	}
	return apperrors.WithMetadata(apperrors.CodeMalformedRow, fmt.Sprintf(format, args...), metadata)
}
