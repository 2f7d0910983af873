package sqlite

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/louisbranch/countryquiz/internal/services/quiz/storage"
	"github.com/louisbranch/countryquiz/internal/services/quiz/storage/sqlite/migrations"
)

// openTempHandle opens a handle on a fresh database file with the quiz
// schema applied. Log output is collected in the returned buffer.
func openTempHandle(t *testing.T) (*Handle, *bytes.Buffer) {
	t.Helper()
	return openTempHandleWithSchema(t, migrations.FS)
}

func openTempHandleWithSchema(t *testing.T, schema fs.FS) (*Handle, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	handle := NewHandle(
		filepath.Join(t.TempDir(), "quizzes.db"),
		WithSchema(schema),
		WithLogger(log.New(&logs, "", 0)),
	)
	if err := handle.Open(context.Background()); err != nil {
		t.Fatalf("open handle: %v", err)
	}
	t.Cleanup(func() {
		if err := handle.Close(); err != nil {
			t.Fatalf("close handle: %v", err)
		}
	})
	return handle, &logs
}

// schemaFS builds a single-file schema for fixtures that need a table shape
// other than the production one.
func schemaFS(ddl string) fs.FS {
	return fstest.MapFS{
		"001_quizzes.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\n" + ddl)},
	}
}

func execSQL(t *testing.T, handle *Handle, query string, args ...any) {
	t.Helper()
	sqlDB, err := handle.conn()
	if err != nil {
		t.Fatalf("handle conn: %v", err)
	}
	if _, err := sqlDB.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func question(prompt, answer, selected string, choices ...string) *storage.Question {
	return &storage.Question{
		Prompt:   prompt,
		Choices:  choices,
		Answer:   answer,
		Selected: selected,
	}
}

func sampleQuiz() storage.Quiz {
	return storage.Quiz{
		Date:          "2024-01-01",
		Result:        "5/6",
		QuestionCount: 6,
		Questions: [storage.SlotCount]*storage.Question{
			question("Which continent is Kenya on?", "Africa", "Africa", "Africa", "Asia", "Europe"),
			question("Which continent is Peru on?", "South America", "South America", "South America", "Oceania", "Africa"),
			question("Which continent is Norway on?", "Europe", "Europe", "Europe", "North America", "Asia"),
			question("Which continent is Japan on?", "Asia", "Asia", "Asia", "Europe", "Oceania"),
			question("Which continent is Fiji on?", "Oceania", "Asia", "Oceania", "Asia", "South America"),
			question("Which continent is Canada on?", "North America", "North America", "North America", "Europe", "Africa"),
		},
	}
}

// equalIgnoringID compares every quiz field except the id, including the
// contents of each question slot.
func equalIgnoringID(t *testing.T, got, want storage.Quiz) {
	t.Helper()
	if got.Date != want.Date {
		t.Fatalf("date = %q, want %q", got.Date, want.Date)
	}
	if got.Result != want.Result {
		t.Fatalf("result = %q, want %q", got.Result, want.Result)
	}
	if got.QuestionCount != want.QuestionCount {
		t.Fatalf("question count = %d, want %d", got.QuestionCount, want.QuestionCount)
	}
	for i := range want.Questions {
		g, w := got.Questions[i], want.Questions[i]
		if (g == nil) != (w == nil) {
			t.Fatalf("question%d presence = %v, want %v", i+1, g != nil, w != nil)
		}
		if w == nil {
			continue
		}
		if g.Prompt != w.Prompt || g.Answer != w.Answer || g.Selected != w.Selected {
			t.Fatalf("question%d = %+v, want %+v", i+1, *g, *w)
		}
		if (g.Choices == nil) != (w.Choices == nil) || len(g.Choices) != len(w.Choices) {
			t.Fatalf("question%d choices = %v, want %v", i+1, g.Choices, w.Choices)
		}
		for j := range w.Choices {
			if g.Choices[j] != w.Choices[j] {
				t.Fatalf("question%d choice %d = %q, want %q", i+1, j, g.Choices[j], w.Choices[j])
			}
		}
	}
}

func newTestLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}
