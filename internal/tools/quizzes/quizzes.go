// Package quizzes implements the quiz history command: it records quiz
// attempts from JSON and lists what the history database holds.
package quizzes

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	entrypoint "github.com/louisbranch/countryquiz/internal/platform/cmd"
	"github.com/louisbranch/countryquiz/internal/services/quiz/storage"
	"github.com/louisbranch/countryquiz/internal/services/quiz/storage/sqlite"
	"github.com/louisbranch/countryquiz/internal/services/quiz/storage/sqlite/migrations"
)

// Config holds quiz history command configuration.
type Config struct {
	DBPath     string        `env:"COUNTRYQUIZ_DB_PATH"`
	Timeout    time.Duration `env:"COUNTRYQUIZ_QUIZZES_TIMEOUT" envDefault:"30s"`
	RecordPath string
	JSONOutput bool
	Migrate    bool
	Verbose    bool
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Migrate: true}
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "quizzes.db")
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the quiz history sqlite database (default: COUNTRYQUIZ_DB_PATH or data/quizzes.db)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	fs.StringVar(&cfg.RecordPath, "record", "", "JSON file with one quiz attempt to store before listing (- for stdin)")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output JSON")
	fs.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate, "apply the quiz schema when opening the database")
	fs.BoolVar(&cfg.Verbose, "v", false, "log storage activity to stderr")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.Timeout <= 0 {
		return Config{}, errors.New("-timeout must be > 0")
	}
	return cfg, nil
}

// Run opens the history database, optionally records one quiz, and lists
// every stored quiz to out.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	logOut := io.Discard
	if cfg.Verbose {
		logOut = errOut
	}
	opts := []sqlite.HandleOption{sqlite.WithLogger(log.New(logOut, log.Prefix(), log.LstdFlags))}
	if cfg.Migrate {
		opts = append(opts, sqlite.WithSchema(migrations.FS))
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	handle := sqlite.NewHandle(cfg.DBPath, opts...)
	if err := handle.Open(ctx); err != nil {
		return fmt.Errorf("open quiz history: %w", err)
	}
	defer func() {
		if err := handle.Close(); err != nil {
			fmt.Fprintf(errOut, "Error: close quiz history: %v\n", err)
		}
	}()
	repo := sqlite.NewRepository(handle)

	if cfg.RecordPath != "" {
		quiz, err := readRecord(cfg.RecordPath, in)
		if err != nil {
			return err
		}
		if _, err := repo.Store(ctx, &quiz); err != nil {
			return err
		}
		fmt.Fprintf(errOut, "stored quiz %d\n", quiz.ID)
	}

	quizzes, err := repo.RetrieveAll(ctx)
	if err != nil {
		return err
	}
	if cfg.JSONOutput {
		return writeJSON(out, quizzes)
	}
	return writeTable(out, quizzes)
}

// quizDocument is the JSON shape of a quiz attempt on input and output.
type quizDocument struct {
	ID            int64               `json:"id,omitempty"`
	Date          string              `json:"date"`
	Result        string              `json:"result"`
	QuestionCount int                 `json:"question_count"`
	Questions     []*storage.Question `json:"questions"`
}

func readRecord(path string, in io.Reader) (storage.Quiz, error) {
	var reader io.Reader
	if path == "-" {
		if in == nil {
			return storage.Quiz{}, errors.New("record from stdin: no input")
		}
		reader = in
	} else {
		file, err := os.Open(path)
		if err != nil {
			return storage.Quiz{}, fmt.Errorf("open record: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var doc quizDocument
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return storage.Quiz{}, fmt.Errorf("decode record: %w", err)
	}
	return doc.quiz()
}

func (d quizDocument) quiz() (storage.Quiz, error) {
	if len(d.Questions) > storage.SlotCount {
		return storage.Quiz{}, fmt.Errorf("record has %d questions, at most %d fit", len(d.Questions), storage.SlotCount)
	}
	if d.ID != 0 {
		return storage.Quiz{}, errors.New("record must not carry an id")
	}
	quiz := storage.Quiz{
		Date:          d.Date,
		Result:        d.Result,
		QuestionCount: d.QuestionCount,
	}
	copy(quiz.Questions[:], d.Questions)
	return quiz, nil
}

func documentOf(quiz storage.Quiz) quizDocument {
	return quizDocument{
		ID:            quiz.ID,
		Date:          quiz.Date,
		Result:        quiz.Result,
		QuestionCount: quiz.QuestionCount,
		Questions:     quiz.Questions[:],
	}
}

func writeJSON(out io.Writer, quizzes []storage.Quiz) error {
	docs := make([]quizDocument, 0, len(quizzes))
	for _, quiz := range quizzes {
		docs = append(docs, documentOf(quiz))
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(docs); err != nil {
		return fmt.Errorf("encode quizzes: %w", err)
	}
	return nil
}

func writeTable(out io.Writer, quizzes []storage.Quiz) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tRESULT\tQUESTIONS\tCORRECT")
	for _, quiz := range quizzes {
		correct := 0
		for _, question := range quiz.Questions {
			if question != nil && question.Correct() {
				correct++
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%d\n", quiz.ID, quiz.Date, quiz.Result, quiz.Filled(), quiz.QuestionCount, correct)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write quizzes: %w", err)
	}
	return nil
}
