package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caucus-labs/caucus/internal/analysis"
	"github.com/caucus-labs/caucus/internal/session"
)

// Exporter writes session artifacts under a base directory, one subdirectory
// per study.
type Exporter struct {
	dir string
}

func New(dir string) *Exporter {
	return &Exporter{dir: dir}
}

func (e *Exporter) studyDir(studyID string) (string, error) {
	dir := filepath.Join(e.dir, studyID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	return dir, nil
}

// WriteTurnsJSONL writes one JSON object per line, in turn order. Returns the
// path written.
func (e *Exporter) WriteTurnsJSONL(studyID, sessionID string, turns []session.Turn) (string, error) {
	dir, err := e.studyDir(studyID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, sessionID+"_turns.jsonl")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, t := range turns {
		if err := enc.Encode(t); err != nil {
			return "", fmt.Errorf("encode turn: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	return path, nil
}

var csvHeader = []string{
	"study_id", "session_id", "participant_id", "round", "question", "answer",
	"confidence", "tags", "follow_up_question", "follow_up_answer", "sentiment", "degraded", "ts",
}

// WriteTurnsCSV writes a flat spreadsheet-friendly view of the turns. Tags
// are joined with ";"; a missing sentiment becomes an empty cell.
func (e *Exporter) WriteTurnsCSV(studyID, sessionID string, turns []session.Turn) (string, error) {
	dir, err := e.studyDir(studyID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, sessionID+"_turns.csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, t := range turns {
		sentiment := ""
		if t.Sentiment != nil {
			sentiment = strconv.FormatFloat(*t.Sentiment, 'f', -1, 64)
		}
		row := []string{
			t.StudyID, t.SessionID, t.ParticipantID, strconv.Itoa(t.Round),
			t.Question, t.Answer,
			strconv.FormatFloat(t.Confidence, 'f', -1, 64),
			strings.Join(t.Tags, ";"),
			t.FollowUpQuestion, t.FollowUpAnswer, sentiment,
			strconv.FormatBool(t.Degraded),
			t.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	return path, nil
}

// WriteReport writes the analysis report as indented JSON.
func (e *Exporter) WriteReport(report *analysis.Report) (string, error) {
	dir, err := e.studyDir(report.StudyID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, report.SessionID+"_report.json")

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// LoadTurnsJSONL reads a turns file back, validating each line. A turn with
// no participant or answer is rejected rather than silently dropped, so a
// truncated export surfaces as an error.
func LoadTurnsJSONL(path string) ([]session.Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var turns []session.Turn
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var t session.Turn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if t.ParticipantID == "" {
			return nil, fmt.Errorf("line %d: missing participant_id", line)
		}
		if t.Answer == "" {
			return nil, fmt.Errorf("line %d: missing answer", line)
		}
		turns = append(turns, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return turns, nil
}
