package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Intro lines the training corpus standardizes bare code answers on.
const (
	introFR = "Voici un exemple de code Python :"
	introEN = "Here is a Python code example:"
)

const (
	minQuestionLength = 11
	minAnswerCSVLen   = 21
)

// DatasetService merges scraped and imported CSVs into the cleaned
// bilingual corpus the fine-tuning run consumes.
type DatasetService struct {
	logger *logrus.Logger
}

func NewDatasetService(logger *logrus.Logger) *DatasetService {
	return &DatasetService{logger: logger}
}

// CleanStats summarizes one cleaning run.
type CleanStats struct {
	Loaded     int
	Kept       int
	Duplicates int
	TooShort   int
	Output     string
}

// Clean loads every input CSV, normalizes the rows and writes the merged
// deduplicated corpus.
func (s *DatasetService) Clean(inputs []string, output string) (*CleanStats, error) {
	stats := &CleanStats{Output: output}

	var pairs []QAPair
	for _, input := range inputs {
		loaded, err := LoadCorpusCSV(input)
		if err != nil {
			return nil, err
		}
		s.logger.Infof("loaded %d rows from %s", len(loaded), input)
		pairs = append(pairs, loaded...)
	}
	stats.Loaded = len(pairs)

	seen := make(map[string]struct{}, len(pairs))
	var kept []QAPair
	for _, pair := range pairs {
		pair.Question = collapseWhitespace(pair.Question)
		pair.Reponse = NormalizeAnswer(pair.Question, pair.Reponse)

		if len(pair.Question) < minQuestionLength || len(pair.Reponse) < minAnswerCSVLen {
			stats.TooShort++
			continue
		}
		if _, dup := seen[pair.Question]; dup {
			stats.Duplicates++
			continue
		}
		seen[pair.Question] = struct{}{}
		kept = append(kept, pair)
	}
	stats.Kept = len(kept)

	if err := WriteCorpusCSV(output, kept); err != nil {
		return nil, err
	}
	s.logger.Infof("dataset cleaned: kept %d of %d rows (%d duplicates, %d too short)",
		stats.Kept, stats.Loaded, stats.Duplicates, stats.TooShort)
	return stats, nil
}

// NormalizeAnswer standardizes one answer: the intro line must match the
// question's language, and bare code gets fenced with an intro.
func NormalizeAnswer(question, answer string) string {
	answer = strings.TrimSpace(answer)
	lang := detectLanguage(question)

	// fix an intro written in the other language
	if lang == "en" && strings.HasPrefix(answer, introFR) {
		answer = introEN + strings.TrimPrefix(answer, introFR)
	} else if lang == "fr" && strings.HasPrefix(answer, introEN) {
		answer = introFR + strings.TrimPrefix(answer, introEN)
	}

	if isBareCode(answer) {
		intro := introEN
		if lang == "fr" {
			intro = introFR
		}
		answer = fmt.Sprintf("%s\n```python\n%s\n```", intro, answer)
	}
	return answer
}

func isBareCode(answer string) bool {
	return strings.HasPrefix(answer, "def ") ||
		strings.HasPrefix(answer, "class ") ||
		strings.HasPrefix(answer, "import ")
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// LoadCorpusCSV reads a question,reponse[,source] CSV with a header row.
func LoadCorpusCSV(path string) ([]QAPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus header: %w", err)
	}
	questionCol, reponseCol, sourceCol := columnIndexes(header)
	if questionCol < 0 || reponseCol < 0 {
		return nil, fmt.Errorf("corpus file %s is missing question/reponse columns", path)
	}

	var pairs []QAPair
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus row: %w", err)
		}
		if len(record) <= questionCol || len(record) <= reponseCol {
			continue
		}
		pair := QAPair{Question: record[questionCol], Reponse: record[reponseCol]}
		if sourceCol >= 0 && len(record) > sourceCol {
			pair.Source = record[sourceCol]
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func columnIndexes(header []string) (question, reponse, source int) {
	question, reponse, source = -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "question":
			question = i
		case "reponse", "answer":
			reponse = i
		case "source":
			source = i
		}
	}
	return question, reponse, source
}
