package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const (
	collectUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	collectSleep     = 500 * time.Millisecond
)

// QAPair is one corpus row.
type QAPair struct {
	Question string
	Reponse  string
	Source   string
}

// CorpusSource ties a documentation URL to the parser that understands its
// page structure.
type CorpusSource struct {
	URL         string
	Description string
	Parse       func(doc *goquery.Document, description string) []QAPair
}

// CollectStats summarizes one collection run for logs and the report mail.
type CollectStats struct {
	Sources  int
	Failed   int
	Pairs    int
	Output   string
	Duration time.Duration
	Started  time.Time
}

// CorpusService scrapes documentation sources into a question/answer CSV
// used to fine-tune the model.
type CorpusService struct {
	client *http.Client
	logger *logrus.Logger
}

func NewCorpusService(logger *logrus.Logger) *CorpusService {
	return &CorpusService{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// DefaultSources is the documentation corpus: the official Python glossary
// and tutorial in French, plus the W3Schools basics in English.
func DefaultSources() []CorpusSource {
	w3pages := map[string]string{
		"python_variables":    "W3Schools - Variables",
		"python_datatypes":    "W3Schools - Data Types",
		"python_numbers":      "W3Schools - Numbers",
		"python_strings":      "W3Schools - Strings",
		"python_booleans":     "W3Schools - Booleans",
		"python_lists":        "W3Schools - Lists",
		"python_tuples":       "W3Schools - Tuples",
		"python_sets":         "W3Schools - Sets",
		"python_dictionaries": "W3Schools - Dictionaries",
		"python_conditions":   "W3Schools - If...Else",
		"python_for_loops":    "W3Schools - For Loops",
		"python_functions":    "W3Schools - Functions",
	}

	sources := []CorpusSource{
		{
			URL:         "https://docs.python.org/fr/3/glossary.html",
			Description: "Glossaire Python",
			Parse:       ParseGlossary,
		},
	}
	for page, description := range w3pages {
		sources = append(sources, CorpusSource{
			URL:         fmt.Sprintf("https://www.w3schools.com/python/%s.asp", page),
			Description: description,
			Parse:       ParseW3Schools,
		})
	}
	for _, page := range []string{"introduction", "controlflow", "datastructures"} {
		sources = append(sources, CorpusSource{
			URL:         fmt.Sprintf("https://docs.python.org/fr/3/tutorial/%s.html", page),
			Description: "Tutoriel Python - " + page,
			Parse:       ParseTutorialSection,
		})
	}
	return sources
}

// Collect fetches every source, parses it and writes the combined CSV.
// One failing source is logged and skipped, not fatal.
func (s *CorpusService) Collect(ctx context.Context, sources []CorpusSource, output string) (*CollectStats, error) {
	stats := &CollectStats{Sources: len(sources), Output: output, Started: time.Now()}

	var pairs []QAPair
	for i, source := range sources {
		s.logger.Infof("collecting %s (%s)", source.Description, source.URL)
		doc, err := s.fetch(ctx, source.URL)
		if err != nil {
			s.logger.Warnf("failed to fetch %s: %s", source.URL, err)
			stats.Failed++
			continue
		}
		extracted := source.Parse(doc, source.Description)
		s.logger.Infof("extracted %d pairs from %s", len(extracted), source.Description)
		pairs = append(pairs, extracted...)

		// be polite between requests
		if i < len(sources)-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(collectSleep):
			}
		}
	}

	if err := WriteCorpusCSV(output, pairs); err != nil {
		return nil, err
	}

	stats.Pairs = len(pairs)
	stats.Duration = time.Since(stats.Started)
	s.logger.Infof("corpus collection done: %d pairs from %d sources into %s",
		stats.Pairs, stats.Sources-stats.Failed, output)
	return stats, nil
}

func (s *CorpusService) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", collectUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// cleanText flattens a selection's text to single-spaced words.
func cleanText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// ParseGlossary extracts term/definition pairs from the Python glossary's
// dt/dd structure.
func ParseGlossary(doc *goquery.Document, description string) []QAPair {
	var pairs []QAPair
	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		term := strings.ReplaceAll(cleanText(dt), "¶", "")
		dd := dt.Next()
		if term == "" || !dd.Is("dd") {
			return
		}
		definition := cleanText(dd)
		if definition == "" {
			return
		}
		pairs = append(pairs, QAPair{
			Question: fmt.Sprintf("Définis le terme Python : '%s'", term),
			Reponse:  definition,
			Source:   description,
		})
	})
	return pairs
}

var w3IgnoreKeywords = []string{
	"Examples", "Test Yourself", "Video", "Exercises",
	"Reference", "Tutorial", "Next Chapter", "Previous Chapter",
}

// ParseW3Schools walks the top-level children of the #main column: each
// h2/h3 opens a question, following paragraphs, lists and w3-code blocks
// build the answer until the next heading.
func ParseW3Schools(doc *goquery.Document, description string) []QAPair {
	main := doc.Find("#main")
	if main.Length() == 0 {
		return nil
	}

	var pairs []QAPair
	var question string
	var answerParts []string

	flush := func() {
		if question != "" && len(answerParts) > 0 {
			pairs = append(pairs, QAPair{
				Question: question,
				Reponse:  strings.Join(answerParts, "\n\n"),
				Source:   description,
			})
		}
	}

	main.Children().Each(func(_ int, el *goquery.Selection) {
		switch goquery.NodeName(el) {
		case "h2", "h3":
			flush()
			question = ""
			answerParts = nil

			title := cleanText(el)
			if title == "" {
				return
			}
			for _, keyword := range w3IgnoreKeywords {
				if strings.Contains(title, keyword) {
					return
				}
			}
			question = fmt.Sprintf("Explique '%s' en Python.", title)
		case "p", "ul", "ol":
			if question == "" || el.HasClass("w3-hide") {
				return
			}
			if text := cleanText(el); text != "" {
				answerParts = append(answerParts, text)
			}
		case "div":
			if question == "" || !el.HasClass("w3-code") {
				return
			}
			code := cleanText(el)
			if code != "" {
				answerParts = append(answerParts, fmt.Sprintf("Exemple:\n```python\n%s\n```", code))
			}
		}
	})
	flush()
	return pairs
}

// ParseTutorialSection turns each titled section of a python.org tutorial
// page into a pair, converting the section body to markdown so code blocks
// survive.
func ParseTutorialSection(doc *goquery.Document, description string) []QAPair {
	main := doc.Find("div[role='main'], main").First()
	if main.Length() == 0 {
		return nil
	}

	var pairs []QAPair
	main.Find("section").Each(func(_ int, section *goquery.Selection) {
		heading := section.ChildrenFiltered("h1, h2, h3, h4").First()
		title := strings.ReplaceAll(cleanText(heading), "¶", "")
		if title == "" {
			return
		}

		html, err := goquery.OuterHtml(section)
		if err != nil {
			return
		}
		body, err := htmltomarkdown.ConvertString(html)
		if err != nil {
			return
		}
		body = stripLeadingHeading(body)
		if len(body) < 20 {
			return
		}
		pairs = append(pairs, QAPair{
			Question: fmt.Sprintf("Explique la section '%s' du tutoriel Python.", title),
			Reponse:  body,
			Source:   description,
		})
	})
	return pairs
}

// stripLeadingHeading drops the first markdown heading line so the answer
// does not restate the question.
func stripLeadingHeading(markdown string) string {
	markdown = strings.TrimSpace(markdown)
	if strings.HasPrefix(markdown, "#") {
		if idx := strings.IndexByte(markdown, '\n'); idx >= 0 {
			markdown = markdown[idx+1:]
		} else {
			markdown = ""
		}
	}
	return strings.TrimSpace(markdown)
}

// WriteCorpusCSV writes pairs as question,reponse,source.
func WriteCorpusCSV(path string, pairs []QAPair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corpus file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"question", "reponse", "source"}); err != nil {
		return fmt.Errorf("failed to write corpus header: %w", err)
	}
	for _, p := range pairs {
		if err := w.Write([]string{p.Question, p.Reponse, p.Source}); err != nil {
			return fmt.Errorf("failed to write corpus row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
