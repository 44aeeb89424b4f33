package service

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
)

// ReportService mails the corpus collection summary. The markdown body is
// rendered to HTML for mail clients that support it.
type ReportService struct {
	host   string
	port   string
	user   string
	pass   string
	from   string
	to     []string
	render func(markdown []byte) ([]byte, error)
	logger *logrus.Logger
}

func NewReportService(host, port, user, pass, from, to string, logger *logrus.Logger) *ReportService {
	return &ReportService{
		host:   host,
		port:   port,
		user:   user,
		pass:   pass,
		from:   from,
		to:     splitAddresses(to),
		render: renderMarkdown,
		logger: logger,
	}
}

func splitAddresses(to string) []string {
	var out []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// SendCollectionReport builds and sends the mail for one collection run.
func (r *ReportService) SendCollectionReport(stats *CollectStats) error {
	if r.host == "" || len(r.to) == 0 {
		r.logger.Info("report mail not configured, skipping")
		return nil
	}

	md := BuildCollectionReport(stats)
	html, err := r.render([]byte(md))
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	e := email.NewEmail()
	e.From = r.from
	e.To = r.to
	e.Subject = collectionReportSubject(stats)
	e.Text = []byte(md)
	e.HTML = html

	addr := r.host + ":" + r.port
	if err := e.Send(addr, smtp.PlainAuth("", r.user, r.pass, r.host)); err != nil {
		return fmt.Errorf("failed to send report mail: %w", err)
	}
	r.logger.Infof("collection report sent to %s", strings.Join(r.to, ", "))
	return nil
}

func collectionReportSubject(stats *CollectStats) string {
	return fmt.Sprintf("Rapport de collecte du corpus - %s", stats.Started.Format("2006-01-02"))
}

// BuildCollectionReport formats one run's stats as markdown.
func BuildCollectionReport(stats *CollectStats) string {
	var b strings.Builder
	b.WriteString("# Collecte du corpus\n\n")
	fmt.Fprintf(&b, "- Démarrée : %s\n", stats.Started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Durée : %v\n", stats.Duration.Round(100*time.Millisecond))
	fmt.Fprintf(&b, "- Sources : %d (%d en échec)\n", stats.Sources, stats.Failed)
	fmt.Fprintf(&b, "- Paires question/réponse : %d\n", stats.Pairs)
	fmt.Fprintf(&b, "- Fichier : `%s`\n", stats.Output)
	return b.String()
}

func renderMarkdown(markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(markdown, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
