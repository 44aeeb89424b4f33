package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const collectTaskTimeout = 30 * time.Minute

// CollectTask runs one scheduled corpus collection and mails the report.
// It is wired to cron in main; failures are logged, never fatal, so a bad
// run does not take the scheduler down.
type CollectTask struct {
	corpus *CorpusService
	report *ReportService
	output string
	logger *logrus.Logger
}

func NewCollectTask(corpus *CorpusService, report *ReportService, output string, logger *logrus.Logger) *CollectTask {
	return &CollectTask{corpus: corpus, report: report, output: output, logger: logger}
}

func (t *CollectTask) Run() {
	t.logger.Info("starting scheduled corpus collection")
	ctx, cancel := context.WithTimeout(context.Background(), collectTaskTimeout)
	defer cancel()

	stats, err := t.corpus.Collect(ctx, DefaultSources(), t.output)
	if err != nil {
		t.logger.Warnf("scheduled corpus collection failed: %s", err)
		return
	}

	if t.report != nil {
		if err := t.report.SendCollectionReport(stats); err != nil {
			t.logger.Warnf("failed to send collection report: %s", err)
		}
	}
	t.logger.Infof("scheduled corpus collection finished in %v", stats.Duration)
}
