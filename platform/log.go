package platform

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type dailyFileHook struct {
	writer   *os.File
	logPath  string
	fileName string
	fileDate string
}

func (h *dailyFileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *dailyFileHook) Fire(entry *logrus.Entry) error {
	today := time.Now().Format("2006-01-02")
	line, _ := entry.String()
	// roll over to a new file at midnight
	if h.fileDate != today {
		h.fileDate = today
		h.writer.Close()
		if err := os.MkdirAll(h.logPath, os.ModePerm); err != nil {
			logrus.Error(err)
			return err
		}
		filename := fmt.Sprintf("%s/%s-%s.log", h.logPath, h.fileDate, h.fileName)
		h.writer, _ = os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	}
	h.writer.Write([]byte(line))
	return nil
}

type logFormatter struct{}

func (f *logFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	b.WriteString(fmt.Sprintf("[%s] [%s] %s\n", timestamp, entry.Level, entry.Message))
	return b.Bytes(), nil
}

// NewLogger builds the application logger. Output goes to stderr; the
// dated file under logPath belongs to the hook alone, so rollover can
// close and reopen it safely.
func NewLogger(logPath string, fileName string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logFormatter{})
	logger.SetOutput(os.Stderr)

	today := time.Now().Format("2006-01-02")
	if err := os.MkdirAll(logPath, os.ModePerm); err != nil {
		logger.Error(err)
		return logger
	}
	filename := fmt.Sprintf("%s/%s-%s.log", logPath, today, fileName)
	logFile, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		logger.Error(err)
		return logger
	}
	logger.AddHook(&dailyFileHook{
		writer:   logFile,
		logPath:  logPath,
		fileName: fileName,
		fileDate: today,
	})
	return logger
}
