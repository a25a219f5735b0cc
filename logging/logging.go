package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options configures the process-wide logger
type Options struct {
	Debug   bool
	LogFile string
	Output  io.Writer
}

var (
	logger  = newLogger(os.Stderr)
	logFile *rotatelogs.RotateLogs
	mu      sync.Mutex
	isSetup bool
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&messageFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// messageFormatter prints the bare message, like console output
type messageFormatter struct{}

func (f *messageFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return []byte(entry.Message + "\n"), nil
}

// fileHook mirrors every entry to the rotating log file with timestamps
type fileHook struct {
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

// SetupLogger configures verbosity, console output and the optional log file
func SetupLogger(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	// Check if logger is already set up
	if isSetup {
		return nil
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger = newLogger(out)
	if opts.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	if opts.LogFile != "" {
		rl, err := rotatelogs.New(
			opts.LogFile+".%Y%m%d",
			rotatelogs.WithLinkName(opts.LogFile),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(7*24*time.Hour),
		)
		if err != nil {
			return errors.Wrap(err, "failed to open log file")
		}
		logFile = rl
		logger.AddHook(&fileHook{
			writer:    rl,
			formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
		})
		logger.Debugf("--- findimg log started at %s ---", time.Now().Format(time.RFC3339))
	}

	isSetup = true
	return nil
}

// CloseLogger closes the log file and resets the logger
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Debugf("--- findimg log closed at %s ---", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
	}
	logger = newLogger(os.Stderr)
	isSetup = false
}

// Logger exposes the underlying logger
func Logger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// IsDebug reports whether debug messages are emitted
func IsDebug() bool {
	return Logger().IsLevelEnabled(logrus.DebugLevel)
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	Logger().Infof(format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	Logger().Debugf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	Logger().Errorf("Error: "+format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	Logger().Warnf("Warning: "+format, args...)
}

// LogImageProcessed logs a hashed candidate at debug level
func LogImageProcessed(path string, success bool, errMsg string) {
	l := Logger()
	if !l.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	if success {
		l.WithField("path", path).Debug(fmt.Sprintf("Image: %s", path))
	} else {
		l.WithField("path", path).Debug(fmt.Sprintf("Failed: %s - Error: %s", path, errMsg))
	}
}
