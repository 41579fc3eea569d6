package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// InitLogger builds the arbor logger from the [logging] config section.
// Outputs are additive: "stdout"/"console" and "file" may both be set.
// File logs land in <executable dir>/logs/praedium.log with rotation.
func InitLogger(config *Config) arbor.ILogger {
	writer := writerConfig(config)
	logger := arbor.NewLogger()

	for _, output := range config.Logging.Output {
		switch output {
		case "stdout", "console":
			wc := writer
			wc.Type = models.LogWriterTypeConsole
			logger = logger.WithConsoleWriter(wc)
		case "file":
			logFile, err := logFilePath()
			if err != nil {
				fmt.Printf("Warning: file logging disabled: %v\n", err)
				continue
			}
			wc := writer
			wc.Type = models.LogWriterTypeFile
			wc.FileName = logFile
			wc.MaxSize = 100 * 1024 * 1024
			wc.MaxBackups = 3
			logger = logger.WithFileWriter(wc)
		default:
			fmt.Printf("Warning: unknown log output %q ignored\n", output)
		}
	}

	return logger.WithLevelFromString(config.Logging.Level)
}

func writerConfig(config *Config) models.WriterConfiguration {
	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05.000"
	}
	return models.WriterConfiguration{
		TimeFormat: timeFormat,
		TextOutput: config.Logging.Format != "json",
	}
}

// logFilePath resolves and creates the logs directory beside the binary
func logFilePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("create logs directory: %w", err)
	}
	return filepath.Join(logsDir, "praedium.log"), nil
}
