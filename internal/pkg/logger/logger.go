package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger define a interface para logging estruturado.
// A aplicação (Console, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// LogrusLogger é a implementação concreta da interface Logger sobre o logrus.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogger cria e retorna uma nova instância do Logger.
// Os logs vão para o stderr para não se misturarem com o menu no stdout.
func NewLogger(level string) Logger {
	return NewLoggerWithOutput(level, "production", os.Stderr)
}

// NewLoggerWithOutput permite escolher o ambiente (formato) e o destino dos logs.
// Em desenvolvimento usamos texto legível; nos demais ambientes, JSON.
func NewLoggerWithOutput(level, env string, out io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(parseLevel(level))
	if env == "development" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// parseLevel converte o nível textual; valores desconhecidos viram "info".
func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func (l *LogrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, err error) {
	l.entry.WithError(err).Error(msg)
}

// Fatal registra o erro e encerra o processo.
func (l *LogrusLogger) Fatal(msg string, err error) {
	l.entry.WithError(err).Fatal(msg)
}
