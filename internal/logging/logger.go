package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the log level, encoding and an optional rotating log file.
type Config struct {
	Level  string
	Format string
	File   string
}

// New builds the process logger. Logs always go to stderr; when File is
// set they are also written to a size-rotated file without colour codes.
// The returned close function releases the log file.
func New(cfg Config) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	format := strings.ToLower(cfg.Format)
	stderrEnc, err := newEncoder(format, encCfg, true)
	if err != nil {
		return nil, nil, err
	}

	cores := []zapcore.Core{zapcore.NewCore(stderrEnc, zapcore.Lock(os.Stderr), level)}
	closeFn := func() error { return nil }
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   true,
		}
		fileEnc, err := newEncoder(format, encCfg, false)
		if err != nil {
			return nil, nil, err
		}
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(rotator), level))
		closeFn = rotator.Close
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), closeFn, nil
}

func newEncoder(format string, encCfg zapcore.EncoderConfig, color bool) (zapcore.Encoder, error) {
	switch format {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		if color {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(encCfg), nil
	case "json":
		return zapcore.NewJSONEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
