// Package observability builds the zap logger every NetTask process runs
// with, from a config.LogConfig: console or JSON encoding, one core per
// configured output, optional lumberjack rotation for file outputs.
package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nettask/nettask/pkg/config"
)

// SetupLogger builds a *zap.Logger from c, installs it as the global logger
// (zap.L()), and redirects the stdlib log package through it at info level.
// The caller should defer logger.Sync().
func SetupLogger(c config.LogConfig) (*zap.Logger, error) {
	level := parseLevel(c.Level)
	encoder := newEncoder(c)

	var cores []zapcore.Core
	for _, out := range c.Outputs {
		cores = append(cores, coreForOutput(out, c, encoder, level))
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	}
	if c.Development {
		opts = append(opts, zap.Development())
	}

	logger := zap.New(zapcore.NewTee(cores...), opts...)
	zap.ReplaceGlobals(logger)
	if _, err := zap.RedirectStdLogAt(logger, zap.InfoLevel); err != nil {
		return nil, err
	}
	return logger, nil
}

func parseLevel(s string) zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	switch strings.ToLower(s) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}
	return level
}

func newEncoder(c config.LogConfig) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	if c.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if strings.ToLower(c.Format) == "json" {
		return zapcore.NewJSONEncoder(encCfg)
	}
	return zapcore.NewConsoleEncoder(encCfg)
}

// coreForOutput resolves one configured output ("stdout", "stderr", or a
// file path) to a core. A file output only rotates through lumberjack when
// c.Rotation.Enable is set; otherwise it's appended to directly.
func coreForOutput(out string, c config.LogConfig, encoder zapcore.Encoder, level zap.AtomicLevel) zapcore.Core {
	switch strings.ToLower(out) {
	case "stdout":
		return zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	case "stderr":
		return zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	default:
		return zapcore.NewCore(encoder, fileSyncer(out, c.Rotation), level)
	}
}

func fileSyncer(out string, rot config.RotationConfig) zapcore.WriteSyncer {
	if rot.Enable {
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   chooseFilename(out, rot),
			MaxSize:    maxInt(rot.MaxSizeMB, 10),
			MaxBackups: maxInt(rot.MaxBackups, 1),
			MaxAge:     maxInt(rot.MaxAgeDays, 7),
			Compress:   rot.Compress,
		})
	}
	if dir := dirOf(out); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zapcore.AddSync(os.Stderr)
	}
	return zapcore.AddSync(f)
}

// chooseFilename prefers rot.Filename over out when rotation is enabled and
// a filename was explicitly configured, so an operator can send a named
// rotated log somewhere other than the path listed in log.outputs.
func chooseFilename(out string, rot config.RotationConfig) string {
	if strings.TrimSpace(rot.Filename) != "" {
		return rot.Filename
	}
	return out
}

func dirOf(path string) string {
	i := strings.LastIndexAny(path, "/\\")
	if i <= 0 {
		return ""
	}
	return path[:i]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
