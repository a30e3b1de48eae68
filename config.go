package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/phobologic/cgraph/internal/store"
	"github.com/phobologic/cgraph/internal/watch"
)

const (
	configBaseName = "cgraph"
	configFileName = configBaseName + ".yaml"
	configType     = "yaml"
	configPath     = "."

	envPrefix = "CGRAPH"

	graphKey       = "graph"
	extractorKey   = "extractor"
	workersKey     = "workers"
	keepGoingKey   = "keep_going"
	maxFileSizeKey = "max_file_size"
	gitignoreKey   = "paths.gitignore"
	excludeKey     = "paths.exclude"
	debounceKey    = "watch.debounce"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	extractorHeuristic  = "heuristic"
	extractorTreeSitter = "treesitter"

	defaultLogLevel      = "warn"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// newConfig returns a viper instance carrying every default and reading the
// environment. Config files are read later, once --config is known.
func newConfig() *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(graphKey, store.DefaultPath)
	v.SetDefault(extractorKey, extractorHeuristic)
	v.SetDefault(workersKey, 0)
	v.SetDefault(keepGoingKey, false)
	v.SetDefault(maxFileSizeKey, int64(0))
	v.SetDefault(gitignoreKey, false)
	v.SetDefault(excludeKey, []string{})
	v.SetDefault(debounceKey, watch.DefaultDebounce)

	v.SetDefault(logFilenameKey, "")
	v.SetDefault(logLevelKey, defaultLogLevel)
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, defaultLogCompress)

	return v
}

// readConfig loads path when given, otherwise an optional cgraph.yaml from
// the working directory.
func readConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(configBaseName)
	v.AddConfigPath(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(v *viper.Viper, flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(v.BindPFlag(key, flag))
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger builds the process logger. It writes to stderr unless
// log.filename is set, in which case output goes to a rotating file that the
// returned closer releases.
func configureLogger(v *viper.Viper, stderr io.Writer, verbose bool) (*slog.Logger, io.Closer) {
	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(v.GetString(logLevelKey), slog.LevelWarn)
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	logPath := strings.TrimSpace(v.GetString(logFilenameKey))
	if logPath == "" {
		return slog.New(slog.NewTextHandler(stderr, opts)), io.NopCloser(nil)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    v.GetInt(logMaxSizeKey),
		MaxBackups: v.GetInt(logMaxBackupsKey),
		MaxAge:     v.GetInt(logMaxAgeKey),
		Compress:   v.GetBool(logCompressKey),
	}

	opts.AddSource = true
	return slog.New(slog.NewTextHandler(logWriter, opts)), logWriter
}
