package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/shardmesh/shardmesh/internal/config"
)

// levelsByName maps the accepted LOG_LEVEL/cfg.LogLevel strings to logrus
// levels. Anything else falls back to ErrorLevel.
var levelsByName = map[string]log.Level{
	"trace": log.TraceLevel,
	"debug": log.DebugLevel,
	"info":  log.InfoLevel,
	"warn":  log.WarnLevel,
}

// InitLogger sets the log level and format from the loaded orchestrator
// configuration and logs a one-line startup summary of the node pool and
// shard-fanout concurrency it was given.
func InitLogger(cfg *config.Config) {
	applyLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.WithFields(log.Fields{
		"nodes":       len(cfg.NodeURLs),
		"concurrency": cfg.Concurrency,
		"metadataDir": cfg.MetadataDir,
	}).Info("logging configured")
}

// InitFromEnv sets the log level directly from the LOG_LEVEL environment
// variable, for packages initialized before a Config is available.
func InitFromEnv() {
	applyLevel(os.Getenv("LOG_LEVEL"))
}

// applyLevel resolves a level name (case-insensitive) and sets it as the
// logrus global level, defaulting to ErrorLevel for anything unrecognized.
func applyLevel(name string) {
	level, ok := levelsByName[strings.ToLower(name)]
	if !ok {
		level = log.ErrorLevel
	}
	log.SetLevel(level)
}

func init() {
	InitFromEnv()
}
