package logging

import (
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects process identity, which secrets are present,
// resources, feature flags, and config, then emits one structured event.
// Secret values are never recorded, only whether they are set.
type StartupLogger struct {
	name         string
	commitHash   string
	initDuration time.Duration

	secrets   map[string]bool
	s3Buckets map[string]string
	ssmParams []string
	features  map[string]bool
	config    map[string]string
}

// NewStartupLogger creates a StartupLogger for a binary (e.g. "poster", "api-lambda").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:      name,
		secrets:   make(map[string]bool),
		s3Buckets: make(map[string]string),
		features:  make(map[string]bool),
		config:    make(map[string]string),
	}
}

// CommitHash sets the git commit baked in at build time.
func (s *StartupLogger) CommitHash(hash string) *StartupLogger {
	s.commitHash = hash
	return s
}

// Secret records whether a secret is configured.
func (s *StartupLogger) Secret(label string, value string) *StartupLogger {
	s.secrets[label] = value != ""
	return s
}

// S3Bucket registers a bucket used by this process.
func (s *StartupLogger) S3Bucket(label, name string) *StartupLogger {
	s.s3Buckets[label] = name
	return s
}

// SSMParams registers the parameter paths loaded at startup.
func (s *StartupLogger) SSMParams(paths []string) *StartupLogger {
	s.ssmParams = append(s.ssmParams, paths...)
	return s
}

// Feature registers a feature flag.
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long startup took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// Log emits the startup event at INFO.
func (s *StartupLogger) Log() {
	evt := log.Info()

	identity := zerolog.Dict().
		Str("name", s.name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", zerolog.GlobalLevel().String())
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		identity = identity.
			Str("functionName", fn).
			Str("version", os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")).
			Str("region", os.Getenv("AWS_REGION"))
	}
	if s.commitHash != "" {
		identity = identity.Str("commitHash", s.commitHash)
	}
	evt = evt.Dict("process", identity)

	if len(s.secrets) > 0 {
		d := zerolog.Dict()
		for _, k := range sortedKeys(s.secrets) {
			d = d.Bool(k, s.secrets[k])
		}
		evt = evt.Dict("secrets", d)
	}
	if len(s.s3Buckets) > 0 {
		evt = evt.Dict("s3Buckets", dictFromMap(s.s3Buckets))
	}
	if len(s.ssmParams) > 0 {
		evt = evt.Strs("ssmParams", s.ssmParams)
	}
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for _, k := range sortedKeys(s.features) {
			d = d.Bool(k, s.features[k])
		}
		evt = evt.Dict("features", d)
	}
	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}
	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Startup complete")
}

func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for _, k := range sortedKeys(m) {
		d = d.Str(k, m[k])
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
