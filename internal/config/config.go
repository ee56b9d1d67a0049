package config

import (
	_ "embed"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

const (
	defaultDim       = 128
	defaultThreshold = 0.6
	defaultModel     = "dlib_face_recognition_resnet_model_v1"
)

type Config struct {
	Embedding EmbeddingConfig
	Matching  MatchingConfig
	Database  DatabaseConfig
	Web       WebConfig
	Models    ModelsConfig
}

type EmbeddingConfig struct {
	Extractor string        // "http" (default) or "dlib"
	URL       string        // defaults to http://localhost:8000
	Model     string        // model name recorded with every descriptor
	ModelsDir string        // dlib model files, only used by the dlib extractor
	Dim       int           // descriptor length agreed with the extractor
	Timeout   time.Duration // per-image extraction timeout
	RateLimit float64       // max extractor requests per second, 0 = unlimited
}

type MatchingConfig struct {
	Threshold    float64 // max L2 distance accepted as a match
	Index        string  // "linear" (default) or "hnsw"
	Candidates   int     // HNSW candidates re-ranked per query
	Concurrency  int     // parallel extractions per enrollment
	MaxImageSize int     // longest side in pixels before uploads are downscaled
}

type DatabaseConfig struct {
	Driver       string // memory, postgres, sqlite, mariadb
	URL          string // connection URL / DSN / file path
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // CORS whitelist in addition to localhost
}

type ModelsConfig struct {
	Models map[string]ModelProfile `yaml:"models"`
}

// ModelProfile is the calibration of one embedding model.
type ModelProfile struct {
	Dim       int     `yaml:"dim"`
	Threshold float64 `yaml:"threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float; unset, empty or invalid values yield the default.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envThreshold reads the match threshold. Zero is valid and means exact matches
// only; unparsable or negative values are reported and replaced by the default.
func envThreshold(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		log.Printf("config: ignoring %s=%q, using threshold %v", key, s, defaultVal)
		return defaultVal
	}
	return f
}

// envDuration reads a Go duration string such as "30s".
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	model := envString("EMBEDDING_MODEL", defaultModel)
	profile := models.Profile(model)

	return &Config{
		Embedding: EmbeddingConfig{
			Extractor: envString("EXTRACTOR", "http"),
			URL:       os.Getenv("EMBEDDING_URL"),
			Model:     model,
			ModelsDir: envString("DLIB_MODELS_DIR", "models"),
			Dim:       envInt("EMBEDDING_DIM", profile.Dim),
			Timeout:   envDuration("EXTRACTOR_TIMEOUT", 30*time.Second),
			RateLimit: envFloat("EXTRACTOR_RPS", 0),
		},
		Matching: MatchingConfig{
			Threshold:    envThreshold("MATCH_THRESHOLD", profile.Threshold),
			Index:        envString("MATCHER_INDEX", "linear"),
			Candidates:   envInt("MATCHER_CANDIDATES", 64),
			Concurrency:  envInt("ENROLL_CONCURRENCY", 4),
			MaxImageSize: envInt("MAX_IMAGE_SIZE", 1920),
		},
		Database: DatabaseConfig{
			Driver:       envString("DATABASE_DRIVER", "memory"),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 5000),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Models: models,
	}
}

// Profile returns the calibration for a model, falling back to the 128-d defaults.
func (m ModelsConfig) Profile(name string) ModelProfile {
	p, ok := m.Models[name]
	if !ok {
		return ModelProfile{Dim: defaultDim, Threshold: defaultThreshold}
	}
	if p.Dim <= 0 {
		p.Dim = defaultDim
	}
	if p.Threshold <= 0 {
		p.Threshold = defaultThreshold
	}
	return p
}
