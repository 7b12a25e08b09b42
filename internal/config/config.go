package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Data     DataConfig
	Output   OutputConfig
	Database DatabaseConfig
	Export   ExportConfig
}

type DataConfig struct {
	Dir      string
	AudioExt string
	// TranscriptFile overrides the <speaker>-<chapter>.trans.txt naming when set.
	TranscriptFile string
	MissingPolicy  string
}

type OutputConfig struct {
	AudioList      string
	TranscriptList string
	SampleSize     int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type ExportConfig struct {
	Enabled bool
	Probe   bool
}

// Load reads envFile when it exists, then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Data: DataConfig{
			Dir:            getEnv("DATA_DIR", "train-clean-100"),
			AudioExt:       getEnv("AUDIO_EXT", ".flac"),
			TranscriptFile: getEnv("TRANSCRIPT_FILE", ""),
			MissingPolicy:  getEnv("MISSING_POLICY", "drop"),
		},
		Output: OutputConfig{
			AudioList:      getEnv("AUDIO_LIST", "audio_files.txt"),
			TranscriptList: getEnv("TRANSCRIPT_LIST", "transcriptions.txt"),
			SampleSize:     getEnvInt("SAMPLE_SIZE", 5),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "dataset"),
		},
		Export: ExportConfig{
			Enabled: getEnvBool("EXPORT_DB", false),
			Probe:   getEnvBool("EXPORT_PROBE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Data.MissingPolicy) {
	case "drop", "empty":
	default:
		return fmt.Errorf("MISSING_POLICY: want drop or empty, got %q", c.Data.MissingPolicy)
	}
	if !strings.HasPrefix(c.Data.AudioExt, ".") {
		return fmt.Errorf("AUDIO_EXT: must start with a dot, got %q", c.Data.AudioExt)
	}
	if c.Output.AudioList == c.Output.TranscriptList {
		return fmt.Errorf("AUDIO_LIST and TRANSCRIPT_LIST point to the same file %q", c.Output.AudioList)
	}
	if c.Output.SampleSize < 0 {
		c.Output.SampleSize = 0
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
