package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const FallbackTheme = "General/Not Enough Data"

// Config is built once at startup and passed by value to every component.
type Config struct {
	Analysis Analysis `mapstructure:"analysis"`
	Paths    Paths    `mapstructure:"paths"`
	Postgres Postgres `mapstructure:"postgres"`
	Valkey   Valkey   `mapstructure:"valkey"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Dynamo   Dynamo   `mapstructure:"dynamo"`
}

// Analysis holds the constants that make runs comparable with each other.
type Analysis struct {
	MinTokenLen int `mapstructure:"min_token_len"`

	Topics     int     `mapstructure:"topics"`
	MinDocFreq int     `mapstructure:"min_doc_freq"`
	MaxDocFrac float64 `mapstructure:"max_doc_frac"`
	NGramMin   int     `mapstructure:"ngram_min"`
	NGramMax   int     `mapstructure:"ngram_max"`
	MaxIter    int     `mapstructure:"max_iter"`
	Tolerance  float64 `mapstructure:"tolerance"`
	Seed       uint64  `mapstructure:"seed"`
	TopTerms   int     `mapstructure:"top_terms"`
	NameTerms  int     `mapstructure:"name_terms"`

	PositiveThreshold float64 `mapstructure:"positive_threshold"`
	NegativeThreshold float64 `mapstructure:"negative_threshold"`

	FallbackTheme string `mapstructure:"fallback_theme"`

	// Workers bounds the sentiment and per-bank passes. 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers"`
}

type Paths struct {
	Raw       string `mapstructure:"raw"`
	Processed string `mapstructure:"processed"`
	Analyzed  string `mapstructure:"analyzed"`
	Reports   string `mapstructure:"reports"`
}

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Name)
}

// Complete reports whether every connection parameter is set.
func (p Postgres) Complete() bool {
	return p.Host != "" && p.Port != "" && p.User != "" && p.Password != "" && p.Name != ""
}

type Valkey struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	TLS      bool   `mapstructure:"tls"`
}

type Kafka struct {
	Broker  string `mapstructure:"broker"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type Dynamo struct {
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`
	Table    string `mapstructure:"table"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// defaults alone always decode
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load reads defaults, then the optional YAML file at path, then the
// environment. REVIEWLENS_<SECTION>_<KEY> overrides any key; connection
// settings also honour the plain DB_*, VALKEY_*, KAFKA_* and AWS_* names.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("REVIEWLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("[Config] error reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("[Config] error unmarshaling config: %w", err)
	}

	if err := cfg.Analysis.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (a Analysis) Validate() error {
	var errs []error
	if a.MinTokenLen < 1 {
		errs = append(errs, errors.New("min_token_len must be >= 1"))
	}
	if a.Topics < 1 {
		errs = append(errs, errors.New("topics must be >= 1"))
	}
	if a.MinDocFreq < 1 {
		errs = append(errs, errors.New("min_doc_freq must be >= 1"))
	}
	if a.MaxDocFrac <= 0 || a.MaxDocFrac > 1 {
		errs = append(errs, errors.New("max_doc_frac must be in (0, 1]"))
	}
	if a.NGramMin < 1 || a.NGramMax < a.NGramMin {
		errs = append(errs, errors.New("ngram range must satisfy 1 <= ngram_min <= ngram_max"))
	}
	if a.MaxIter < 1 {
		errs = append(errs, errors.New("max_iter must be >= 1"))
	}
	if a.NameTerms < 1 || a.TopTerms < a.NameTerms {
		errs = append(errs, errors.New("name_terms must be in [1, top_terms]"))
	}
	if a.NegativeThreshold >= a.PositiveThreshold {
		errs = append(errs, errors.New("negative_threshold must be below positive_threshold"))
	}
	if a.FallbackTheme == "" {
		errs = append(errs, errors.New("fallback_theme must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("[Config] invalid analysis settings: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.min_token_len", 3)
	v.SetDefault("analysis.topics", 4)
	v.SetDefault("analysis.min_doc_freq", 5)
	v.SetDefault("analysis.max_doc_frac", 0.85)
	v.SetDefault("analysis.ngram_min", 1)
	v.SetDefault("analysis.ngram_max", 2)
	v.SetDefault("analysis.max_iter", 300)
	v.SetDefault("analysis.tolerance", 1e-4)
	v.SetDefault("analysis.seed", 42)
	v.SetDefault("analysis.top_terms", 5)
	v.SetDefault("analysis.name_terms", 3)
	v.SetDefault("analysis.positive_threshold", 0.05)
	v.SetDefault("analysis.negative_threshold", -0.05)
	v.SetDefault("analysis.fallback_theme", FallbackTheme)
	v.SetDefault("analysis.workers", 0)

	v.SetDefault("paths.raw", "data/raw_reviews.json")
	v.SetDefault("paths.processed", "data/processed_data.csv")
	v.SetDefault("paths.analyzed", "data/analyzed_reviews.csv")
	v.SetDefault("paths.reports", "reports")

	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.name", "")

	v.SetDefault("valkey.address", "")
	v.SetDefault("valkey.password", "")
	v.SetDefault("valkey.tls", false)

	v.SetDefault("kafka.broker", "localhost:29092")
	v.SetDefault("kafka.topic", "analyzed-reviews")
	v.SetDefault("kafka.group_id", "reviewlens-loader")

	v.SetDefault("dynamo.endpoint", "")
	v.SetDefault("dynamo.region", "us-west-2")
	v.SetDefault("dynamo.table", "BankThemeSummaries")
}

func bindLegacyEnv(v *viper.Viper) {
	legacy := map[string]string{
		"postgres.host":     "DB_HOST",
		"postgres.port":     "DB_PORT",
		"postgres.user":     "DB_USER",
		"postgres.password": "DB_PASSWORD",
		"postgres.name":     "DB_NAME",
		"valkey.address":    "VALKEY_INIT_ADDRESS",
		"valkey.password":   "VALKEY_PASSWORD",
		"valkey.tls":        "VALKEY_TLS",
		"kafka.broker":      "KAFKA_BROKER",
		"kafka.group_id":    "KAFKA_CONSUMER_GROUP_ID",
		"dynamo.endpoint":   "AWS_ENDPOINT",
		"dynamo.region":     "AWS_REGION",
	}
	for key, env := range legacy {
		// both names are accepted, the prefixed one wins
		_ = v.BindEnv(key, "REVIEWLENS_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
}
