package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort" validate:"required"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	LLM struct {
		APIKeyEnv          string        `mapstructure:"apiKeyEnv" validate:"required"`
		Model              string        `mapstructure:"model" validate:"required"`
		EmbeddingModel     string        `mapstructure:"embeddingModel" validate:"required"`
		EmbeddingDimension int           `mapstructure:"embeddingDimension" validate:"gt=0"`
		EmbeddingCacheTTL  time.Duration `mapstructure:"embeddingCacheTTL"`
		Temperature        float32       `mapstructure:"temperature"`
	} `mapstructure:"llm"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Zones     []types.Zone    `mapstructure:"zones" validate:"required,min=1,dive"`
	Export    struct {
		Path string `mapstructure:"path" validate:"required"`
	} `mapstructure:"export"`
	Augmentation struct {
		InputCSV               string        `mapstructure:"inputCSV"`
		OutputJSON             string        `mapstructure:"outputJSON"`
		PromptTemplate         string        `mapstructure:"promptTemplate"`
		ExpectedOutputTemplate string        `mapstructure:"expectedOutputTemplate"`
		RequestInterval        time.Duration `mapstructure:"requestInterval"`
		RetryDelay             time.Duration `mapstructure:"retryDelay"`
		MaxAttempts            int           `mapstructure:"maxAttempts" validate:"gte=1"`
	} `mapstructure:"augmentation"`
	Interview struct {
		Rounds      int    `mapstructure:"rounds" validate:"gte=1"`
		ProfilePath string `mapstructure:"profilePath"`
	} `mapstructure:"interview"`
	Directions struct {
		BaseURL          string        `mapstructure:"baseURL" validate:"required,url"`
		APIKeyEnv        string        `mapstructure:"apiKeyEnv"`
		Mode             string        `mapstructure:"mode"`
		Language         string        `mapstructure:"language"`
		Timeout          time.Duration `mapstructure:"timeout"`
		MaxStops         int           `mapstructure:"maxStops" validate:"gte=2"`
		FailureThreshold uint32        `mapstructure:"failureThreshold"`
	} `mapstructure:"directions"`
}

// RecommendConfig tunes the POI selection engine.
type RecommendConfig struct {
	ZoneCount         int              `mapstructure:"zoneCount" validate:"gte=1"`
	RetrievalLimit    int              `mapstructure:"retrievalLimit" validate:"gte=1"`
	PerZoneLimit      int              `mapstructure:"perZoneLimit" validate:"gte=1"`
	MaxAttemptsFactor int              `mapstructure:"maxAttemptsFactor" validate:"gte=1"`
	SkipFailedZones   bool             `mapstructure:"skipFailedZones"`
	ParallelRetrieval bool             `mapstructure:"parallelRetrieval"`
	Seed              int64            `mapstructure:"seed"`
	RankOrder         string           `mapstructure:"rankOrder" validate:"oneof=reference relevance"`
	Categories        []types.Category `mapstructure:"categories"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// Validate checks struct constraints and that the zone table can feed the sampler.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidConfiguration, err)
	}

	seen := make(map[string]struct{}, len(c.Zones))
	positive := 0
	for _, z := range c.Zones {
		if _, dup := seen[z.Name]; dup {
			return fmt.Errorf("%w: duplicate zone %q", types.ErrInvalidConfiguration, z.Name)
		}
		seen[z.Name] = struct{}{}
		if z.Weight > 0 {
			positive++
		}
	}
	if c.Recommend.ZoneCount > positive {
		return fmt.Errorf("%w: zoneCount %d exceeds %d positively weighted zones",
			types.ErrInvalidConfiguration, c.Recommend.ZoneCount, positive)
	}
	return nil
}
