// Package config loads the draft predictor's configuration from environment
// variables and an optional YAML file, following the same viper-based
// pattern the rest of the herald.lol family of services uses.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable configuration value: support thresholds, gate
// deltas, cache TTLs, split ratios, and directory layout.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Registry RegistryConfig `mapstructure:"registry"`
	History  HistoryConfig  `mapstructure:"history"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Training TrainingConfig `mapstructure:"training"`
	Gate     GateConfig     `mapstructure:"gate"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Serving  ServingConfig  `mapstructure:"serving"`
	Meta     MetaConfig     `mapstructure:"meta"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DataConfig locates canonical match records and the champion attribute map.
type DataConfig struct {
	MatchesDir     string `mapstructure:"matches_dir"`
	AttributesFile string `mapstructure:"attributes_file"`
	AssetsDir      string `mapstructure:"assets_dir"`
}

// RegistryConfig locates the model artifact directory and its catalog DB.
type RegistryConfig struct {
	ArtifactDir string `mapstructure:"artifact_dir"`
	Driver      string `mapstructure:"driver"` // sqlite or postgres
	DSN         string `mapstructure:"dsn"`
}

// HistoryConfig holds the history-index minimum-support thresholds.
type HistoryConfig struct {
	MinChampGames int `mapstructure:"min_champ_games"` // champ_winrate needs >=5 games to report
	MinPairGames  int `mapstructure:"min_pair_games"`  // pair_winrate z-score needs >=3 games
	MinMatchupGames int `mapstructure:"min_matchup_games"` // matchup_winrate needs >=3 games
}

// AssetsConfig holds asset-builder thresholds and the embedding dimension.
type AssetsConfig struct {
	MinMatchupSupport int `mapstructure:"min_matchup_support"` // default 200
	MinPriorSupport   int `mapstructure:"min_prior_support"`   // default 500, base_winrate floor
	EmbeddingDim      int `mapstructure:"embedding_dim"`       // 32 or 64; recorded on the asset, not assumed
	TrendPatchWindow  int `mapstructure:"trend_patch_window"`  // default 3 patches
}

// TrainingConfig holds the trainer's split/fold/regularization knobs.
type TrainingConfig struct {
	MinMatchesPerTierGroup int     `mapstructure:"min_matches_per_tier_group"`
	TrainFraction          float64 `mapstructure:"train_fraction"`
	ValFraction            float64 `mapstructure:"val_fraction"`
	TestFraction           float64 `mapstructure:"test_fraction"`
	CVFolds                int     `mapstructure:"cv_folds"`
	RandomSeed             int64   `mapstructure:"random_seed"`
	MaxTreeDepth           int     `mapstructure:"max_tree_depth"`
	MinSamplesPerLeaf      int     `mapstructure:"min_samples_per_leaf"`
	MaxTrees               int     `mapstructure:"max_trees"`
	RowSubsample           float64 `mapstructure:"row_subsample"`
	ColSubsample           float64 `mapstructure:"col_subsample"`
	EarlyStoppingRounds    int     `mapstructure:"early_stopping_rounds"`
	L2Lambda               float64 `mapstructure:"l2_lambda"`
	LearningRate           float64 `mapstructure:"learning_rate"`
	MaxEpochs              int     `mapstructure:"max_epochs"`
}

// GateConfig holds the promotion-gate thresholds.
type GateConfig struct {
	MinLogLossRelImprovement float64 `mapstructure:"min_log_loss_rel_improvement"` // default 0.20
	MinBrierRelImprovement   float64 `mapstructure:"min_brier_rel_improvement"`    // default 0.20
	MaxECERegression         float64 `mapstructure:"max_ece_regression"`           // default 0.02
}

// CacheConfig holds the process-local result cache's shape.
type CacheConfig struct {
	TTL    time.Duration `mapstructure:"ttl"`
	Shards int           `mapstructure:"shards"`
}

// ServingConfig holds serving-path behavior: deadlines, recommendation caps.
type ServingConfig struct {
	RequestDeadline       time.Duration `mapstructure:"request_deadline"`
	ExplanationTopK       int           `mapstructure:"explanation_top_k"`
	RecommendTopN         int           `mapstructure:"recommend_top_n"`
	MaxPickCandidates     int           `mapstructure:"max_pick_candidates"`
	MaxBanCandidates      int           `mapstructure:"max_ban_candidates"`
	TierBiasLow           float64       `mapstructure:"tier_bias_low"`
	TierBiasMid           float64       `mapstructure:"tier_bias_mid"`
	TierBiasHigh          float64       `mapstructure:"tier_bias_high"`
}

// MetaConfig holds the meta/trend service's minimum support and trend window.
type MetaConfig struct {
	MinSupport  int `mapstructure:"min_support"`
	TrendPatches int `mapstructure:"trend_patches"`
}

// LoggingConfig mirrors kihw-herald's logging section, carried even though
// this service only uses the standard library logger (see DESIGN.md).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from built-in defaults, ./configs/config.yaml (if
// present), and environment variables (DRAFTLAB_* prefix, e.g.
// DRAFTLAB_DATA_MATCHES_DIR), in that order of increasing precedence.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("draftlab")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("data.matches_dir", "./data/matches")
	viper.SetDefault("data.attributes_file", "./data/champions.json")
	viper.SetDefault("data.assets_dir", "./data/assets")

	viper.SetDefault("registry.artifact_dir", "./data/artifacts")
	viper.SetDefault("registry.driver", "sqlite")
	viper.SetDefault("registry.dsn", "./data/registry.db")

	viper.SetDefault("history.min_champ_games", 5)
	viper.SetDefault("history.min_pair_games", 3)
	viper.SetDefault("history.min_matchup_games", 3)

	viper.SetDefault("assets.min_matchup_support", 200)
	viper.SetDefault("assets.min_prior_support", 500)
	viper.SetDefault("assets.embedding_dim", 32)
	viper.SetDefault("assets.trend_patch_window", 3)

	viper.SetDefault("training.min_matches_per_tier_group", 500)
	viper.SetDefault("training.train_fraction", 0.8)
	viper.SetDefault("training.val_fraction", 0.1)
	viper.SetDefault("training.test_fraction", 0.1)
	viper.SetDefault("training.cv_folds", 5)
	viper.SetDefault("training.random_seed", 42)
	viper.SetDefault("training.max_tree_depth", 4)
	viper.SetDefault("training.min_samples_per_leaf", 20)
	viper.SetDefault("training.max_trees", 150)
	viper.SetDefault("training.row_subsample", 0.8)
	viper.SetDefault("training.col_subsample", 0.8)
	viper.SetDefault("training.early_stopping_rounds", 10)
	viper.SetDefault("training.l2_lambda", 1.0)
	viper.SetDefault("training.learning_rate", 0.05)
	viper.SetDefault("training.max_epochs", 500)

	viper.SetDefault("gate.min_log_loss_rel_improvement", 0.20)
	viper.SetDefault("gate.min_brier_rel_improvement", 0.20)
	viper.SetDefault("gate.max_ece_regression", 0.02)

	viper.SetDefault("cache.ttl", "60s")
	viper.SetDefault("cache.shards", 32)

	viper.SetDefault("serving.request_deadline", "3s")
	viper.SetDefault("serving.explanation_top_k", 3)
	viper.SetDefault("serving.recommend_top_n", 5)
	viper.SetDefault("serving.max_pick_candidates", 100)
	viper.SetDefault("serving.max_ban_candidates", 80)
	viper.SetDefault("serving.tier_bias_low", -0.3)
	viper.SetDefault("serving.tier_bias_mid", 0.0)
	viper.SetDefault("serving.tier_bias_high", 0.2)

	viper.SetDefault("meta.min_support", 5)
	viper.SetDefault("meta.trend_patches", 3)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}
