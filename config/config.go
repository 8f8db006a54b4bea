package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration
	Server struct {
		Port   string `env:"GLASSHOUSE_PORT" envDefault:"5260"`
		DBPath string `env:"GLASSHOUSE_DB_PATH" envDefault:"database/glasshouse.db"`

		// Path to the metrics configuration file; when the file is
		// missing the built-in defaults are used
		MetricsConfigPath string `env:"GLASSHOUSE_METRICS_CONFIG" envDefault:"config/metrics.json"`

		// Cron expression for the daily snapshot/report job
		SnapshotSchedule string `env:"GLASSHOUSE_SNAPSHOT_SCHEDULE" envDefault:"0 6 * * *"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of records to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Maximum time to wait before processing a non-full batch (in seconds)
		MaxBatchWaitTime int `env:"BATCH_WAIT_TIME" envDefault:"30"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	// Telegram alert notifications; disabled when token or chat id is
	// empty
	Telegram struct {
		BotToken string `env:"GLASSHOUSE_TELEGRAM_TOKEN" envDefault:""`
		ChatID   string `env:"GLASSHOUSE_TELEGRAM_CHAT" envDefault:""`
	}

	// Cost-model overrides; zero values fall back to the metrics
	// configuration file
	CostOverrides struct {
		MonthlyHoldingCost float64 `env:"GLASSHOUSE_HOLDING_COST" envDefault:"0"`
		RenovationPct      float64 `env:"GLASSHOUSE_RENOVATION_PCT" envDefault:"0"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
