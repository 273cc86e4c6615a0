package config

import "time"

type WorkerConfig struct {
	ReminderInterval  time.Duration `yaml:"reminder_interval"`
	ReminderBatchSize int           `yaml:"reminder_batch_size"`
	MetricsPort       int           `yaml:"metrics_port"`
}

func loadWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		ReminderInterval:  getEnvAsDuration("WORKER_REMINDER_INTERVAL", 15*time.Minute),
		ReminderBatchSize: getEnvAsInt("WORKER_REMINDER_BATCH_SIZE", 100),
		MetricsPort:       getEnvAsInt("WORKER_METRICS_PORT", 9091),
	}
}
