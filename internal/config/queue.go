package config

type QueueConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

func loadQueueConfig() *QueueConfig {
	return &QueueConfig{
		Host:     getEnv("RABBITMQ_HOST", "localhost"),
		Port:     getEnvAsInt("RABBITMQ_PORT", 5672),
		User:     getEnv("RABBITMQ_USER", "guest"),
		Password: getEnv("RABBITMQ_PASSWORD", "guest"),
		VHost:    getEnv("RABBITMQ_VHOST", ""),
	}
}
