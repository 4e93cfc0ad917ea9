package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port             string
	ConsulAddress    string
	ServiceName      string
	ServiceID        string
	ServiceAddress   string
	RabbitMQUser     string
	RabbitMQPassword string
	RabbitMQPort     string
	JWTSecret          string
	JWTExpired         int64
	GroupMappingFile   string
	RecordsServiceName string
	DirectorySync      *DirectorySyncConfig
}

func init() {
	ServiceConfig = New()
}

var ServiceConfig *Config

func New() *Config {
	jwt_expired_str := getEnv("TOKEN_EXPIRY_TIME", "24")
	jwt_expired, _ := strconv.Atoi(jwt_expired_str)

	cfg := &Config{
		Port:             getEnv("PORT", "9200"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", ""),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", ""),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", ""),
		ConsulAddress:    "consul-server:" + getEnv("CONSUL_PORT", "8500"),
		ServiceName:      getEnv("FISCAL_SERVICE_NAME", "fiscal-service"),
		ServiceID:        getEnv("FISCAL_SERVICE_NAME", "fiscal-service") + "-" + getEnv("FISCAL_HOSTNAME", "1"),
		ServiceAddress:   getEnv("FISCAL_SERVICE_ADDRESS", "fiscal-service"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpired:         int64(jwt_expired),
		GroupMappingFile:   getEnv("GROUP_MAPPING_FILE", ""),
		RecordsServiceName: getEnv("FISCAL_RECORDS_SERVICE", "fiscal-records-service"),
	}

	sync, err := LoadDirectorySyncConfig(cfg.GroupMappingFile)
	if err != nil {
		log.Printf("Error loading directory sync config from '%s': %s. Directory sync disabled", cfg.GroupMappingFile, err)
		sync = &DirectorySyncConfig{}
	}
	cfg.DirectorySync = sync

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("ENV %s not set, using fallback", key)
	return fallback
}
