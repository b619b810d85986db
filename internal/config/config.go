package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string       `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string       `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort   string       `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis        Redis        `yaml:"redis"`
	Rooms        Rooms        `yaml:"rooms"`
	MatchHistory MatchHistory `yaml:"match-history"`
	WebSocket    WebSocket    `yaml:"websocket"`
}

type Redis struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"true"`
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Rooms struct {
	ReapInterval  time.Duration `yaml:"reap-interval" env:"ROOMS_REAP_INTERVAL" env-default:"5m"`
	MaxEmptyAge   time.Duration `yaml:"max-empty-age" env:"ROOMS_MAX_EMPTY_AGE" env-default:"1h"`
	MaxNameLength int           `yaml:"max-name-length" env:"ROOMS_MAX_NAME_LENGTH" env-default:"20"`
}

type MatchHistory struct {
	TTL time.Duration `yaml:"ttl" env:"MATCH_HISTORY_TTL" env-default:"168h"`
}

type WebSocket struct {
	SendBuffer     int           `yaml:"send-buffer" env-default:"64"`
	PingPeriod     time.Duration `yaml:"ping-period" env-default:"54s"`
	PongWait       time.Duration `yaml:"pong-wait" env-default:"60s"`
	WriteWait      time.Duration `yaml:"write-wait" env-default:"10s"`
	MaxMessageSize int64         `yaml:"max-message-size" env-default:"4096"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
