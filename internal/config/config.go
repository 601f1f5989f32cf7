package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/tictactoe"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

type Config struct {
	LogLevel          string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Storage           Storage `yaml:"storage"`
	Redis             Redis   `yaml:"redis"`
	SQLiteStoragePath string  `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"games.db"`
	Game              Game    `yaml:"game"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
}

type Redis struct {
	Host    string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	GameTTL time.Duration `yaml:"game-ttl" env:"REDIS_GAME_TTL" env-default:"0s"`
}

type Game struct {
	WinLength        int `yaml:"win-length" env:"GAME_WIN_LENGTH" env-default:"5"`
	InitialHalfWidth int `yaml:"initial-half-width" env:"GAME_INITIAL_HALF_WIDTH" env-default:"10"`
	BoundsMargin     int `yaml:"bounds-margin" env:"GAME_BOUNDS_MARGIN" env-default:"3"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads the config file, environment variables take precedence.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.Storage.Driver {
	case StorageMemory, StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", apperror.ErrInvalidConfig, that.Storage.Driver)
	}

	if err := that.Game.Rules().Validate(); err != nil {
		return fmt.Errorf("game rules: %w", err)
	}

	return nil
}

func (that *Game) Rules() tictactoe.Rules {
	return tictactoe.Rules{
		WinLength:        that.WinLength,
		InitialHalfWidth: that.InitialHalfWidth,
		BoundsMargin:     that.BoundsMargin,
	}
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
