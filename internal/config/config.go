package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"botadmin/lib/validate"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	BindIp   string `yaml:"bind_ip" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"8080"`
	ApiToken string `yaml:"api_token" env:"BOTADMIN_API_TOKEN" env-default:""`
}

type Telegram struct {
	ApiKey         string        `yaml:"api_key" env:"TELEGRAM_API_KEY" validate:"required"`
	NotifyLevel    string        `yaml:"notify_level" env-default:"error" validate:"oneof=debug info warn error off"`
	CleanupDelay   time.Duration `yaml:"cleanup_delay" env-default:"3s"`
	UnbanDelay     time.Duration `yaml:"unban_delay" env-default:"2s"`
	DigestInterval time.Duration `yaml:"digest_interval" env-default:"10m"`
	Timezone       string        `yaml:"timezone" env-default:"Europe/Paris"`
}

type Data struct {
	UsersFile       string `yaml:"users_file" env-default:"data/users.json" validate:"required"`
	AccessCodesFile string `yaml:"access_codes_file" env-default:"data/access_codes.json" validate:"required"`
	BroadcastsFile  string `yaml:"broadcasts_file" env-default:"data/broadcasts.json" validate:"required"`
	AdminsFile      string `yaml:"admins_file" env-default:"config/config.json" validate:"required"`
}

type Codes struct {
	Length        int           `yaml:"length" env-default:"8" validate:"min=4,max=32"`
	TTL           time.Duration `yaml:"ttl" env-default:"48h"`
	MaxBatch      int           `yaml:"max_batch" env-default:"20" validate:"min=1,max=100"`
	PurgeSchedule string        `yaml:"purge_schedule" env-default:"@every 1h"`
}

type Mongo struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env-default:"botadmin"`
}

type Config struct {
	Env      string   `yaml:"env" env-default:"local" validate:"oneof=local dev prod"`
	Telegram Telegram `yaml:"telegram"`
	Data     Data     `yaml:"data"`
	Codes    Codes    `yaml:"codes"`
	Mongo    Mongo    `yaml:"mongo"`
	Listen   Listen   `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance, err = Load(path)
		if err != nil {
			log.Fatal(err)
		}
	})
	return instance
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	if err := validate.Struct(conf); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}
