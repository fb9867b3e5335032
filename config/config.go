package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MonitorAddress string `mapstructure:"monitor_address"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // gorm 或 pq
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig 掷骰演出节奏与暂停宽限期，全部可调，纯展示用途
type GameConfig struct {
	RollDelayMS    int `mapstructure:"roll_delay_ms"`
	ResolveDelayMS int `mapstructure:"resolve_delay_ms"`
	PauseGraceSec  int `mapstructure:"pause_grace_sec"`
}

func (g GameConfig) RollDelay() time.Duration    { return time.Duration(g.RollDelayMS) * time.Millisecond }
func (g GameConfig) ResolveDelay() time.Duration { return time.Duration(g.ResolveDelayMS) * time.Millisecond }
func (g GameConfig) PauseGrace() time.Duration   { return time.Duration(g.PauseGraceSec) * time.Second }

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.monitor_address", ":9090")
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("game.roll_delay_ms", 800)
	viper.SetDefault("game.resolve_delay_ms", 600)
	viper.SetDefault("game.pause_grace_sec", 300)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
