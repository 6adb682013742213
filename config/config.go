// config.go

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	TriviaPort  int    `mapstructure:"trivia_port"`
	MatchPort   int    `mapstructure:"match_port"`
	GatewayPort int    `mapstructure:"gateway_port"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
}

// GameConfig 游戏规则配置
type GameConfig struct {
	DefaultMaxPlayers   int `mapstructure:"default_max_players"`
	MaxPlayersLimit     int `mapstructure:"max_players_limit"`
	MinQuestionDuration int `mapstructure:"min_question_duration"` // 秒
	MaxQuestionDuration int `mapstructure:"max_question_duration"` // 秒
	MatchMinPlayers     int `mapstructure:"match_min_players"`
	MatchMaxPlayers     int `mapstructure:"match_max_players"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig Config
)

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) error {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("无法读取配置文件: %w", err)
	}

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		return fmt.Errorf("无法解析配置文件: %w", err)
	}

	applyDefaults(&GlobalConfig)

	return nil
}

// applyDefaults 填充缺省的游戏规则配置
func applyDefaults(cfg *Config) {
	if cfg.Game.DefaultMaxPlayers <= 0 {
		cfg.Game.DefaultMaxPlayers = 8
	}
	if cfg.Game.MaxPlayersLimit <= 0 {
		cfg.Game.MaxPlayersLimit = 64
	}
	if cfg.Game.MinQuestionDuration <= 0 {
		cfg.Game.MinQuestionDuration = 5
	}
	if cfg.Game.MaxQuestionDuration <= 0 {
		cfg.Game.MaxQuestionDuration = 300
	}
	if cfg.Game.MatchMinPlayers <= 0 {
		cfg.Game.MatchMinPlayers = 2
	}
	if cfg.Game.MatchMaxPlayers < cfg.Game.MatchMinPlayers {
		cfg.Game.MatchMaxPlayers = cfg.Game.MatchMinPlayers
	}
	if cfg.Auth.TokenTTLHours <= 0 {
		cfg.Auth.TokenTTLHours = 24
	}
}

// GetDSN 获取PostgreSQL连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
