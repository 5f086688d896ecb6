package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 整個應用的配置
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Game struct {
		RoomCount    int `yaml:"room_count"`
		MaxFrameSize int `yaml:"max_frame_size"`
	} `yaml:"game"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfig 回傳內建預設值
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 8080
	config.Server.ReadTimeout = 15 * time.Second
	config.Server.WriteTimeout = 15 * time.Second
	config.Game.RoomCount = DefaultRoomCount
	config.Game.MaxFrameSize = DefaultMaxFrameSize
	config.Log.Level = "info"
	config.Log.Format = "text"
	return config
}

// LoadConfig 載入配置檔案，檔案不存在時採用預設值
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("無效的服務端口: %d", c.Server.Port)
	}
	if c.Game.RoomCount <= 0 {
		return fmt.Errorf("房間數量必須大於 0: %d", c.Game.RoomCount)
	}
	if c.Game.MaxFrameSize <= 0 {
		return fmt.Errorf("框架大小上限必須大於 0: %d", c.Game.MaxFrameSize)
	}
	return nil
}
