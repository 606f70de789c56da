package websocket

import (
	"fmt"
	"time"
)

// Config WebSocket 连接配置
type Config struct {
	ReadBufferSize    int
	WriteBufferSize   int
	MaxMessageSize    int
	MessageBufferSize int
	HeartbeatInterval time.Duration
	ConnectionTimeout time.Duration
	WriteTimeout      time.Duration
	EnableCompression bool
	// AllowedOrigins empty means same-origin only; "*" allows any.
	AllowedOrigins []string
}

func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		MaxMessageSize:    512,
		MessageBufferSize: 64,
		HeartbeatInterval: 30 * time.Second,
		ConnectionTimeout: 60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// ValidateConfig 验证WebSocket配置
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}
	if config.ReadBufferSize <= 0 || config.WriteBufferSize <= 0 {
		return fmt.Errorf("读/写缓冲区大小必须大于0")
	}
	if config.MaxMessageSize <= 0 {
		return fmt.Errorf("最大消息大小必须大于0")
	}
	if config.MessageBufferSize <= 0 {
		return fmt.Errorf("消息缓冲区大小必须大于0")
	}
	if config.HeartbeatInterval <= 0 || config.ConnectionTimeout <= 0 {
		return fmt.Errorf("心跳间隔和连接超时必须大于0")
	}
	// 心跳间隔应该小于连接超时时间
	if config.HeartbeatInterval >= config.ConnectionTimeout {
		return fmt.Errorf("心跳间隔必须小于连接超时时间")
	}
	return nil
}
