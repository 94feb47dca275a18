// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"time"

	"mood_chat_server/pkg/constants"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName     string   `toml:"appName"`     // 应用名称，用于日志标识等
	Host        string   `toml:"host"`        // 服务器监听地址，如 "0.0.0.0"
	Port        int      `toml:"port"`        // 服务器监听端口，如 5000
	Mode        string   `toml:"mode"`        // 运行模式："dev" 或 "release"
	CorsOrigins []string `toml:"corsOrigins"` // 允许的跨域来源，为空则允许全部
	TlsRedirect bool     `toml:"tlsRedirect"` // 是否将 HTTP 重定向到 HTTPS（由 Nginx 处理 SSL 时关闭）
}

// StorageConfig 存储驱动选择
type StorageConfig struct {
	Driver string `toml:"driver"` // "mysql" 或 "memory"
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`         // MySQL 服务器地址
	Port         int    `toml:"port"`         // MySQL 端口，默认 3306
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`  // 关闭时不使用消息缓存
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig Kafka 消息队列配置
type KafkaConfig struct {
	MessageMode string        `toml:"messageMode"` // 消息模式："channel" 或 "kafka"
	HostPort    string        `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	ChatTopic   string        `toml:"chatTopic"`   // 群消息扇出主题
	Partition   int           `toml:"partition"`   // 主题分区数，按群组 ID 哈希分区
	GroupID     string        `toml:"groupId"`     // 消费者组，每个实例必须不同才能收到全量消息
	Timeout     time.Duration `toml:"timeout"`     // 超时时间（秒）
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret"`            // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry int    `toml:"accessTokenExpiry"` // Access Token 有效期（分钟）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 雪花算法节点 ID，范围 0-1023，分布式部署时每台机器需唯一
}

// GroupConfig 群组生命周期与清理相关配置
type GroupConfig struct {
	MoodGroupTTLHours    int `toml:"moodGroupTTLHours"`    // 情绪群默认存活时长（小时）
	SweepIntervalMinutes int `toml:"sweepIntervalMinutes"` // 定时清理间隔（分钟）
	StoreTimeoutSeconds  int `toml:"storeTimeoutSeconds"`  // 单次存储调用超时（秒）
	RecentMessageLimit   int `toml:"recentMessageLimit"`   // 最近消息条数
	MaxAliasAttempts     int `toml:"maxAliasAttempts"`     // 昵称碰撞重试次数
	MaxMessageLength     int `toml:"maxMessageLength"`     // 单条消息最大字符数
}

// StoreTimeout 返回单次存储调用的超时时间
func (g GroupConfig) StoreTimeout() time.Duration {
	return time.Duration(g.StoreTimeoutSeconds) * time.Second
}

// SweepInterval 返回定时清理间隔
func (g GroupConfig) SweepInterval() time.Duration {
	return time.Duration(g.SweepIntervalMinutes) * time.Minute
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`      // 主配置
	StorageConfig   `toml:"storageConfig"`   // 存储驱动
	MysqlConfig     `toml:"mysqlConfig"`     // MySQL 配置
	RedisConfig     `toml:"redisConfig"`     // Redis 配置
	LogConfig       `toml:"logConfig"`       // 日志配置
	KafkaConfig     `toml:"kafkaConfig"`     // Kafka 配置
	JWTConfig       `toml:"jwtConfig"`       // JWT 配置
	SnowflakeConfig `toml:"snowflakeConfig"` // 雪花算法配置
	GroupConfig     `toml:"groupConfig"`     // 群组配置
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() error {
	// 候选配置文件路径（优先加载本地配置）
	paths := []string{
		"configs/config_local.toml",       // 本地开发配置（优先）
		"configs/config.toml",             // 默认配置
		"../../configs/config_local.toml", // 从子目录运行时的路径
		"../../configs/config.toml",       // 从子目录运行时的路径
	}

	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			return nil
		}
	}

	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件，缺失的字段补默认值
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig() // 忽略加载错误，使用默认值
		config.applyDefaults()
	}
	return config
}

// Default 返回只含默认值的配置，测试中使用
func Default() *Config {
	c := new(Config)
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = "mood_chat_server"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 5000
	}
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Driver == "" {
		c.Driver = "mysql"
	}
	if c.MessageMode == "" {
		c.MessageMode = "channel"
	}
	if c.KafkaConfig.Timeout == 0 {
		c.KafkaConfig.Timeout = 1
	}
	if c.Partition == 0 {
		c.Partition = 1
	}
	if c.ChatTopic == "" {
		c.ChatTopic = "mood_chat_group_messages"
	}
	if c.KafkaConfig.GroupID == "" {
		c.KafkaConfig.GroupID = "mood_chat"
	}
	if c.AccessTokenExpiry == 0 {
		c.AccessTokenExpiry = 60
	}
	if c.MoodGroupTTLHours == 0 {
		c.MoodGroupTTLHours = constants.MOOD_GROUP_TTL_HOURS
	}
	if c.SweepIntervalMinutes == 0 {
		c.SweepIntervalMinutes = 60
	}
	if c.StoreTimeoutSeconds == 0 {
		c.StoreTimeoutSeconds = 5
	}
	if c.RecentMessageLimit == 0 {
		c.RecentMessageLimit = constants.RECENT_MESSAGE_LIMIT
	}
	if c.MaxAliasAttempts == 0 {
		c.MaxAliasAttempts = constants.MAX_ALIAS_ATTEMPTS
	}
	if c.MaxMessageLength == 0 {
		c.MaxMessageLength = constants.MESSAGE_MAX_LENGTH
	}
}
