package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Facility   FacilityConfig   `mapstructure:"facility"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
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
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 校验配置（Token 由外部认证服务签发）
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FacilityConfig 单一设施（部队驻地）配置
type FacilityConfig struct {
	Timezone        string `mapstructure:"timezone"`
	KioskID         string `mapstructure:"kiosk_id"`
	BMQDivisionCode string `mapstructure:"bmq_division_code"`
}

// Location 解析设施时区
func (c *FacilityConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无效的设施时区 %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AttendanceConfig 出勤统计默认参数
// report_settings 中缺少 thresholds / member_handling 时使用
type AttendanceConfig struct {
	WarningThreshold      float64 `mapstructure:"warning_threshold"`
	CriticalThreshold     float64 `mapstructure:"critical_threshold"`
	BMQWarningThreshold   float64 `mapstructure:"bmq_warning_threshold"`
	BMQCriticalThreshold  float64 `mapstructure:"bmq_critical_threshold"`
	GracePeriodWeeks      int     `mapstructure:"grace_period_weeks"`
	MinimumTrainingNights int     `mapstructure:"minimum_training_nights"`
}

// SimulationConfig 数据模拟默认参数
type SimulationConfig struct {
	Seed      uint64               `mapstructure:"seed"` // 0 表示不固定种子
	Rates     SimulationRateConfig `mapstructure:"rates"`
	Intensity IntensityConfig      `mapstructure:"intensity"`
}

// SimulationRateConfig 各类人员出勤概率（0-100）
type SimulationRateConfig struct {
	FTSWorkDays          float64 `mapstructure:"fts_work_days"`
	FTSTrainingNight     float64 `mapstructure:"fts_training_night"`
	FTSAdminNight        float64 `mapstructure:"fts_admin_night"`
	ReserveTrainingNight float64 `mapstructure:"reserve_training_night"`
	ReserveAdminNight    float64 `mapstructure:"reserve_admin_night"`
	BMQAttendance        float64 `mapstructure:"bmq_attendance"`
	EDTAppearance        float64 `mapstructure:"edt_appearance"`
}

// IntensityConfig 访客 / 活动 / 异常数据强度
type IntensityConfig struct {
	VisitorsPerDayMin  int     `mapstructure:"visitors_per_day_min"`
	VisitorsPerDayMax  int     `mapstructure:"visitors_per_day_max"`
	EventsPerMonthMin  int     `mapstructure:"events_per_month_min"`
	EventsPerMonthMax  int     `mapstructure:"events_per_month_max"`
	EdgeCasePercentage float64 `mapstructure:"edge_case_percentage"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

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
	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "sentinel")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// 无默认值，仅注册键名以便 SENTINEL_AUTH_JWT_SECRET 生效
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("facility.timezone", "America/Winnipeg")
	v.SetDefault("facility.kiosk_id", "MAIN-ENTRANCE")
	v.SetDefault("facility.bmq_division_code", "BMQ")

	v.SetDefault("attendance.warning_threshold", 75)
	v.SetDefault("attendance.critical_threshold", 50)
	v.SetDefault("attendance.bmq_warning_threshold", 80)
	v.SetDefault("attendance.bmq_critical_threshold", 60)
	v.SetDefault("attendance.grace_period_weeks", 4)
	v.SetDefault("attendance.minimum_training_nights", 3)

	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.rates.fts_work_days", 95)
	v.SetDefault("simulation.rates.fts_training_night", 90)
	v.SetDefault("simulation.rates.fts_admin_night", 70)
	v.SetDefault("simulation.rates.reserve_training_night", 70)
	v.SetDefault("simulation.rates.reserve_admin_night", 40)
	v.SetDefault("simulation.rates.bmq_attendance", 90)
	v.SetDefault("simulation.rates.edt_appearance", 15)
	v.SetDefault("simulation.intensity.visitors_per_day_min", 2)
	v.SetDefault("simulation.intensity.visitors_per_day_max", 8)
	v.SetDefault("simulation.intensity.events_per_month_min", 1)
	v.SetDefault("simulation.intensity.events_per_month_max", 3)
	v.SetDefault("simulation.intensity.edge_case_percentage", 10)
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if _, err := c.Facility.Location(); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.Attendance.WarningThreshold <= c.Attendance.CriticalThreshold {
		return fmt.Errorf("配置校验失败: attendance.warning_threshold 必须大于 critical_threshold")
	}
	if c.Attendance.BMQWarningThreshold <= c.Attendance.BMQCriticalThreshold {
		return fmt.Errorf("配置校验失败: attendance.bmq_warning_threshold 必须大于 bmq_critical_threshold")
	}
	if c.Attendance.MinimumTrainingNights < 1 {
		return fmt.Errorf("配置校验失败: attendance.minimum_training_nights 不能小于 1")
	}
	in := c.Simulation.Intensity
	if in.VisitorsPerDayMin > in.VisitorsPerDayMax || in.EventsPerMonthMin > in.EventsPerMonthMax {
		return fmt.Errorf("配置校验失败: simulation.intensity 区间下限不能大于上限")
	}
	return nil
}
