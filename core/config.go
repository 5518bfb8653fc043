package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

func init() {
	Conf = NewConfig()
}

type (
	Config struct {
		AppName          string
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		RollbarToken     string
		DefaultFromEmail mail.Address
		Server           ServerConfig
		Database         DatabaseConfig
		Redis            RedisConfig
		Queue            QueueConfig
		Email            EmailConfig
	}

	ServerConfig struct {
		Host               string
		Port               int
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		URL           string // empty disables broadcasting
		ChannelPrefix string
	}

	QueueConfig struct {
		Timezone            string
		ResetSchedule       string
		MetricsSchedule     string
		RecentActivityLimit int
		ResetReportTo       []string
	}

	EmailConfig struct {
		SendgridApiKey string
	}
)

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Location returns the reference timezone used for calendar-day grouping.
func (c QueueConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("config: unknown timezone %q, falling back to UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Carline")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "w3l-k9z$+57=dq&uoxh2(t!x)#*c2(#yg4h^$cegm2pick")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.jwtExpirationDelta", 12*time.Hour)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "carline")
	v.SetDefault("database.user", "carline")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", false)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.channelPrefix", "carline:queue")
	v.SetDefault("queue.timezone", "America/New_York")
	v.SetDefault("queue.resetSchedule", "0 0 3 * * *")
	v.SetDefault("queue.metricsSchedule", "0 30 3 * * *")
	v.SetDefault("queue.recentActivityLimit", 10)
	v.SetDefault("queue.resetReportTo", "")
	v.SetDefault("email.sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("testMode", false)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	confDir := os.Getenv("CONFIG_DIR")
	if confDir == "" {
		confDir = "config"
	}
	dotEnvPath := filepath.Join(confDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Port:               v.GetInt("server.port"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			URL:           v.GetString("redis.url"),
			ChannelPrefix: v.GetString("redis.channelPrefix"),
		},
		Queue: QueueConfig{
			Timezone:            v.GetString("queue.timezone"),
			ResetSchedule:       v.GetString("queue.resetSchedule"),
			MetricsSchedule:     v.GetString("queue.metricsSchedule"),
			RecentActivityLimit: v.GetInt("queue.recentActivityLimit"),
			ResetReportTo:       splitList(v.GetString("queue.resetReportTo")),
		},
		Email: EmailConfig{
			SendgridApiKey: v.GetString("email.sendgridApiKey"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = CleanString(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
