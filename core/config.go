package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Debug                     bool
	TestMode                  bool
	AppName                   string
	SecretKey                 string
	Build                     string
	Env                       string // DEV (local; default), TEST, QA, PROD
	FrontendBaseURL           string
	DefaultFromEmail          mail.Address
	PasswordResetTimeoutDelta time.Duration
	RollbarToken              string
	SendgridApiKey            string

	Server struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
	}

	Database struct {
		Engine          string
		Host            string
		Port            string
		User            string
		Password        string
		AdminUser       string
		AdminPassword   string
		Name            string
		DisableTLS      bool
		MaxConns        int32
		MaxConnLifetime time.Duration
	}
}

func (c *Config) IsProd() bool { return c.Env == "PROD" || c.Env == "QA" }

func (c *Config) setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Mentora")
	v.SetDefault("secretKey", "k2#9s-d8w)fj$+0v=qa&nly3(q!p)^*t4(#zp5e@xbrm7ckd")
	v.SetDefault("build", "develop")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Mentora <noreply@localhost>")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 15*time.Minute)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "mentora")
	v.SetDefault("database.password", "mentora")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.name", "mentora")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.maxConns", int32(10))
	v.SetDefault("database.maxConnLifetime", time.Hour)
}

func (c *Config) load(v *viper.Viper) {
	c.Debug = v.GetBool("debug")
	c.TestMode = v.GetBool("testMode")
	c.AppName = v.GetString("appName")
	c.SecretKey = v.GetString("secretKey")
	c.Build = v.GetString("build")
	c.FrontendBaseURL = v.GetString("frontendBaseURL")
	c.PasswordResetTimeoutDelta = v.GetDuration("passwordResetTimeoutDelta")
	c.RollbarToken = v.GetString("rollbarToken")
	c.SendgridApiKey = v.GetString("sendgridApiKey")

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}
	c.DefaultFromEmail = *from

	c.Server.Host = v.GetString("server.host")
	c.Server.DebugHost = v.GetString("server.debugHost")
	c.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	c.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")
	c.Server.JWTRefreshExpirationDelta = v.GetDuration("server.jwtRefreshExpirationDelta")
	c.Server.DisableReqLogs = v.GetBool("server.disableReqLogs")

	c.Database.Engine = v.GetString("database.engine")
	c.Database.Host = v.GetString("database.host")
	c.Database.Port = v.GetString("database.port")
	c.Database.User = v.GetString("database.user")
	c.Database.Password = v.GetString("database.password")
	c.Database.AdminUser = v.GetString("database.adminUser")
	c.Database.AdminPassword = v.GetString("database.adminPassword")
	c.Database.Name = v.GetString("database.name")
	c.Database.DisableTLS = v.GetBool("database.disableTLS")
	c.Database.MaxConns = v.GetInt32("database.maxConns")
	c.Database.MaxConnLifetime = v.GetDuration("database.maxConnLifetime")
}

// NewConfig reads the configuration of the current environment.
// Every key can be overridden by an env var prefixed with the env name, ie: PROD_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()
	conf := new(Config)
	conf.setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	conf.Env = env
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf.load(v)
	return conf
}

// NewTestConfig returns the TEST configuration without reading the environment.
func NewTestConfig() *Config {
	v := viper.New()
	conf := new(Config)
	conf.setDefaults(v)
	v.Set("testMode", true)
	v.Set("secretKey", "secret")
	v.Set("server.disableReqLogs", true)
	conf.load(v)
	conf.Env = "TEST"
	return conf
}

func (c *Config) DBAddress() string {
	return net.JoinHostPort(c.Database.Host, c.Database.Port)
}

// DBURL returns the connection URL of the database `dbName`, using the admin credentials if `admin` is set.
func (c *Config) DBURL(dbName string, admin bool) string {
	user := url.UserPassword(c.Database.User, c.Database.Password)
	if admin && c.Database.AdminUser != "" {
		user = url.UserPassword(c.Database.AdminUser, c.Database.AdminPassword)
	}

	sslMode := "require"
	if c.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   c.Database.Engine,
		User:     user,
		Host:     c.DBAddress(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (c *Config) String() string {
	return fmt.Sprintf("%s(env=%s, build=%s, debug=%t)", c.AppName, c.Env, c.Build, c.Debug)
}
