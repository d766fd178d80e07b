package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		WorkDir          string

		PasswordResetTimeoutDelta time.Duration

		SendgridApiKey string
		RollbarToken   string

		Server   ServerConfig
		Database DatabaseConfig
		Storage  StorageConfig
	}

	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		DisableReqLogs            bool
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	StorageConfig struct {
		Driver   string // disk | oss
		MediaDir string
		MediaURL string

		OSSEndpoint        string
		OSSAccessKeyID     string
		OSSAccessKeySecret string
		OSSBucket          string
		OSSPublicURL       string
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// IsMemory tells whether the in-memory repositories should be used instead of Postgres.
func (dbc DatabaseConfig) IsMemory() bool {
	return strings.EqualFold(dbc.Engine, "memory")
}

// NewConfig loads the app configuration from the environment (and `config/.env.<env>` if it exists).
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	setDefaults(v, env, wd)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return newConfigFromViper(v, env)
}

func setDefaults(v *viper.Viper, env, wd string) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Pathway")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Pathway <noreply@localhost>")
	v.SetDefault("workDir", wd)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "pathway")
	v.SetDefault("database.user", "pathway")
	v.SetDefault("database.password", "pathway")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("storage.driver", "disk")
	v.SetDefault("storage.mediaDir", filepath.Join(wd, "media"))
	v.SetDefault("storage.mediaURL", "http://localhost:8000/media")
	v.SetDefault("storage.ossEndpoint", "")
	v.SetDefault("storage.ossAccessKeyID", "")
	v.SetDefault("storage.ossAccessKeySecret", "")
	v.SetDefault("storage.ossBucket", "")
	v.SetDefault("storage.ossPublicURL", "")
}

func newConfigFromViper(v *viper.Viper, env string) *Config {
	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatal(fmt.Errorf("config.defaultFromEmail: %v", err))
	}

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail:          *from,
		WorkDir:                   v.GetString("workDir"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:                   v.GetString("server.address"),
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Storage: StorageConfig{
			Driver:             v.GetString("storage.driver"),
			MediaDir:           v.GetString("storage.mediaDir"),
			MediaURL:           strings.TrimRight(v.GetString("storage.mediaURL"), "/"),
			OSSEndpoint:        v.GetString("storage.ossEndpoint"),
			OSSAccessKeyID:     v.GetString("storage.ossAccessKeyID"),
			OSSAccessKeySecret: v.GetString("storage.ossAccessKeySecret"),
			OSSBucket:          v.GetString("storage.ossBucket"),
			OSSPublicURL:       strings.TrimRight(v.GetString("storage.ossPublicURL"), "/"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: in-memory DB, no request logs, fixed secret.
func NewTestConfig() *Config {
	v := viper.New()
	wd, _ := os.Getwd()
	setDefaults(v, "TEST", wd)
	v.Set("secretKey", "secret")
	v.Set("database.engine", "memory")
	v.Set("server.disableReqLogs", true)
	v.Set("storage.mediaDir", filepath.Join(os.TempDir(), "pathway-test-media"))
	return newConfigFromViper(v, "TEST")
}
