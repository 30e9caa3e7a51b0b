package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DB struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DB) Dsn() string {
	return fmt.Sprintf(
		"host=%v port=%v user=%v password=%v dbname=%v sslmode=%v",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type S3 struct {
	Endpoint  string        `yaml:"endpoint"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	Bucket    string        `yaml:"bucket"`
	UseSSL    bool          `yaml:"use_ssl"`
	URLExpiry time.Duration `yaml:"url_expiry"`
}

type SMTP struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type Keycloak struct {
	ServerUrl     string `yaml:"server_url"`
	Realm         string `yaml:"realm"`
	ClientId      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
}

type Config struct {
	ServerPort int `yaml:"server_port"`

	DB   DB   `yaml:"db"`
	S3   S3   `yaml:"s3"`
	SMTP SMTP `yaml:"smtp"`

	// IdentityProvider selects "basic" or "keycloak".
	IdentityProvider string   `yaml:"identity_provider"`
	Keycloak         Keycloak `yaml:"keycloak"`

	JwtSecret     string `yaml:"jwt_secret"`
	AdminUsername string `yaml:"admin_username"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// Load reads the environment, after merging in a .env file if one is
// present. If PLATEBOOK_CONFIG names a yaml file its values replace the
// environment entirely.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables only")
	}

	if path := os.Getenv("PLATEBOOK_CONFIG"); path != "" {
		return loadFile(path)
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		DB: DB{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "platebook"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		S3: S3{
			Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "platebook"),
			UseSSL:    getEnvBool("S3_USE_SSL", false),
			URLExpiry: getEnvDuration("S3_URL_EXPIRY", 24*time.Hour),
		},
		SMTP: SMTP{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		IdentityProvider: getEnv("IDENTITY_PROVIDER", "basic"),
		Keycloak: Keycloak{
			ServerUrl:     getEnv("KEYCLOAK_SERVER_URL", ""),
			Realm:         getEnv("KEYCLOAK_REALM", "platebook"),
			ClientId:      getEnv("KEYCLOAK_CLIENT_ID", "platebook"),
			ClientSecret:  getEnv("KEYCLOAK_CLIENT_SECRET", ""),
			AdminUsername: getEnv("KEYCLOAK_ADMIN_USERNAME", ""),
			AdminPassword: getEnv("KEYCLOAK_ADMIN_PASSWORD", ""),
		},
		JwtSecret:     getEnv("JWT_SECRET", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@platebook.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file %v: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config file %v: %w", path, err)
	}

	return cfg, nil
}
