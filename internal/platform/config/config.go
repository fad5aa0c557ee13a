package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config agrupa toda la configuración del servicio.
// Orden de carga: defaults -> archivo YAML (CONFIG_FILE) -> variables de entorno.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Vacío => repos in-memory.
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type RedisConfig struct {
	// Vacío => revocaciones in-memory.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	// Solo dev: acepta X-Debug-User-ID / X-Debug-User-Role sin token.
	DebugHeaders bool `yaml:"debug_headers"`

	// Permite pedir VET/ADMIN en POST /auth/register. Apagado, el alta pública es solo USER.
	AllowPrivilegedSignup bool `yaml:"allow_privileged_signup"`

	Argon2 Argon2Config `yaml:"argon2"`
}

type Argon2Config struct {
	MemoryKB    uint32 `yaml:"memory_kb"`
	Iterations  uint32 `yaml:"iterations"`
	Parallelism uint8  `yaml:"parallelism"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	App    string `yaml:"app"`
}

// DevJWTSecret se usa solo si no se configura otro; Load avisa vía Warnings.
const DevJWTSecret = "pet-care-dev-secret-change-me"

// Default devuelve la configuración base para desarrollo local.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{AutoMigrate: true},
		Auth: AuthConfig{
			JWTSecret: DevJWTSecret,
			Issuer:    "pet-care-api",
			TokenTTL:  time.Hour,
			Argon2: Argon2Config{
				MemoryKB:    64 * 1024,
				Iterations:  3,
				Parallelism: 2,
			},
		},
		Log: LogConfig{Level: "info", Format: "text", App: "pet-care-api"},
	}
}

// Load arma la configuración desde CONFIG_FILE (opcional) y env.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)
	c.Database.AutoMigrate = getEnvBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.Issuer = getEnv("JWT_ISSUER", c.Auth.Issuer)
	c.Auth.TokenTTL = getEnvDuration("TOKEN_TTL", c.Auth.TokenTTL)
	c.Auth.DebugHeaders = getEnvBool("AUTH_DEBUG_HEADERS", c.Auth.DebugHeaders)
	c.Auth.AllowPrivilegedSignup = getEnvBool("AUTH_ALLOW_PRIVILEGED_SIGNUP", c.Auth.AllowPrivilegedSignup)
	c.Auth.Argon2.MemoryKB = uint32(getEnvInt("ARGON2_MEMORY_KB", int(c.Auth.Argon2.MemoryKB)))
	c.Auth.Argon2.Iterations = uint32(getEnvInt("ARGON2_ITERATIONS", int(c.Auth.Argon2.Iterations)))
	c.Auth.Argon2.Parallelism = uint8(getEnvInt("ARGON2_PARALLELISM", int(c.Auth.Argon2.Parallelism)))

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.App = getEnv("APP_NAME", c.Log.App)
}

// Validate revisa lo mínimo para arrancar sin sorpresas.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.Auth.Argon2.MemoryKB == 0 || c.Auth.Argon2.Iterations == 0 || c.Auth.Argon2.Parallelism == 0 {
		errs = append(errs, errors.New("argon2 parameters must be positive"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Warnings lista configuraciones válidas pero peligrosas fuera de dev.
func (c Config) Warnings() []string {
	var out []string
	if c.Auth.JWTSecret == DevJWTSecret {
		out = append(out, "JWT_SECRET not set, using development secret")
	}
	if c.Auth.DebugHeaders {
		out = append(out, "AUTH_DEBUG_HEADERS enabled, X-Debug-User-ID is trusted without a token")
	}
	if c.Auth.AllowPrivilegedSignup {
		out = append(out, "AUTH_ALLOW_PRIVILEGED_SIGNUP enabled, anyone can register as VET or ADMIN")
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
