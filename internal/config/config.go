package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultCORSOrigins = "http://localhost:5173"
	defaultChannel     = "inventario:changes"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string // vacío: store en memoria
	JWTSecret   string
	CORSOrigins string

	RedisAddr     string // vacío: solo difusión dentro del proceso
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	Timezone       string // filtros de fecha en hora local
	LogLevel       string
	LogFormat      string
	SeedCatalog    bool
	UploadMaxBytes int
}

// Load: .env (si existe) + variables de entorno. Termina el proceso si la config es inválida.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("[FATAL] %v", err)
	}

	if cfg.DatabaseDSN == "" {
		logrus.Warn("[WARN] DATABASE_DSN no definido, se usa el store en memoria (los datos se pierden al reiniciar).")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		logrus.Warn("[WARN] CORS_ALLOWED_ORIGINS usa el valor por defecto, defina su dominio en producción.")
	}

	return cfg
}

// FromEnv: lee la configuración sin validarla
func FromEnv() *Config {
	return &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		RedisChannel:   getEnv("REDIS_CHANNEL", defaultChannel),
		Timezone:       getEnv("APP_TIMEZONE", "Local"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		SeedCatalog:    getEnvAsBool("SEED_CATALOG", true),
		UploadMaxBytes: getEnvAsInt("UPLOAD_MAX_BYTES", 5*1024*1024),
	}
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET no está definido")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET debe tener al menos 32 caracteres")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE inválido %q: %w", c.Timezone, err)
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES debe ser positivo")
	}
	return nil
}

// Location: zona horaria usada para los rangos de fecha de los filtros
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AllowedOrigins: CORS_ALLOWED_ORIGINS separado por comas
func (c *Config) AllowedOrigins() string {
	origins := strings.Split(c.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return strings.Join(origins, ",")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
