package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config armazena todas as configurações do stockflow.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL    string
	DBTimeout      time.Duration
	DBMaxOpenConns int
	DBMaxIdleConns int
	MigrationsDir  string

	// Cache (Redis)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	StatsCacheTTL time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// HTTP
	CORSAllowedOrigins []string

	// Workflow: fallback de armazém/locação quando um item não informa onde está.
	// Vazio em DefaultWarehouseID significa "sem fallback": o item é rejeitado.
	DefaultWarehouseID string
	DefaultLocationID  int64
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL:    mustGetEnv("DATABASE_URL"),
		DBTimeout:      getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,
		DBMaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 10),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "."),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheTTL:      getDurationEnv("CACHE_TTL_SEC", 300) * time.Second,
		StatsCacheTTL: getDurationEnv("STATS_CACHE_TTL_SEC", 30) * time.Second,

		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		DefaultWarehouseID: getEnv("DEFAULT_WAREHOUSE_ID", ""),
		DefaultLocationID:  int64(getIntEnv("DEFAULT_LOCATION_ID", 1)),
	}
}

// Validate confere os valores que o serviço não consegue corrigir sozinho.
func (c *Config) Validate() error {
	if c.DefaultWarehouseID != "" {
		if _, err := uuid.Parse(c.DefaultWarehouseID); err != nil {
			return fmt.Errorf("DEFAULT_WAREHOUSE_ID deve ser um UUID válido: %w", err)
		}
	}
	if c.DefaultLocationID < 1 {
		return fmt.Errorf("DEFAULT_LOCATION_ID deve ser um inteiro positivo, recebido %d", c.DefaultLocationID)
	}
	return nil
}

// Funções Helpers

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	log.Fatalf("Erro de Configuração: a variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável numérica e a retorna como time.Duration (sem unidade).
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Aviso: valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getListEnv lê uma lista separada por vírgulas.
func getListEnv(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
