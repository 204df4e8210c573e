package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress    string `json:"server_address"`
	BaseURL          string `json:"base_url"`
	DatabaseDSN      string `json:"database_dsn"`
	PgMigrationsPath string `json:"pg_migrations_path"`
	RedisDSN         string `json:"redis_dsn"`
	AdminToken       string `json:"admin_token"`
	DefaultPerPage   int    `json:"default_per_page"`
	EnableHTTPS      bool   `json:"enable_https"`
	TLSCertPath      string `json:"tls_cert_path"`
	TLSKeyPath       string `json:"tls_key_path"`
}

// NewConfig инициализирует конфигурацию на основе аргументов командной строки
func NewConfig() *Config {

	viper.SetDefault("SERVER_ADDRESS", "localhost:8080") // Значения по умолчанию
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("PG_MIGRATIONS_PATH", "internal/migrations")
	viper.SetDefault("REDIS_DSN", "")
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("DEFAULT_PER_PAGE", 10)
	viper.SetDefault("ENABLE_HTTPS", false)
	viper.SetDefault("TLS_CERT_PATH", "cert.pem")
	viper.SetDefault("TLS_KEY_PATH", "key.pem")

	viper.AutomaticEnv()

	// Читаем .env, если есть (не переопределяет переменные окружения!)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // Ошибку игнорируем, если файла нет

	// Определяем флаги, но НЕ задаем в них значения по умолчанию
	serverAddress := flag.String("a", "", "server address")
	baseURL := flag.String("b", "", "base URL")
	databaseDSN := flag.String("d", "", "PostgreSQL DSN")
	redisDSN := flag.String("r", "", "Redis DSN (optional cache)")
	adminToken := flag.String("t", "", "admin access token")
	enableHTTPS := flag.Bool("s", false, "enable HTTPS")
	tlsCertPath := flag.String("cert", "", "path to TLS certificate")
	tlsKeyPath := flag.String("key", "", "path to TLS key")
	configPath := flag.String("c", "", "path to JSON config file")
	flag.StringVar(configPath, "config", "", "path to JSON config file")

	flag.Parse()

	// Загружаем JSON-конфигурацию (если указана)
	if *configPath == "" {
		*configPath = os.Getenv("CONFIG")
	}

	type rawJSON Config
	jsonCfg := &rawJSON{}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Printf("Не удалось прочитать JSON-файл конфигурации %q: %v", *configPath, err)
		} else if err := json.Unmarshal(data, jsonCfg); err != nil {
			log.Printf("Ошибка разбора JSON-файла конфигурации: %v", err)
		}
	}

	cfg := &Config{
		ServerAddress:    firstNonEmpty(viper.GetString("SERVER_ADDRESS"), jsonCfg.ServerAddress),
		BaseURL:          firstNonEmpty(viper.GetString("BASE_URL"), jsonCfg.BaseURL),
		DatabaseDSN:      firstNonEmpty(viper.GetString("DATABASE_DSN"), jsonCfg.DatabaseDSN),
		PgMigrationsPath: firstNonEmpty(viper.GetString("PG_MIGRATIONS_PATH"), jsonCfg.PgMigrationsPath),
		RedisDSN:         firstNonEmpty(viper.GetString("REDIS_DSN"), jsonCfg.RedisDSN),
		AdminToken:       firstNonEmpty(viper.GetString("ADMIN_TOKEN"), jsonCfg.AdminToken),
		DefaultPerPage:   viper.GetInt("DEFAULT_PER_PAGE"),
		EnableHTTPS:      viper.GetBool("ENABLE_HTTPS"),
		TLSCertPath:      firstNonEmpty(viper.GetString("TLS_CERT_PATH"), jsonCfg.TLSCertPath),
		TLSKeyPath:       firstNonEmpty(viper.GetString("TLS_KEY_PATH"), jsonCfg.TLSKeyPath),
	}
	if cfg.DefaultPerPage < 1 && jsonCfg.DefaultPerPage > 0 {
		cfg.DefaultPerPage = jsonCfg.DefaultPerPage
	}

	// Если флаг передан — он имеет высший приоритет
	if *serverAddress != "" {
		cfg.ServerAddress = *serverAddress
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *databaseDSN != "" {
		cfg.DatabaseDSN = *databaseDSN
	}
	if *redisDSN != "" {
		cfg.RedisDSN = *redisDSN
	}
	if *adminToken != "" {
		cfg.AdminToken = *adminToken
	}
	if *enableHTTPS {
		cfg.EnableHTTPS = true
	}
	if *tlsCertPath != "" {
		cfg.TLSCertPath = *tlsCertPath
	}
	if *tlsKeyPath != "" {
		cfg.TLSKeyPath = *tlsKeyPath
	}

	log.Printf("Инициализация конфигурации: ServerAddress=%s", cfg.ServerAddress)
	log.Printf("Инициализация конфигурации: BaseURL=%s", cfg.BaseURL)
	log.Printf("Инициализация конфигурации: PgMigrationsPath=%s", cfg.PgMigrationsPath)
	log.Printf("Инициализация конфигурации: RedisDSN задан=%v", cfg.RedisDSN != "")
	log.Printf("Инициализация конфигурации: EnableHTTPS=%v", cfg.EnableHTTPS)

	// Проверка корректности конфигурации
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Ошибка конфигурации: %v\n", err)
	}

	return cfg
}

// Validate проверяет корректность конфигурации
func (cfg *Config) Validate() error {
	if cfg.ServerAddress == "" {
		return fmt.Errorf("адрес сервера не может быть пустым")
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("базовый URL не может быть пустым")
	}
	if cfg.DatabaseDSN == "" {
		return fmt.Errorf("адрес подключения к БД не может быть пустым")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
