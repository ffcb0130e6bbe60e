// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Pipeline PipelineConfig
	Vendors  VendorsConfig
	Google   GoogleConfig
	Slack    SlackConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MaxConcurrent bounds concurrent queries; 0 means unbounded.
	MaxConcurrent int64
}

type AppConfig struct {
	UploadDir string
	DataDir   string
	LogLevel  string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
	LockTTLSeconds      int
}

type PipelineConfig struct {
	WarehousePriority []string
	MaxDates          int
	AlertThreshold    int
	LAFacilityID      string
	// BergenWarehouses maps WAREHOUSENAME values to warehouse codes, as
	// "Bergen Logistics NJ299=BLNJ".
	BergenWarehouses []string
	IntermediateDir  string
	OutputDir        string
	PersistLayers    bool
	// TimeSeriesBackend is one of file, postgres or sheets.
	TimeSeriesBackend string
	TimeSeriesFile    string
	ReferenceDir      string
}

type VendorsConfig struct {
	Bergen         BergenConfig
	TPLCentral     TPLCentralConfig
	ThinkLogistics ThinkLogisticsConfig
	TimeoutSeconds int
}

type BergenConfig struct {
	URL        string
	WebAddress string
	Username   string
	Password   string
}

type TPLCentralConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	UserLoginID  string
	PageSize     int
}

type ThinkLogisticsConfig struct {
	BaseURL       string
	Username      string
	Password      string
	CustomerID    string
	WarehouseCode string
	PageSize      int
}

type GoogleConfig struct {
	CredentialsFile string
	InputFolderID   string
	OutputFolderID  string
	SpreadsheetID   string
	DisplayRange    string
	TimeSeriesSheet string
}

type SlackConfig struct {
	WebhookURL string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "inventory_ops")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("DB_MAX_CONCURRENT", 8)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("APP_DATA_DIR", "./data/output")
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
		viper.SetDefault("CACHE_LOCK_TTL_SECONDS", 1800)

		viper.SetDefault("PIPELINE_WAREHOUSE_PRIORITY", "BLNJ,3PLC NJ,3PLC LA,THINKLOGISTICS")
		viper.SetDefault("PIPELINE_MAX_DATES", 31)
		viper.SetDefault("PIPELINE_ALERT_THRESHOLD", 500)
		viper.SetDefault("PIPELINE_LA_FACILITY_ID", "659")
		viper.SetDefault("PIPELINE_BERGEN_WAREHOUSES", "Bergen Logistics NJ299=BLNJ")
		viper.SetDefault("PIPELINE_INTERMEDIATE_DIR", "./data/intermediate")
		viper.SetDefault("PIPELINE_OUTPUT_DIR", "./data/output")
		viper.SetDefault("PIPELINE_PERSIST_LAYERS", true)
		viper.SetDefault("PIPELINE_TIMESERIES_BACKEND", "file")
		viper.SetDefault("PIPELINE_TIMESERIES_FILE", "./data/output/total_inventory.csv")
		viper.SetDefault("PIPELINE_REFERENCE_DIR", "./data/reference")

		viper.SetDefault("VENDOR_TIMEOUT_SECONDS", 60)
		viper.SetDefault("BERGEN_URL", "https://sync.rex11.com/ws/v4publicapi/publicapiws.asmx")
		viper.SetDefault("TPLC_BASE_URL", "https://secure-wms.com")
		viper.SetDefault("TPLC_PAGE_SIZE", 500)
		viper.SetDefault("TL_BASE_URL", "https://api.thinklogistics.com")
		viper.SetDefault("TL_PAGE_SIZE", 100)
		viper.SetDefault("TL_WAREHOUSE_CODE", "T3")

		viper.SetDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json")
		viper.SetDefault("GOOGLE_DISPLAY_RANGE", "Inventory!A1")
		viper.SetDefault("GOOGLE_TIMESERIES_SHEET", "Total Inventory")

		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("STORAGE_PREFIX", "inventory")

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure upload and data directories exist
		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_DATA_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:          viper.GetString("DB_HOST"),
				Port:          viper.GetString("DB_PORT"),
				User:          viper.GetString("DB_USER"),
				Password:      viper.GetString("DB_PASSWORD"),
				DBName:        viper.GetString("DB_NAME"),
				SSLMode:       viper.GetString("DB_SSLMODE"),
				MaxConcurrent: viper.GetInt64("DB_MAX_CONCURRENT"),
			},
			App: AppConfig{
				UploadDir: viper.GetString("APP_UPLOAD_DIR"),
				DataDir:   viper.GetString("APP_DATA_DIR"),
				LogLevel:  viper.GetString("LOG_LEVEL"),
			},
			Cache: CacheConfig{
				Enabled:             viper.GetBool("CACHE_ENABLED"),
				RedisURL:            viper.GetString("REDIS_URL"),
				RedisHost:           viper.GetString("REDIS_HOST"),
				RedisPort:           viper.GetString("REDIS_PORT"),
				RedisPassword:       viper.GetString("REDIS_PASSWORD"),
				RedisDB:             viper.GetInt("REDIS_DB"),
				DashboardTTLSeconds: viper.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
				LockTTLSeconds:      viper.GetInt("CACHE_LOCK_TTL_SECONDS"),
			},
			Pipeline: PipelineConfig{
				WarehousePriority: splitList(viper.GetString("PIPELINE_WAREHOUSE_PRIORITY")),
				MaxDates:          viper.GetInt("PIPELINE_MAX_DATES"),
				AlertThreshold:    viper.GetInt("PIPELINE_ALERT_THRESHOLD"),
				LAFacilityID:      viper.GetString("PIPELINE_LA_FACILITY_ID"),
				BergenWarehouses:  strings.Split(viper.GetString("PIPELINE_BERGEN_WAREHOUSES"), ";"),
				IntermediateDir:   viper.GetString("PIPELINE_INTERMEDIATE_DIR"),
				OutputDir:         viper.GetString("PIPELINE_OUTPUT_DIR"),
				PersistLayers:     viper.GetBool("PIPELINE_PERSIST_LAYERS"),
				TimeSeriesBackend: viper.GetString("PIPELINE_TIMESERIES_BACKEND"),
				TimeSeriesFile:    viper.GetString("PIPELINE_TIMESERIES_FILE"),
				ReferenceDir:      viper.GetString("PIPELINE_REFERENCE_DIR"),
			},
			Vendors: VendorsConfig{
				TimeoutSeconds: viper.GetInt("VENDOR_TIMEOUT_SECONDS"),
				Bergen: BergenConfig{
					URL:        viper.GetString("BERGEN_URL"),
					WebAddress: viper.GetString("BERGEN_WEB_ADDRESS"),
					Username:   viper.GetString("BERGEN_USERNAME"),
					Password:   viper.GetString("BERGEN_PASSWORD"),
				},
				TPLCentral: TPLCentralConfig{
					BaseURL:      viper.GetString("TPLC_BASE_URL"),
					ClientID:     viper.GetString("TPLC_CLIENT_ID"),
					ClientSecret: viper.GetString("TPLC_CLIENT_SECRET"),
					UserLoginID:  viper.GetString("TPLC_USER_LOGIN_ID"),
					PageSize:     viper.GetInt("TPLC_PAGE_SIZE"),
				},
				ThinkLogistics: ThinkLogisticsConfig{
					BaseURL:       viper.GetString("TL_BASE_URL"),
					Username:      viper.GetString("TL_USERNAME"),
					Password:      viper.GetString("TL_PASSWORD"),
					CustomerID:    viper.GetString("TL_CUSTOMER_ID"),
					WarehouseCode: viper.GetString("TL_WAREHOUSE_CODE"),
					PageSize:      viper.GetInt("TL_PAGE_SIZE"),
				},
			},
			Google: GoogleConfig{
				CredentialsFile: viper.GetString("GOOGLE_CREDENTIALS_FILE"),
				InputFolderID:   viper.GetString("GOOGLE_INPUT_FOLDER_ID"),
				OutputFolderID:  viper.GetString("GOOGLE_OUTPUT_FOLDER_ID"),
				SpreadsheetID:   viper.GetString("GOOGLE_SPREADSHEET_ID"),
				DisplayRange:    viper.GetString("GOOGLE_DISPLAY_RANGE"),
				TimeSeriesSheet: viper.GetString("GOOGLE_TIMESERIES_SHEET"),
			},
			Slack: SlackConfig{
				WebhookURL: viper.GetString("SLACK_WEBHOOK_URL"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
				Prefix:    viper.GetString("STORAGE_PREFIX"),
			},
		}
	})

	return instance
}

// BergenWarehouseMap parses the NAME=CODE pairs of PipelineConfig.BergenWarehouses.
func (p PipelineConfig) BergenWarehouseMap() map[string]string {
	out := make(map[string]string, len(p.BergenWarehouses))
	for _, pair := range p.BergenWarehouses {
		name, code, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, code = strings.TrimSpace(name), strings.TrimSpace(code)
		if name == "" || code == "" {
			continue
		}
		out[name] = code
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
