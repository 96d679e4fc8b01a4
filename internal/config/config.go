package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"payfastBack/internal/payfast"
	"payfastBack/internal/pricing"
)

const (
	defaultPort             = "8787"
	defaultSMTPHost         = "smtp.gmail.com"
	defaultSMTPPort         = 465
	defaultVATNote          = "All prices VAT-inclusive."
	defaultCurrencyPrefix   = "R"
	defaultInvoiceDir       = "invoices"
	defaultS3Prefix         = "invoices"
	defaultShutdownTimeout  = 15 * time.Second
	defaultPostbackTimeout  = 10 * time.Second
	defaultDuplicateGuardTT = 5 * time.Minute
)

// Gateway holds merchant credentials and the URLs handed to the gateway.
type Gateway struct {
	Mode        string
	MerchantID  string
	MerchantKey string
	Passphrase  string
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
	Endpoints   payfast.Endpoints
}

// SMTP holds mail transport settings and addresses.
type SMTP struct {
	Host       string
	Port       int
	Secure     bool
	User       string
	Password   string
	FromEmail  string
	AdminEmail string
}

// Company holds the display fields printed on invoices.
type Company struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Tel     string `yaml:"tel"`
	Email   string `yaml:"email"`
	VATNote string `yaml:"vat_note"`
}

// Storage selects where invoices are kept.
type Storage struct {
	Backend      string
	InvoiceDir   string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3Prefix     string
	S3PublicBase string
}

// Redis enables the cross-instance duplicate delivery guard.
type Redis struct {
	Addr     string
	Password string
	GuardTTL time.Duration
}

// Database enables the ITN audit log.
type Database struct {
	Driver string
	URL    string
}

// Config is built once at start and passed by value into every component.
type Config struct {
	Port            string
	AllowOrigin     string
	Timezone        string
	CurrencyPrefix  string
	OperatorSecret  string
	ShutdownTimeout time.Duration
	PostbackTimeout time.Duration

	Gateway  Gateway
	SMTP     SMTP
	Company  Company
	Storage  Storage
	Redis    Redis
	Database Database

	Prices *pricing.Table
}

// fileConfig is the optional YAML file pointed to by CONFIG_PATH.
type fileConfig struct {
	Prices  map[string]string `yaml:"prices"`
	Company Company           `yaml:"company"`
}

// Load reads configuration from environment variables and applies defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:            envOr("PORT", defaultPort),
		AllowOrigin:     envOr("ALLOW_ORIGIN", "*"),
		Timezone:        os.Getenv("TIMEZONE"),
		CurrencyPrefix:  envOr("CURRENCY_PREFIX", defaultCurrencyPrefix),
		OperatorSecret:  os.Getenv("OPERATOR_JWT_SECRET"),
		ShutdownTimeout: defaultShutdownTimeout,
		PostbackTimeout: defaultPostbackTimeout,
		Prices:          pricing.Default(),
	}

	mode := strings.ToLower(envOr("ENV", payfast.ModeLive))
	if mode != payfast.ModeLive && mode != payfast.ModeSandbox {
		return Config{}, fmt.Errorf("ENV must be %q or %q, got %q", payfast.ModeLive, payfast.ModeSandbox, mode)
	}
	cfg.Gateway = Gateway{
		Mode:        mode,
		MerchantID:  os.Getenv("MERCHANT_ID"),
		MerchantKey: os.Getenv("MERCHANT_KEY"),
		Passphrase:  os.Getenv("PASSPHRASE"),
		ReturnURL:   envOr("RETURN_URL", "https://example.com/thanks"),
		CancelURL:   envOr("CANCEL_URL", "https://example.com/cancelled"),
		NotifyURL:   envOr("NOTIFY_URL", "https://example.com/payfast/itn"),
		Endpoints:   payfast.EndpointsFor(mode),
	}

	cfg.SMTP = SMTP{
		Host:       envOr("SMTP_HOST", defaultSMTPHost),
		Port:       defaultSMTPPort,
		Secure:     true,
		User:       os.Getenv("SMTP_USER"),
		Password:   os.Getenv("SMTP_PASS"),
		FromEmail:  os.Getenv("FROM_EMAIL"),
		AdminEmail: os.Getenv("ADMIN_EMAIL"),
	}
	if v, err := readIntEnv("SMTP_PORT"); err != nil {
		return Config{}, fmt.Errorf("parse SMTP_PORT: %w", err)
	} else if v != nil {
		cfg.SMTP.Port = *v
	}
	if v := os.Getenv("SMTP_SECURE"); v != "" {
		cfg.SMTP.Secure = v == "true"
	}
	if cfg.SMTP.FromEmail == "" {
		cfg.SMTP.FromEmail = cfg.SMTP.User
	}
	if cfg.SMTP.AdminEmail == "" {
		cfg.SMTP.AdminEmail = cfg.SMTP.FromEmail
	}

	cfg.Company = Company{
		Name:    envOr("COMPANY_NAME", "Your Company"),
		Address: os.Getenv("COMPANY_ADDR"),
		Tel:     os.Getenv("COMPANY_TEL"),
		Email:   envOr("COMPANY_EMAIL", cfg.SMTP.FromEmail),
		VATNote: envOr("COMPANY_VAT_NOTE", defaultVATNote),
	}

	cfg.Storage = Storage{
		Backend:      strings.ToLower(envOr("STORAGE_BACKEND", "file")),
		InvoiceDir:   envOr("INVOICE_DIR", defaultInvoiceDir),
		S3Bucket:     os.Getenv("S3_BUCKET"),
		S3Region:     envOr("S3_REGION", "us-east-1"),
		S3Endpoint:   os.Getenv("S3_ENDPOINT"),
		S3AccessKey:  os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:  os.Getenv("S3_SECRET_KEY"),
		S3Prefix:     envOr("S3_PREFIX", defaultS3Prefix),
		S3PublicBase: os.Getenv("S3_PUBLIC_BASE_URL"),
	}
	switch cfg.Storage.Backend {
	case "file":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return Config{}, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be file or s3, got %q", cfg.Storage.Backend)
	}

	cfg.Redis = Redis{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		GuardTTL: defaultDuplicateGuardTT,
	}
	if v, err := readIntEnv("DUPLICATE_GUARD_TTL_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse DUPLICATE_GUARD_TTL_SECONDS: %w", err)
	} else if v != nil {
		cfg.Redis.GuardTTL = time.Duration(*v) * time.Second
	}

	cfg.Database = Database{
		Driver: os.Getenv("DATABASE_DRIVER"),
		URL:    os.Getenv("DATABASE_URL"),
	}
	if cfg.Database.URL != "" {
		switch cfg.Database.Driver {
		case "mysql", "pgx":
		case "":
			cfg.Database.Driver = "mysql"
		default:
			return Config{}, fmt.Errorf("DATABASE_DRIVER must be mysql or pgx, got %q", cfg.Database.Driver)
		}
	}

	if v, err := readIntEnv("SHUTDOWN_TIMEOUT_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse SHUTDOWN_TIMEOUT_SECONDS: %w", err)
	} else if v != nil {
		cfg.ShutdownTimeout = time.Duration(*v) * time.Second
	}
	if v, err := readIntEnv("POSTBACK_TIMEOUT_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse POSTBACK_TIMEOUT_SECONDS: %w", err)
	} else if v != nil {
		cfg.PostbackTimeout = time.Duration(*v) * time.Second
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// applyFile overlays the YAML file: a non-empty price list replaces the
// built-in table and non-empty company fields replace env values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("unmarshal config file: %w", err)
	}
	if len(fc.Prices) > 0 {
		tbl, err := pricing.FromStrings(fc.Prices)
		if err != nil {
			return err
		}
		c.Prices = tbl
	}
	if fc.Company.Name != "" {
		c.Company.Name = fc.Company.Name
	}
	if fc.Company.Address != "" {
		c.Company.Address = fc.Company.Address
	}
	if fc.Company.Tel != "" {
		c.Company.Tel = fc.Company.Tel
	}
	if fc.Company.Email != "" {
		c.Company.Email = fc.Company.Email
	}
	if fc.Company.VATNote != "" {
		c.Company.VATNote = fc.Company.VATNote
	}
	return nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func readIntEnv(name string) (*int, error) {
	val := os.Getenv(name)
	if val == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
