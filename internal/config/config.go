package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "SHOPLIST"

// Image backends.
const (
	ImageBackendDisk = "disk"
	ImageBackendS3   = "s3"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	DBPath         string
	LogLevel       string
	LogFormat      string
	StaticDir      string
	MaxUploadBytes int64
	Images         ImagesConfig
	Backup         BackupConfig
}

// BackupConfig controls database snapshots taken by "shoplist backup".
type BackupConfig struct {
	Dir        string
	Keep       int
	Passphrase string
}

// ImagesConfig selects and configures product image storage.
type ImagesConfig struct {
	Backend   string
	Dir       string
	URLPrefix string
	S3        S3Config
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	PublicURL string
	Prefix    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("db_path", "data/shopping.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("static_dir", "")
	v.SetDefault("max_upload_bytes", 5<<20)
	v.SetDefault("image_backend", ImageBackendDisk)
	v.SetDefault("image_dir", "data/images")
	v.SetDefault("image_url_prefix", "/images")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.public_url", "")
	v.SetDefault("s3.prefix", "products")
	v.SetDefault("backup.dir", "data/backups")
	v.SetDefault("backup.keep", 7)
	v.SetDefault("backup.passphrase", "")
}

// Load reads configuration from, in increasing precedence: defaults, the
// config file (configFile, or shoplist.yaml in the working directory if
// present), a .env file, and SHOPLIST_* environment variables.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("shoplist")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Port:           v.GetString("port"),
		DBPath:         v.GetString("db_path"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		StaticDir:      v.GetString("static_dir"),
		MaxUploadBytes: v.GetInt64("max_upload_bytes"),
		Images: ImagesConfig{
			Backend:   strings.ToLower(v.GetString("image_backend")),
			Dir:       v.GetString("image_dir"),
			URLPrefix: v.GetString("image_url_prefix"),
			S3: S3Config{
				Endpoint:  v.GetString("s3.endpoint"),
				Bucket:    v.GetString("s3.bucket"),
				Region:    v.GetString("s3.region"),
				AccessKey: v.GetString("s3.access_key"),
				SecretKey: v.GetString("s3.secret_key"),
				PublicURL: v.GetString("s3.public_url"),
				Prefix:    v.GetString("s3.prefix"),
			},
		},
		Backup: BackupConfig{
			Dir:        v.GetString("backup.dir"),
			Keep:       v.GetInt("backup.keep"),
			Passphrase: v.GetString("backup.passphrase"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must not be negative, got %d", c.Backup.Keep)
	}
	switch c.Images.Backend {
	case ImageBackendDisk:
		if c.Images.Dir == "" {
			return errors.New("image_dir is required for the disk image backend")
		}
		if p := strings.Trim(c.Images.URLPrefix, "/"); p == "" || p == "api" {
			return fmt.Errorf("image_url_prefix %q would shadow other routes", c.Images.URLPrefix)
		}
	case ImageBackendS3:
		if c.Images.S3.Bucket == "" {
			return errors.New("s3.bucket is required for the s3 image backend")
		}
	default:
		return fmt.Errorf("unknown image_backend %q", c.Images.Backend)
	}
	return nil
}
