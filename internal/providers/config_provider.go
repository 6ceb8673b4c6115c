package providers

import (
	"approachlog/internal/structures"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultMaxPhotosPerPerson = 10

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	// .env is optional; real environment variables still win
	_ = godotenv.Load()

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("webServer.host", "127.0.0.1")
	v.SetDefault("backup.prefix", "police-data")
	v.SetDefault("photos.maxPerPerson", defaultMaxPhotosPerPerson)
	v.SetDefault("logger.mode", 0644)

	v.BindEnv("logger.level", "APPROACHLOG_LOG_LEVEL")
	v.BindEnv("storage.path", "APPROACHLOG_STORAGE_PATH")
	v.BindEnv("backup.enabled", "APPROACHLOG_BACKUP_ENABLED")
	v.BindEnv("backup.dir", "APPROACHLOG_BACKUP_DIR")
	v.BindEnv("backup.interval", "APPROACHLOG_BACKUP_INTERVAL")
	v.BindEnv("backup.objectStore.accessKey", "APPROACHLOG_S3_ACCESS_KEY")
	v.BindEnv("backup.objectStore.secretKey", "APPROACHLOG_S3_SECRET_KEY")
	v.BindEnv("cache.enabled", "APPROACHLOG_CACHE_ENABLED")
	v.BindEnv("cache.size", "APPROACHLOG_CACHE_SIZE")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "ApproachLog"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
