package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the name of the JSON config file looked up in the config dir.
const FileName = "joypaint.cfg.json"

// SerialConfig holds joystick serial link settings.
type SerialConfig struct {
	BaudRate       int           `json:"baudRate" mapstructure:"baudRate"`
	ReadTimeout    time.Duration `json:"readTimeout" mapstructure:"readTimeout"`
	RetryInterval  time.Duration `json:"retryInterval" mapstructure:"retryInterval"`
	CloseTimeout   time.Duration `json:"closeTimeout" mapstructure:"closeTimeout"`
	PreferredPorts []string      `json:"preferredPorts" mapstructure:"preferredPorts"`
}

// JoystickConfig holds the analog stick calibration.
type JoystickConfig struct {
	Mode         string  `json:"mode" mapstructure:"mode"`
	RawMax       int     `json:"rawMax" mapstructure:"rawMax"`
	CenterX      int     `json:"centerX" mapstructure:"centerX"`
	CenterY      int     `json:"centerY" mapstructure:"centerY"`
	DeadZone     int     `json:"deadZone" mapstructure:"deadZone"`
	SpeedDivider float64 `json:"speedDivider" mapstructure:"speedDivider"`
	MaxSpeed     float64 `json:"maxSpeed" mapstructure:"maxSpeed"`
}

// CanvasConfig holds canvas geometry and rendering settings.
type CanvasConfig struct {
	Width            float64       `json:"width" mapstructure:"width"`
	Height           float64       `json:"height" mapstructure:"height"`
	OutlineWidth     float64       `json:"outlineWidth" mapstructure:"outlineWidth"`
	CoalesceInterval time.Duration `json:"coalesceInterval" mapstructure:"coalesceInterval"`
}

// SQLiteConfig holds SQLite storage settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// PostgresConfig holds Postgres storage settings.
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the action log store.
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// RecorderConfig holds action recording settings.
type RecorderConfig struct {
	CursorThrottle time.Duration `json:"cursorThrottle" mapstructure:"cursorThrottle"`
}

// GameConfig holds timed-round settings.
type GameConfig struct {
	RoundDuration time.Duration `json:"roundDuration" mapstructure:"roundDuration"`
	IdleGap       time.Duration `json:"idleGap" mapstructure:"idleGap"`
}

// InfluxConfig holds action telemetry settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	URL        string `json:"url" mapstructure:"url"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// FeedConfig holds live state feed settings.
type FeedConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// UploadConfig holds gallery upload settings.
type UploadConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	APIKey string `json:"apiKey" mapstructure:"apiKey"`
}

// GraylogConfig holds GELF log shipping settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("statusDir", "./")

	viper.SetDefault("serial.baudRate", 115200)
	viper.SetDefault("serial.readTimeout", "500ms")
	viper.SetDefault("serial.retryInterval", "2s")
	viper.SetDefault("serial.closeTimeout", "1s")
	viper.SetDefault("serial.preferredPorts", []string{
		"COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9", "COM10",
		"/dev/ttyACM0", "/dev/ttyUSB0",
	})

	viper.SetDefault("joystick.mode", "absolute")
	viper.SetDefault("joystick.rawMax", 4095)
	viper.SetDefault("joystick.centerX", 2048)
	viper.SetDefault("joystick.centerY", 2048)
	viper.SetDefault("joystick.deadZone", 100)
	viper.SetDefault("joystick.speedDivider", 100.0)
	viper.SetDefault("joystick.maxSpeed", 10.0)

	viper.SetDefault("canvas.width", 600.0)
	viper.SetDefault("canvas.height", 600.0)
	viper.SetDefault("canvas.outlineWidth", 2.0)
	viper.SetDefault("canvas.coalesceInterval", "16ms")

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.sqlite.path", "./joypaint.db")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "joypaint")

	viper.SetDefault("recorder.cursorThrottle", "100ms")

	viper.SetDefault("game.roundDuration", "60s")
	viper.SetDefault("game.idleGap", "2s")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "joypaint")
	viper.SetDefault("influx.bucket", "actions")
	viper.SetDefault("influx.backupPath", "")

	viper.SetDefault("feed.enabled", false)
	viper.SetDefault("feed.url", "ws://localhost:5000/api/v1/feed")
	viper.SetDefault("feed.secret", "")

	viper.SetDefault("upload.url", "http://localhost:5000")
	viper.SetDefault("upload.apiKey", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// GetSerialConfig returns the serial link configuration.
func GetSerialConfig() SerialConfig {
	return SerialConfig{
		BaudRate:       viper.GetInt("serial.baudRate"),
		ReadTimeout:    viper.GetDuration("serial.readTimeout"),
		RetryInterval:  viper.GetDuration("serial.retryInterval"),
		CloseTimeout:   viper.GetDuration("serial.closeTimeout"),
		PreferredPorts: viper.GetStringSlice("serial.preferredPorts"),
	}
}

// GetJoystickConfig returns the stick calibration.
func GetJoystickConfig() JoystickConfig {
	return JoystickConfig{
		Mode:         viper.GetString("joystick.mode"),
		RawMax:       viper.GetInt("joystick.rawMax"),
		CenterX:      viper.GetInt("joystick.centerX"),
		CenterY:      viper.GetInt("joystick.centerY"),
		DeadZone:     viper.GetInt("joystick.deadZone"),
		SpeedDivider: viper.GetFloat64("joystick.speedDivider"),
		MaxSpeed:     viper.GetFloat64("joystick.maxSpeed"),
	}
}

// GetCanvasConfig returns the canvas settings.
func GetCanvasConfig() CanvasConfig {
	return CanvasConfig{
		Width:            viper.GetFloat64("canvas.width"),
		Height:           viper.GetFloat64("canvas.height"),
		OutlineWidth:     viper.GetFloat64("canvas.outlineWidth"),
		CoalesceInterval: viper.GetDuration("canvas.coalesceInterval"),
	}
}

// GetStorageConfig returns the store selection.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
		},
	}
}

// GetRecorderConfig returns the recorder settings.
func GetRecorderConfig() RecorderConfig {
	return RecorderConfig{
		CursorThrottle: viper.GetDuration("recorder.cursorThrottle"),
	}
}

// GetGameConfig returns the timed-round settings.
func GetGameConfig() GameConfig {
	return GameConfig{
		RoundDuration: viper.GetDuration("game.roundDuration"),
		IdleGap:       viper.GetDuration("game.idleGap"),
	}
}

// GetInfluxConfig returns the telemetry settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		URL:        viper.GetString("influx.url"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetFeedConfig returns the live feed settings.
func GetFeedConfig() FeedConfig {
	return FeedConfig{
		Enabled: viper.GetBool("feed.enabled"),
		URL:     viper.GetString("feed.url"),
		Secret:  viper.GetString("feed.secret"),
	}
}

// GetUploadConfig returns the gallery upload settings.
func GetUploadConfig() UploadConfig {
	return UploadConfig{
		URL:    viper.GetString("upload.url"),
		APIKey: viper.GetString("upload.apiKey"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
