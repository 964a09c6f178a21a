package application

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	zlog "github.com/lk2023060901/objpack-go/pkg/log"
	"github.com/lk2023060901/objpack-go/pkg/util/hardware"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
	zviper "github.com/lk2023060901/objpack-go/pkg/util/viper"
)

const (
	// DefaultConfigPath 为未显式指定时尝试加载的配置文件，文件不存在时使用默认配置。
	DefaultConfigPath = "./objpack.yaml"
	// ConfigPathEnv 为指定配置文件路径的环境变量。
	ConfigPathEnv = "OBJPACK_CONFIG_FILE_PATH"

	envPrefix = "OBJPACK"
)

// BatchConfig 为批量编码的配置。
type BatchConfig struct {
	// Workers 为并发编码的协程数，默认等于 CPU 核数。
	Workers int `mapstructure:"workers"`
	// Suffix 为输出文件追加的扩展名。
	Suffix string `mapstructure:"suffix"`
}

// DecodeConfig 为解码相关配置。
type DecodeConfig struct {
	// Recover 为 true 时，损坏的字节流以 merr.ErrMalformedStream 返回而非 panic。
	Recover bool `mapstructure:"recover"`
}

// Config 为 objpack 命令行工具的配置。
type Config struct {
	Batch  BatchConfig  `mapstructure:"batch"`
	Decode DecodeConfig `mapstructure:"decode"`
}

// Application 持有加载后的配置与按名称创建的 logger。
type Application struct {
	cfg     *zviper.Config
	conf    Config
	loggers map[string]*zlog.MLogger
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run 加载配置并初始化日志。
//
// 配置文件路径优先级：
//  1. 参数 configPath（命令行 --config）
//  2. 环境变量 OBJPACK_CONFIG_FILE_PATH
//  3. 默认 ./objpack.yaml，不存在时忽略
func (a *Application) Run(configPath string) error {
	cfg, err := a.loadConfig(configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := cfg.Unmarshal(&a.conf); err != nil {
		return errors.Wrap(err, "decode config")
	}
	if a.conf.Batch.Workers <= 0 {
		return merr.WrapErrParameterInvalidMsg("batch.workers must be positive, got %d", a.conf.Batch.Workers)
	}

	return a.initLogging()
}

// Config 返回解析后的配置。
func (a *Application) Config() Config {
	return a.conf
}

// Settings 返回底层配置，未调用 Run 时为 nil。
func (a *Application) Settings() *zviper.Config {
	return a.cfg
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

func (a *Application) loadConfig(configPath string) (*zviper.Config, error) {
	explicit := configPath != ""
	if !explicit {
		if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
			configPath, explicit = envPath, true
		} else {
			configPath = DefaultConfigPath
		}
	}

	cfg := zviper.New()
	cfg.SetDefault("batch.workers", hardware.GetCPUNum())
	cfg.SetDefault("batch.suffix", ".opk")
	cfg.SetDefault("decode.recover", true)
	cfg.BindEnv(envPrefix)

	if _, err := os.Stat(configPath); err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, merr.WrapErrIoFailed(configPath, err)
	}
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, errors.Wrapf(err, "failed to load config file %q", configPath)
	}

	return cfg, nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	return a.initModuleLoggersFromConfig()
}

// initGlobalLoggerFromEnv configures the process-wide logger based on OBJPACK_LOG_* env vars.
//
//   - OBJPACK_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - OBJPACK_LOG_LEVEL: log level (default "info").
//   - OBJPACK_LOG_STDOUT: whether to log to stdout (default false).
//   - OBJPACK_LOG_FILE_DIR: log directory.
//   - OBJPACK_LOG_FILE: log file name (empty means no file).
//   - OBJPACK_LOG_FORMAT: log format ("text" or "json", default "text").
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("OBJPACK_LOG_ENABLE", false)

	cfg := &zlog.Config{
		Level:  getenvDefault("OBJPACK_LOG_LEVEL", "info"),
		Format: getenvDefault("OBJPACK_LOG_FORMAT", "text"),
		Stdout: getenvBool("OBJPACK_LOG_STDOUT", false),
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("OBJPACK_LOG_FILE_DIR", ""),
			Filename: getenvDefault("OBJPACK_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "init global logger from env")
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from YAML config under "logging" key.
//
// Example:
//
//	logging:
//	  batch:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: batch.log
func (a *Application) initModuleLoggersFromConfig() error {
	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldModule(name))}
	}

	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
