package viper

import (
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个空的 Config。
// 未调用 LoadFile 时，Unmarshal/UnmarshalKey 只能读到默认值与环境变量。
func New() *Config {
	return &Config{
		v: spfviper.New(),
	}
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	default:
		// 让 viper 自行推断类型，或在读取时返回清晰的错误信息。
	}

	return c.v.ReadInConfig()
}

// SetDefault 设置 key 的默认值，key 以 "." 分隔层级。
func (c *Config) SetDefault(key string, value any) {
	c.v.SetDefault(key, value)
}

// BindEnv 允许以 prefix_SECTION_KEY 形式的环境变量覆盖已知配置项。
//
// 例如 prefix 为 OBJPACK 时，OBJPACK_BATCH_WORKERS 覆盖 batch.workers。
// 注意：环境变量只在 Unmarshal 时对叶子键生效，UnmarshalKey 读取子树时不会应用。
func (c *Config) BindEnv(prefix string) {
	c.v.SetEnvPrefix(prefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()
}

// ConfigFileUsed 返回已加载的配置文件路径，未加载时为空。
func (c *Config) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst any) error {
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) UnmarshalKey(key string, dst any) error {
	return c.v.UnmarshalKey(key, dst)
}
