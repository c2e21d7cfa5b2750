package settings

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Name           string        `mapstructure:"name"`
	Mode           string        `mapstructure:"mode"`
	Version        string        `mapstructure:"version"`
	Bind           string        `mapstructure:"bind"`
	Port           int           `mapstructure:"port"`
	MaxClients     int           `mapstructure:"maxClients"`     // 最大连接数，0 表示不限制
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`    // 连接空闲超时，0 表示不超时
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`   // 单次回包写超时
	*ProtoConfig   `mapstructure:"proto"`
	*BackendConfig `mapstructure:"backend"`
	*LogConfig     `mapstructure:"log"`
	*MetricsConfig `mapstructure:"metrics"`
}

// ProtoConfig RESP 解码限制
type ProtoConfig struct {
	MaxBulkLen  int `mapstructure:"maxBulkLen"`  // 单个 bulk string 最大字节数
	MaxArrayLen int `mapstructure:"maxArrayLen"` // 单个数组最大元素个数
	MaxLineLen  int `mapstructure:"maxLineLen"`  // 单行（类型字节到 CRLF）最大长度
	MaxDepth    int `mapstructure:"maxDepth"`    // 数组最大嵌套深度
}

// BackendConfig 内存存储配置
type BackendConfig struct {
	IndexType     IndexerType   `mapstructure:"indexType"`     // 索引类型
	BTreeDegree   int           `mapstructure:"btreeDegree"`   // btree 的阶
	Shards        int           `mapstructure:"shards"`        // 分片数量
	SweepInterval time.Duration `mapstructure:"sweepInterval"` // 过期 key 主动清理间隔，0 表示只做惰性删除
}

type IndexerType = int8

const (
	BTree    IndexerType = iota + 1 // BTree 索引
	ART                             // ART Adpative Radix Tree 自适应基数树索引
	Skiplist                        // 跳表索引
)

// LogConfig  stores config for logger
type LogConfig struct {
	Path       string `mapstructure:"path"`
	Name       string `mapstructure:"name"`
	Ext        string `mapstructure:"ext"`
	TimeFormat string `mapstructure:"timeFormat"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"maxSize"`    // 单个日志文件大小，MB
	MaxAge     int    `mapstructure:"maxAge"`     // 保留天数
	MaxBackups int    `mapstructure:"maxBackups"` // 保留文件个数
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"` // 同时输出到标准输出
}

// MetricsConfig prometheus 指标
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
}

var Conf = Default()

var (
	hookMu    sync.Mutex
	hooks     []func(*AppConfig)
	watchOnce sync.Once
)

// Default 返回不依赖配置文件的默认配置
func Default() *AppConfig {
	v := viper.New()
	setDefaults(v)
	conf := new(AppConfig)
	if err := v.Unmarshal(conf); err != nil {
		panic(err)
	}
	return conf
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "hades")
	v.SetDefault("mode", "release")
	v.SetDefault("version", "v0.1.0")
	v.SetDefault("bind", "127.0.0.1")
	v.SetDefault("port", 6379)
	v.SetDefault("maxClients", 10000)
	v.SetDefault("idleTimeout", "0s")
	v.SetDefault("writeTimeout", "30s")

	v.SetDefault("proto.maxBulkLen", 512*1024*1024)
	v.SetDefault("proto.maxArrayLen", 1024*1024)
	v.SetDefault("proto.maxLineLen", 64*1024)
	v.SetDefault("proto.maxDepth", 32)

	v.SetDefault("backend.indexType", BTree)
	v.SetDefault("backend.btreeDegree", 32)
	v.SetDefault("backend.shards", 16)
	v.SetDefault("backend.sweepInterval", "100ms")

	v.SetDefault("log.path", "logs")
	v.SetDefault("log.name", "hades")
	v.SetDefault("log.ext", "log")
	v.SetDefault("log.timeFormat", "2006-01-02")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxSize", 100)
	v.SetDefault("log.maxAge", 30)
	v.SetDefault("log.maxBackups", 10)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.stdout", true)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.addr", "127.0.0.1:9121")

	v.SetEnvPrefix("HADES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load 读取配置文件，不修改全局配置
func Load(filepath string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filepath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", filepath, err)
	}
	conf := new(AppConfig)
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", filepath, err)
	}
	return conf, nil
}

// Init 读取配置文件到 Conf 并监听文件变化
func Init(filepath string) (err error) {
	setDefaults(viper.GetViper())
	viper.SetConfigFile(filepath)
	err = viper.ReadInConfig() // 读取配置信息
	if err != nil {            // 读取配置信息失败
		fmt.Printf("Fatal viper.ReadInConfig() failed, err: %s \n", err)
		return
	}

	// 把读取到的配置信息反序列化到Conf变量中
	conf := new(AppConfig)
	if err = viper.Unmarshal(conf); err != nil {
		fmt.Printf("viper.Unmarshal failed, err:%v\n", err)
		return
	}
	Conf = conf

	// 监控配置文件变化
	watchOnce.Do(func() {
		viper.OnConfigChange(func(e fsnotify.Event) {
			next := new(AppConfig)
			if err := viper.Unmarshal(next); err != nil {
				fmt.Printf("viper.Unmarshal failed, err:%v\n", err)
				return
			}
			notify(next)
		})
		viper.WatchConfig()
	})
	return
}

// OnChange 注册配置热更新回调，只有可以在运行期生效的字段才需要关心
func OnChange(fn func(*AppConfig)) {
	hookMu.Lock()
	hooks = append(hooks, fn)
	hookMu.Unlock()
}

func notify(conf *AppConfig) {
	hookMu.Lock()
	fns := make([]func(*AppConfig), len(hooks))
	copy(fns, hooks)
	hookMu.Unlock()
	for _, fn := range fns {
		fn(conf)
	}
}

// Addr 监听地址
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
