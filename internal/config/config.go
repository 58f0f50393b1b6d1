package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/fundchain/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 合约配置名称
const (
	ContractUserRegistry    = "user_registry"
	ContractCampaignFactory = "campaign_factory"
)

// DefaultAdminAddress 平台管理员地址（审批项目的唯一来源）
const DefaultAdminAddress = "0x1b4709064B3050d11Ba2540AbA8B3B4412159697"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Task     TaskConfig     `mapstructure:"task"`
	Session  SessionConfig  `mapstructure:"session"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 会话与登录随机数存储
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ChainConfig 单链配置
type ChainConfig struct {
	ChainType      string                    `mapstructure:"chain_type"`      // 链类型 (ethereum, polygon, etc.)
	ChainId        int64                     `mapstructure:"chain_id"`        // 链ID
	RpcUrl         string                    `mapstructure:"rpc_url"`         // RPC节点URL
	PrivateKey     string                    `mapstructure:"private_key"`     // 运营钱包私钥
	AdminAddress   string                    `mapstructure:"admin_address"`   // 平台管理员地址
	BroadcastFile  string                    `mapstructure:"broadcast_file"`  // Foundry 部署输出 run-latest.json
	ConfirmTimeout time.Duration             `mapstructure:"confirm_timeout"` // 等待交易确认的超时
	Contracts      map[string]ContractConfig `mapstructure:"contracts"`       // 该链上的合约配置
}

// ContractConfig 单个合约配置
type ContractConfig struct {
	Address  string `mapstructure:"address"`   // 合约地址
	ABIPath  string `mapstructure:"abi_path"`  // ABI文件路径，为空时使用内置ABI
	Enabled  bool   `mapstructure:"enabled"`   // 是否启用此合约
	BlockNum int64  `mapstructure:"block_num"` // 合约部署区块号
}

// MonitorConfig 事件监控配置
type MonitorConfig struct {
	Interval  int   `mapstructure:"interval"`   // 轮询间隔（秒）
	BatchSize int64 `mapstructure:"batch_size"` // 每批区块数
	PoolSize  int   `mapstructure:"pool_size"`  // 按地址并发读取的协程数
}

type TaskConfig struct {
	Interval         int `mapstructure:"interval"`          // 全量刷新间隔（秒）
	SnapshotInterval int `mapstructure:"snapshot_interval"` // 状态快照间隔（秒）
}

type SessionConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	NonceTTL time.Duration `mapstructure:"nonce_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Load 加载配置，失败时直接退出
func Load() *Config {
	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fundchain")

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	cfg, err := load(v)
	if err != nil {
		logger.Fatal("Unable to load config: %v", err)
	}
	return cfg
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// 自动读取环境变量，例如 FUNDCHAIN_CHAIN_PRIVATE_KEY
	v.SetEnvPrefix("FUNDCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.Chain.BroadcastFile != "" {
		if err := ApplyBroadcast(&config.Chain, config.Chain.BroadcastFile); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "fundchain")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("chain.chain_type", "ethereum")
	v.SetDefault("chain.chain_id", 11155111)
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.private_key", "")
	v.SetDefault("chain.admin_address", DefaultAdminAddress)
	v.SetDefault("chain.broadcast_file", "")
	v.SetDefault("chain.confirm_timeout", 3*time.Minute)
	v.SetDefault("monitor.interval", 15)
	v.SetDefault("monitor.batch_size", 500)
	v.SetDefault("monitor.pool_size", 8)
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.snapshot_interval", 300)
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.nonce_ttl", 5*time.Minute)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Validate 检查必填配置
func (c *Config) Validate() error {
	var errs []error

	if c.Chain.RpcUrl == "" {
		errs = append(errs, errors.New("chain.rpc_url is required"))
	}
	if c.Chain.ChainId <= 0 {
		errs = append(errs, errors.New("chain.chain_id must be positive"))
	}
	if !common.IsHexAddress(c.Chain.AdminAddress) {
		errs = append(errs, fmt.Errorf("chain.admin_address %q is not a valid address", c.Chain.AdminAddress))
	}
	for _, name := range []string{ContractUserRegistry, ContractCampaignFactory} {
		contractCfg, ok := c.Chain.Contracts[name]
		if !ok || !contractCfg.Enabled {
			errs = append(errs, fmt.Errorf("chain.contracts.%s must be configured and enabled", name))
			continue
		}
		if !common.IsHexAddress(contractCfg.Address) {
			errs = append(errs, fmt.Errorf("chain.contracts.%s.address %q is not a valid address", name, contractCfg.Address))
		}
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}

	return errors.Join(errs...)
}

// Admin 返回配置的管理员地址
func (c ChainConfig) Admin() common.Address {
	return common.HexToAddress(c.AdminAddress)
}
