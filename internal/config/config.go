package config

import "github.com/BurntSushi/toml"

func ReadFile(filepath string) (*Config, error) {
	cfg := defaultConfig()

	if _, err := toml.DecodeFile(filepath, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type Config struct {
	DB      *DB      `toml:"db"`
	RPC     *RPC     `toml:"rpc"`
	Indexer *Indexer `toml:"indexer"`
	Server  *Server  `toml:"server"`
	Logger  *Logger  `toml:"logger"`
}

func defaultConfig() *Config {
	return &Config{
		DB:      defaultDB(),
		RPC:     defaultRPC(),
		Indexer: defaultIndexer(),
		Server:  defaultServer(),
		Logger:  defaultLogger(),
	}
}

type DB struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	DBName     string `toml:"db_name"`
	LogQueries bool   `toml:"log_queries"`
}

func defaultDB() *DB {
	return &DB{
		Host:   "localhost",
		Port:   5432,
		DBName: "qx",
	}
}

type RPC struct {
	URL                  string `toml:"url"`
	RequestTimeoutMillis uint64 `toml:"request_timeout_millis"`
}

func defaultRPC() *RPC {
	return &RPC{
		URL:                  "https://rpc.qubic.org",
		RequestTimeoutMillis: 10_000,
	}
}

type Indexer struct {
	ContractIndex        uint32 `toml:"contract_index"`
	PollIntervalMillis   uint64 `toml:"poll_interval_millis"`
	MaxFetchAttempts     int    `toml:"max_fetch_attempts"`
	RateLimitDelayMillis uint64 `toml:"rate_limit_delay_millis"`
	RestartDelaySeconds  uint64 `toml:"restart_delay_seconds"`
}

func defaultIndexer() *Indexer {
	return &Indexer{
		ContractIndex:        12, // QX
		PollIntervalMillis:   500,
		MaxFetchAttempts:     5,
		RateLimitDelayMillis: 1000,
		RestartDelaySeconds:  5,
	}
}

type Server struct {
	Addr string `toml:"addr"`
}

func defaultServer() *Server {
	return &Server{Addr: ":8080"}
}

type Logger struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	Console    bool   `toml:"console"`
}

func defaultLogger() *Logger {
	return &Logger{
		Level:      "info",
		MaxSizeMB:  50,
		MaxBackups: 3,
		Console:    true,
	}
}
