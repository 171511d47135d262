// Package config loads tradectl's INI configuration file into a typed
// Config struct with defaulted accessors for every key.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"tradectl/internal/threshold"
)

// Config holds every setting a tradectl worker binary needs.
type Config struct {
	Log     LogConfig
	DB      DBConfig
	Bus     BusConfig
	API     APIConfig
	Symbols SymbolsConfig
	Broker  BrokerConfig
	Sell    SellConfig
	Buy     BuyConfig
	Orders  OrdersConfig
}

type LogConfig struct {
	Path  string
	Level int // 0/10/20/30/40/50
}

type DBConfig struct {
	Driver   string
	Username string
	Password string
	Host     string
	Database string
}

// BusConfig configures the Redis connection backing the message bus.
type BusConfig struct {
	Addr     string
	Password string
	DB       int
}

// APIConfig describes the external push feed the ingest worker
// connects to. A websocket client cannot dial without a URL, so it's
// carried here alongside the auth token.
type APIConfig struct {
	URL     string
	Token   string
	Buffer  int
	Respawn int // seconds
}

type SymbolsConfig struct {
	Path string
	Mask string
}

type BrokerConfig struct {
	Budget     float64
	Commission threshold.Value
	Reserve    float64
}

type SellConfig struct {
	CooldownSeconds int
	Margin          threshold.Value
}

type BuyConfig struct {
	Trend threshold.Value
}

type OrdersConfig struct {
	LookaheadSeconds  int
	LookbehindSeconds int
}

// Load reads an INI file at path, applying a default for every key
// that's missing or blank.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
	}

	logSec := f.Section("log")
	db := f.Section("db")
	bus := f.Section("bus")
	api := f.Section("api")
	symbols := f.Section("symbols")
	broker := f.Section("broker")
	sell := f.Section("sell")
	buy := f.Section("buy")
	orders := f.Section("orders")

	cfg := &Config{
		Log: LogConfig{
			Path:  logSec.Key("path").MustString("tradectl.log"),
			Level: logSec.Key("level").MustInt(20),
		},
		DB: DBConfig{
			Driver:   db.Key("driver").MustString("postgres"),
			Username: db.Key("username").MustString(""),
			Password: db.Key("password").MustString(""),
			Host:     db.Key("host").MustString("localhost"),
			Database: db.Key("database").MustString("tradectl"),
		},
		Bus: BusConfig{
			Addr:     bus.Key("addr").MustString("localhost:6379"),
			Password: bus.Key("password").MustString(""),
			DB:       bus.Key("db").MustInt(0),
		},
		API: APIConfig{
			URL:     api.Key("url").MustString("wss://wss-trading.stockbit.com/ws"),
			Token:   api.Key("token").MustString(""),
			Buffer:  api.Key("buffer").MustInt(100),
			Respawn: api.Key("respawn").MustInt(5),
		},
		Symbols: SymbolsConfig{
			Path: symbols.Key("path").MustString("./symbols"),
			Mask: symbols.Key("mask").MustString("*.json"),
		},
		Broker: BrokerConfig{
			Budget:     broker.Key("budget").MustFloat64(10000.0),
			Commission: threshold.Parse(broker.Key("commission").MustString("0")),
			Reserve:    broker.Key("reserve").MustFloat64(0.0),
		},
		Sell: SellConfig{
			CooldownSeconds: sell.Key("cooldown").MustInt(3600),
			Margin:          threshold.Parse(sell.Key("margin").MustString("0")),
		},
		Buy: BuyConfig{
			Trend: threshold.Parse(buy.Key("trend").MustString("0")),
		},
		Orders: OrdersConfig{
			LookaheadSeconds:  orders.Key("lookahead").MustInt(900),
			LookbehindSeconds: orders.Key("lookbehind").MustInt(3600),
		},
	}

	return cfg, nil
}
