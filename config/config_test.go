package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tradectl/internal/threshold"
)

const sampleINI = `
[log]
path = /var/log/tradectl.log
level = 10

[db]
driver = postgres
username = trader
password = secret
host = db.internal
database = tradectl_prod

[bus]
addr = redis.internal:6379

[symbols]
path = /etc/tradectl/symbols
mask = *.sym.json

[broker]
budget = 5000
commission = 0.5%
reserve = 100

[sell]
cooldown = 1800
margin = 2%

[buy]
trend = 1.5%

[orders]
lookahead = 600
lookbehind = 7200
`

func writeTempINI(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tradectl.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesAllSections(t *testing.T) {
	path := writeTempINI(t, sampleINI)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/var/log/tradectl.log", cfg.Log.Path)
	require.Equal(t, 10, cfg.Log.Level)

	require.Equal(t, "trader", cfg.DB.Username)
	require.Equal(t, "db.internal", cfg.DB.Host)
	require.Equal(t, "tradectl_prod", cfg.DB.Database)

	require.Equal(t, "redis.internal:6379", cfg.Bus.Addr)

	require.Equal(t, "/etc/tradectl/symbols", cfg.Symbols.Path)
	require.Equal(t, "*.sym.json", cfg.Symbols.Mask)

	require.Equal(t, 5000.0, cfg.Broker.Budget)
	require.Equal(t, threshold.Value{Kind: threshold.Percent, Number: 0.005}, cfg.Broker.Commission)
	require.Equal(t, 100.0, cfg.Broker.Reserve)

	require.Equal(t, 1800, cfg.Sell.CooldownSeconds)
	require.Equal(t, threshold.Value{Kind: threshold.Percent, Number: 0.02}, cfg.Sell.Margin)

	require.Equal(t, threshold.Value{Kind: threshold.Percent, Number: 0.015}, cfg.Buy.Trend)

	require.Equal(t, 600, cfg.Orders.LookaheadSeconds)
	require.Equal(t, 7200, cfg.Orders.LookbehindSeconds)
}

func TestLoadAppliesDefaultsForMissingSections(t *testing.T) {
	path := writeTempINI(t, "[db]\nhost = localhost\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "tradectl.log", cfg.Log.Path)
	require.Equal(t, 20, cfg.Log.Level)
	require.Equal(t, 10000.0, cfg.Broker.Budget)
	require.Equal(t, threshold.Fixed, cfg.Broker.Commission.Kind)
	require.Equal(t, 0.0, cfg.Broker.Commission.Number)
	require.Equal(t, 900, cfg.Orders.LookaheadSeconds)
	require.Equal(t, 3600, cfg.Orders.LookbehindSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.ini"))
	require.Error(t, err)
}
