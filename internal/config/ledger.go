package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LedgerConfig holds bookkeeping settings that can change without a restart.
type LedgerConfig struct {
	PayableAccountCode    string
	ReceivableAccountCode string
	CashAccountCode       string
	BankAccountCode       string
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		PayableAccountCode:    "2000",
		ReceivableAccountCode: "1200",
		CashAccountCode:       "1000",
		BankAccountCode:       "1100",
	}
}

type LedgerConfigHolder struct {
	current atomic.Value // holds LedgerConfig
}

// NewStaticLedgerConfigHolder returns a holder that never reloads.
func NewStaticLedgerConfigHolder(cfg LedgerConfig) *LedgerConfigHolder {
	holder := &LedgerConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewLedgerConfigHolder() (*LedgerConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("ledger")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/goldbook")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GOLDBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLedgerConfig()
	v.SetDefault("ledger.payable_account_code", defaults.PayableAccountCode)
	v.SetDefault("ledger.receivable_account_code", defaults.ReceivableAccountCode)
	v.SetDefault("ledger.cash_account_code", defaults.CashAccountCode)
	v.SetDefault("ledger.bank_account_code", defaults.BankAccountCode)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg := readLedgerConfig(v)
	if err := validateLedgerConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticLedgerConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := readLedgerConfig(v)
		if err := validateLedgerConfig(updated); err != nil {
			log.Printf("[ledger-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[ledger-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *LedgerConfigHolder) Get() LedgerConfig {
	if h == nil {
		return DefaultLedgerConfig()
	}
	cfg, ok := h.current.Load().(LedgerConfig)
	if !ok {
		return DefaultLedgerConfig()
	}
	return cfg
}

func readLedgerConfig(v *viper.Viper) LedgerConfig {
	return LedgerConfig{
		PayableAccountCode:    strings.TrimSpace(v.GetString("ledger.payable_account_code")),
		ReceivableAccountCode: strings.TrimSpace(v.GetString("ledger.receivable_account_code")),
		CashAccountCode:       strings.TrimSpace(v.GetString("ledger.cash_account_code")),
		BankAccountCode:       strings.TrimSpace(v.GetString("ledger.bank_account_code")),
	}
}

func validateLedgerConfig(cfg LedgerConfig) error {
	if cfg.PayableAccountCode == "" {
		return errors.New("ledger.payable_account_code cannot be empty")
	}
	if cfg.ReceivableAccountCode == "" {
		return errors.New("ledger.receivable_account_code cannot be empty")
	}
	return nil
}
