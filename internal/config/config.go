package config

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/matrixise/geb-ledger/internal/blockchain"
	"github.com/matrixise/geb-ledger/internal/scheduler"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	DefaultBatchSize = 500
	DefaultHTTPPort  = 8080
)

// Config represents the application configuration
type Config struct {
	RPCUrl         string           `mapstructure:"rpc_url" validate:"omitempty,url"`
	RPCUrls        []string         `mapstructure:"rpc_urls" validate:"required,min=1,dive,url"`
	ChainID        uint64           `mapstructure:"chain_id"`
	StartBlock     uint64           `mapstructure:"start_block"`
	BatchSize      uint64           `mapstructure:"batch_size" validate:"omitempty,min=1,max=100000"`
	Confirmations  uint64           `mapstructure:"confirmations" validate:"max=1000"`
	Contracts      []ContractConfig `mapstructure:"contracts" validate:"required,min=1,dive"`
	Store          string           `mapstructure:"store" validate:"omitempty,oneof=postgres memory"`
	Interval       string           `mapstructure:"interval" validate:"omitempty,schedule"`
	Timezone       string           `mapstructure:"timezone" validate:"omitempty,timezone"`
	RunImmediately *bool            `mapstructure:"run_immediately"`
	LogLevel       string           `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	HTTPPort       int              `mapstructure:"http_port" validate:"omitempty,min=1024,max=65535"`
}

// ContractConfig is one watched contract.
type ContractConfig struct {
	Label   string `mapstructure:"label" validate:"required,min=1,max=100"`
	Kind    string `mapstructure:"kind" validate:"required,contract_kind"`
	Address string `mapstructure:"address" validate:"required,eth_addr"`
}

// Normalize folds the single rpc_url into rpc_urls.
func (c *Config) Normalize() error {
	if len(c.RPCUrls) == 0 {
		if c.RPCUrl == "" {
			return errors.New("either rpc_url or rpc_urls must be set")
		}
		c.RPCUrls = []string{c.RPCUrl}
	}
	c.RPCUrl = ""
	return nil
}

// GetTimezone returns the configured location, UTC when empty or unknown.
func (c *Config) GetTimezone() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShouldRunImmediately defaults to true.
func (c *Config) ShouldRunImmediately() bool {
	if c.RunImmediately == nil {
		return true
	}
	return *c.RunImmediately
}

// IsCronSchedule reports whether Interval is a cron expression.
func (c *Config) IsCronSchedule() bool {
	return scheduler.IsCronExpression(c.Interval)
}

// UsesPostgres reports whether the ledger is persisted in PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return c.Store == "" || c.Store == StorePostgres
}

// WatchedContracts converts the contract entries for the log decoder.
func (c *Config) WatchedContracts() ([]blockchain.Contract, error) {
	contracts := make([]blockchain.Contract, 0, len(c.Contracts))
	for _, cc := range c.Contracts {
		kind, err := blockchain.ParseKind(cc.Kind)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, blockchain.Contract{
			Label:   cc.Label,
			Kind:    kind,
			Address: common.HexToAddress(cc.Address),
		})
	}
	return contracts, nil
}

// ethAddressValidator validates Ethereum addresses
func ethAddressValidator(fl validator.FieldLevel) bool {
	return common.IsHexAddress(fl.Field().String())
}

// scheduleValidator accepts a clock-aligned duration or a cron expression
func scheduleValidator(fl validator.FieldLevel) bool {
	return scheduler.ValidateScheduleInterval(fl.Field().String()) == nil
}

func timezoneValidator(fl validator.FieldLevel) bool {
	tz := fl.Field().String()
	if tz == "" {
		return true
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func contractKindValidator(fl validator.FieldLevel) bool {
	_, err := blockchain.ParseKind(fl.Field().String())
	return err == nil
}

// NewValidator creates a validator with custom validation rules
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("eth_addr", ethAddressValidator)
	validate.RegisterValidation("schedule", scheduleValidator)
	validate.RegisterValidation("timezone", timezoneValidator)
	validate.RegisterValidation("contract_kind", contractKindValidator)
	return validate
}
