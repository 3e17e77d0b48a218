// Package config loads service configuration from file and environment.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

// Service holds the identity of the running process.
type Service struct {
	Name        string
	Version     string
	Environment string
}

// Endpoints holds the listen address and base URL of every workflow service.
// Base URLs are what peers dial; listen addresses are what the process binds.
type Endpoints struct {
	IntakeListen   string
	PolicyListen   string
	StatusListen   string
	ApproverListen string

	IntakeURL   string
	PolicyURL   string
	StatusURL   string
	ApproverURL string

	// SummaryURL points at the external narrative generator, when deployed.
	SummaryURL string
}

// Policy holds the spend-authorisation thresholds.
type Policy struct {
	ManagerOnlyMax        float64
	ManagerAndDirectorMin float64
	DisallowedSpendTypes  []domain.SpendType
}

// Config is the full configuration tree.
type Config struct {
	Service   Service
	Endpoints Endpoints
	Policy    Policy
	LogLevel  string
	NATSURL   string
}

// Load reads configuration from an optional esaf.yaml and ESAF_* environment
// variables, applying defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("esaf")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/esaf")

	v.SetEnvPrefix("ESAF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{
		Service: Service{
			Name:        v.GetString("service.name"),
			Version:     v.GetString("service.version"),
			Environment: v.GetString("service.environment"),
		},
		Endpoints: Endpoints{
			IntakeListen:   v.GetString("intake.listen"),
			PolicyListen:   v.GetString("policy.listen"),
			StatusListen:   v.GetString("status.listen"),
			ApproverListen: v.GetString("approver.listen"),
			IntakeURL:      v.GetString("intake.url"),
			PolicyURL:      v.GetString("policy.url"),
			StatusURL:      v.GetString("status.url"),
			ApproverURL:    v.GetString("approver.url"),
			SummaryURL:     v.GetString("summary.url"),
		},
		Policy: Policy{
			ManagerOnlyMax:        v.GetFloat64("policy.manager_only_max"),
			ManagerAndDirectorMin: v.GetFloat64("policy.manager_and_director_min"),
		},
		LogLevel: v.GetString("log.level"),
		NATSURL:  v.GetString("nats.url"),
	}

	for _, raw := range v.GetStringSlice("policy.disallowed_spend_types") {
		spend := domain.SpendType(strings.ToLower(strings.TrimSpace(raw)))
		if spend != "" {
			cfg.Policy.DisallowedSpendTypes = append(cfg.Policy.DisallowedSpendTypes, spend)
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "be-esaf-workflow")
	v.SetDefault("service.version", "0.1.0")
	v.SetDefault("service.environment", "development")
	v.SetDefault("log.level", "info")

	v.SetDefault("intake.listen", ":41001")
	v.SetDefault("policy.listen", ":41002")
	v.SetDefault("status.listen", ":41003")
	v.SetDefault("approver.listen", ":41004")

	v.SetDefault("intake.url", "http://localhost:41001")
	v.SetDefault("policy.url", "http://localhost:41002")
	v.SetDefault("status.url", "http://localhost:41003")
	v.SetDefault("approver.url", "http://localhost:41004")
	v.SetDefault("summary.url", "")

	// Thresholds mirror the current ESAF policy: manager alone up to 20k,
	// manager and director together above that, travel never allowed.
	v.SetDefault("policy.manager_only_max", 20000)
	v.SetDefault("policy.manager_and_director_min", 20000.01)
	v.SetDefault("policy.disallowed_spend_types", []string{"travel"})

	v.SetDefault("nats.url", "")
}
