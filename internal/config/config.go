package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string
	LedgerBackend   string
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    string
	StateTopic      string
	NatsURL         string
	CallbackSubject string
	JaegerEndpoint  string
	TracingEnabled  bool

	AmountServiceAddr string
	RiskServiceURL    string
	BankServiceURL    string
	FundServiceURL    string
	AdapterTimeout    time.Duration
	CallbackLockTTL   time.Duration
	PublishTimeout    time.Duration
}

func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("LEDGER_BACKEND", "memory")
	v.SetDefault("STATE_TOPIC", "loan.state.changed")
	v.SetDefault("CALLBACK_SUBJECT", "cheque.verdict")
	v.SetDefault("JAEGER_ENDPOINT", "jaeger:4318")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("AMOUNT_SERVICE_ADDR", "localhost:50051")
	v.SetDefault("RISK_SERVICE_URL", "http://localhost:5001/graphql")
	v.SetDefault("BANK_SERVICE_URL", "http://localhost:5002/soap")
	v.SetDefault("FUND_SERVICE_URL", "http://localhost:5003")
	v.SetDefault("ADAPTER_TIMEOUT", 5*time.Second)
	v.SetDefault("CALLBACK_LOCK_TTL", 30*time.Second)
	v.SetDefault("PUBLISH_TIMEOUT", 2*time.Second)

	return &Config{
		Port:            v.GetString("PORT"),
		LedgerBackend:   v.GetString("LEDGER_BACKEND"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		RedisURL:        v.GetString("REDIS_URL"),
		KafkaBrokers:    v.GetString("KAFKA_BROKERS"),
		StateTopic:      v.GetString("STATE_TOPIC"),
		NatsURL:         v.GetString("NATS_URL"),
		CallbackSubject: v.GetString("CALLBACK_SUBJECT"),
		JaegerEndpoint:  v.GetString("JAEGER_ENDPOINT"),
		TracingEnabled:  v.GetBool("TRACING_ENABLED"),

		AmountServiceAddr: v.GetString("AMOUNT_SERVICE_ADDR"),
		RiskServiceURL:    v.GetString("RISK_SERVICE_URL"),
		BankServiceURL:    v.GetString("BANK_SERVICE_URL"),
		FundServiceURL:    v.GetString("FUND_SERVICE_URL"),
		AdapterTimeout:    v.GetDuration("ADAPTER_TIMEOUT"),
		CallbackLockTTL:   v.GetDuration("CALLBACK_LOCK_TTL"),
		PublishTimeout:    v.GetDuration("PUBLISH_TIMEOUT"),
	}
}
