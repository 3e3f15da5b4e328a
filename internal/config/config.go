package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or a unix socket path
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AMQPURL           string `env:"AMQP_URL"`
	AMQPEventExchange string `env:"AMQP_EVENT_EXCHANGE" envDefault:"auction.events"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret"`

	// Engine tunables. Amounts are in rappen (CHF cents).
	CommissionRate    float64 `env:"COMMISSION_RATE" envDefault:"0.05"`
	CommissionCap     int64   `env:"COMMISSION_CAP" envDefault:"50000"`
	VATRate           float64 `env:"VAT_RATE" envDefault:"0.077"`
	BidMaxRetries     int     `env:"BID_MAX_RETRIES" envDefault:"3"`
	BidRatePerMinute  int     `env:"BID_RATE_PER_MINUTE" envDefault:"5"`
	PaymentDueDays    int     `env:"PAYMENT_DUE_DAYS" envDefault:"7"`
	SettleTickSeconds int     `env:"SETTLE_TICK_SECONDS" envDefault:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
