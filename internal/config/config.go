package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string `envconfig:"TELEGRAM_TOKEN" required:"true"`

	// TicketPrice is the price of one ticket in rubles.
	TicketPrice int `envconfig:"TICKET_PRICE" default:"1111"`

	SpreadsheetID        string `envconfig:"SPREADSHEET_ID" required:"true"`
	SheetName            string `envconfig:"SHEET_NAME" default:"Лист1"`
	GoogleServiceAccount string `envconfig:"GOOGLE_SERVICE_ACCOUNT" required:"true"`

	YooKassaShopID    string `envconfig:"YOOKASSA_SHOP_ID" required:"true"`
	YooKassaSecretKey string `envconfig:"YOOKASSA_SECRET_KEY" required:"true"`

	// PaymentReturnURL is where YooKassa sends the user after checkout,
	// normally the bot's t.me link.
	PaymentReturnURL string `envconfig:"PAYMENT_RETURN_URL" default:"https://t.me"`

	Port string `envconfig:"PORT" default:"10000"`

	// PendingSweepTTL is how long a PendingPayment row may sit before the
	// sweep cancels it; zero disables the sweep.
	PendingSweepTTL      time.Duration `envconfig:"PENDING_SWEEP_TTL" default:"24h"`
	PendingSweepInterval time.Duration `envconfig:"PENDING_SWEEP_INTERVAL" default:"1h"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}
	if cfg.TicketPrice <= 0 {
		return cfg, fmt.Errorf("TICKET_PRICE must be positive, got %d", cfg.TicketPrice)
	}
	if cfg.PendingSweepTTL > 0 && cfg.PendingSweepInterval <= 0 {
		return cfg, fmt.Errorf("PENDING_SWEEP_INTERVAL must be positive when the sweep is enabled")
	}
	return cfg, nil
}
