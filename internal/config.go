package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BadgerFilepath     string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO"`
	PageSize           int           `env:"PAGE_SIZE,default=10"`
	NotificationWindow time.Duration `env:"NOTIFICATION_WINDOW,default=24h"`
	ReminderInterval   time.Duration `env:"REMINDER_INTERVAL,default=1m"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=1s"`
	Colours            bool          `env:"COLOURS,default=true"`
	DebugPort          int           `env:"DEBUG_PORT,default=8081"`
}

// Validate rejects settings go-env cannot check by itself.
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.NotificationWindow <= 0 {
		return fmt.Errorf("NOTIFICATION_WINDOW must be positive, got %s", c.NotificationWindow)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", c.ReminderInterval)
	}
	return nil
}
