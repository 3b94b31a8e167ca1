package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/staking-rewards/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	// reports go to stdout, logs stay on stderr unless LOG_FILE is set
	if path, ok := config.GetEnv("LOG_FILE"); ok && path != "" {
		logrus.SetOutput(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    config.GetEnvAsInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: config.GetEnvAsInt("LOG_MAX_BACKUPS", 3),
			MaxAge:     config.GetEnvAsInt("LOG_MAX_AGE_DAYS", 28),
		})
	} else {
		logrus.SetOutput(os.Stderr)
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// formatFiat renders an amount in the currency's own notation, e.g. $1,234.50.
// Codes unknown to go-money fall back to a plain two decimal rendering.
func formatFiat(amount float64, currency string) string {
	code := strings.ToUpper(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, code)
	}

	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}
