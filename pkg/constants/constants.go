// Package constants provides shared constants for the consistency-planner application.
package constants

// Program rule constants
const (
	// MinWithdrawalProfit is the minimum net profit required before a payout can be requested.
	MinWithdrawalProfit = 35.0

	// ProfitSplit is the fraction of eligible profit paid out to the trader.
	ProfitSplit = 0.80

	// ValidDayPercent is the percentage of account size a day must earn to count as a trading day.
	ValidDayPercent = 0.5

	// PromoMaxWithdrawal caps the profit that can be withdrawn from the promo account.
	PromoMaxWithdrawal = 100.0
)

// Day count constants
const (
	// MinDayCount is the smallest number of days a trade log may hold.
	MinDayCount = 1

	// MaxDayCount is the largest number of days a trade log may hold.
	MaxDayCount = 100

	// DefaultDayCount is the number of days in a freshly reset trade log.
	DefaultDayCount = 5
)

// Roadmap constants
const (
	// MinPlannedDays is the shortest planning horizon a user may choose.
	MinPlannedDays = 3

	// MaxPlannedDays is the longest planning horizon a user may choose.
	MaxPlannedDays = 30

	// DefaultPlannedDays is used when no planning horizon is configured.
	DefaultPlannedDays = 5

	// DefaultTargetPayout is the payout goal used when none is configured.
	DefaultTargetPayout = 35.0

	// RiskFactor is the share of the current highest day above which a daily target is risky.
	RiskFactor = 0.95

	// FastestPaceFactor is the share of the highest day used by the fastest scenario.
	FastestPaceFactor = 0.99

	// BalancedPaceFactor is the share of the highest day used by the balanced scenario.
	BalancedPaceFactor = 0.5

	// SafePaceFloor is the smallest daily amount the safe scenario plans for.
	SafePaceFloor = 5.0
)

// Numeric constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides of configuration keys.
	EnvPrefix = "CONSISTENCY"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Currency conversion defaults
const (
	// DefaultCurrencyCode is the local currency shown next to USD amounts.
	DefaultCurrencyCode = "INR"

	// DefaultCurrencyLocale is the locale used to group local currency amounts.
	DefaultCurrencyLocale = "en-IN"

	// DefaultExchangeRate is used whenever a live USD rate cannot be fetched.
	DefaultExchangeRate = 86.0

	// DefaultRateURL returns the latest USD based exchange rates.
	DefaultRateURL = "https://api.exchangerate-api.com/v4/latest/USD"

	// DefaultRateTimeoutSeconds bounds a live rate lookup including retries.
	DefaultRateTimeoutSeconds = 5

	// RateCacheMinutes is how long a fetched rate is reused.
	RateCacheMinutes = 60
)

// Store defaults
const (
	// StoreBackendFile keeps snapshots as YAML documents in a directory.
	StoreBackendFile = "file"

	// StoreBackendSQLite keeps snapshots in a SQLite database.
	StoreBackendSQLite = "sqlite"

	// StoreBackendRedis keeps snapshots in Redis.
	StoreBackendRedis = "redis"

	// DefaultStorePath is the directory used by the file store.
	DefaultStorePath = ".consistency-planner"

	// DefaultStoreKeyPrefix namespaces snapshot keys.
	DefaultStoreKeyPrefix = "consistency:snapshot:"
)
