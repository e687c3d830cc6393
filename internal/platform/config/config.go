package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	IsProduction bool

	// CurrencyPrecision is the fractional-digit scale used for all stored and
	// computed rate values.
	CurrencyPrecision int
	// BackfillDays is how many historical days a backfill kickoff loads.
	BackfillDays int
	WorkerCount  int

	Providers ProviderConfig
}

// ProviderConfig carries per-source endpoints and credentials. Endpoints have
// production defaults and are overridable for testing; keyed sources with an
// empty credential come up disabled.
type ProviderConfig struct {
	CBRURL         string
	ECBURL         string
	NBRURL         string
	CBRTURL        string
	CNBURL         string
	RCBURL         string
	NBUURL         string
	NBGURL         string
	BNBURL         string
	FrankfurterURL string
	BOCURL         string
	BinanceURL     string
	MOEXURL        string
	BCBURL         string

	OXRURL   string
	OXRAppID string

	CurrencyLayerURL string
	CurrencyLayerKey string

	CoinLayerURL string
	CoinLayerKey string

	// APILayerURL is the shared api.apilayer.com base; each product under it
	// carries its own key.
	APILayerURL              string
	APILayerFixerKey         string
	APILayerCurrencyDataKey  string
	APILayerExchangeRatesKey string

	ExchangeRatesAPIURL string
	ExchangeRatesAPIKey string

	FastForexURL string
	FastForexKey string

	ForgeURL string
	ForgeKey string

	XigniteURL   string
	XigniteToken string

	CurrencyDataFeedURL string
	CurrencyDataFeedKey string

	AbstractAPIURL string
	AbstractAPIKey string

	FredURL    string
	FredAPIKey string

	BanxicoURL   string
	BanxicoToken string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("CURRENCY_PRECISION", 8)
	viper.SetDefault("BACKFILL_DAYS", 180)
	viper.SetDefault("WORKER_COUNT", 4)

	viper.SetDefault("CBR_URL", "https://www.cbr.ru/scripts/XML_daily.asp")
	viper.SetDefault("ECB_URL", "https://www.ecb.europa.eu/stats/eurofxref")
	viper.SetDefault("NBR_URL", "https://www.bnr.ro/files/xml")
	viper.SetDefault("CBRT_URL", "https://www.tcmb.gov.tr/kurlar")
	viper.SetDefault("CNB_URL", "https://www.cnb.cz/en/financial_markets/foreign_exchange_market/exchange_rate_fixing/daily.txt")
	viper.SetDefault("RCB_URL", "https://www.cbr-xml-daily.ru/daily_json.js")
	viper.SetDefault("NBU_URL", "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange")
	viper.SetDefault("NBG_URL", "https://nbg.gov.ge/gw/api/ct/monetarypolicy/currencies/en/json")
	viper.SetDefault("BNB_URL", "https://www.bnb.bg/Statistics/StExternalSector/StExchangeRates/StERForeignCurrencies/index.htm")
	viper.SetDefault("FRANKFURTER_URL", "https://api.frankfurter.app")
	viper.SetDefault("BOC_URL", "https://www.bankofcanada.ca/valet/observations/group/FX_RATES_DAILY/json")
	viper.SetDefault("BINANCE_URL", "https://api.binance.com")
	viper.SetDefault("MOEX_URL", "https://iss.moex.com")
	viper.SetDefault("BCB_URL", "https://olinda.bcb.gov.br/olinda/servico/PTAX/versao/v1/odata")

	viper.SetDefault("OXR_URL", "https://openexchangerates.org/api")
	viper.SetDefault("OXR_APP_ID", "")
	viper.SetDefault("CURRENCY_LAYER_URL", "https://api.currencylayer.com")
	viper.SetDefault("CURRENCY_LAYER_KEY", "")
	viper.SetDefault("COIN_LAYER_URL", "https://api.coinlayer.com")
	viper.SetDefault("COIN_LAYER_KEY", "")
	viper.SetDefault("API_LAYER_URL", "https://api.apilayer.com")
	viper.SetDefault("API_LAYER_FIXER_KEY", "")
	viper.SetDefault("API_LAYER_CURRENCY_DATA_KEY", "")
	viper.SetDefault("API_LAYER_EXCHANGE_RATES_KEY", "")
	viper.SetDefault("EXCHANGE_RATES_API_URL", "https://api.exchangeratesapi.io/v1")
	viper.SetDefault("EXCHANGE_RATES_API_KEY", "")
	viper.SetDefault("FAST_FOREX_URL", "https://api.fastforex.io")
	viper.SetDefault("FAST_FOREX_KEY", "")
	viper.SetDefault("FORGE_URL", "https://api.1forge.com")
	viper.SetDefault("FORGE_KEY", "")
	viper.SetDefault("XIGNITE_URL", "https://globalcurrencies.xignite.com/xGlobalCurrencies.json")
	viper.SetDefault("XIGNITE_TOKEN", "")
	viper.SetDefault("CURRENCY_DATA_FEED_URL", "https://currencydatafeed.com/api")
	viper.SetDefault("CURRENCY_DATA_FEED_KEY", "")
	viper.SetDefault("ABSTRACT_API_URL", "https://exchange-rates.abstractapi.com/v1")
	viper.SetDefault("ABSTRACT_API_KEY", "")
	viper.SetDefault("FRED_URL", "https://api.stlouisfed.org/fred")
	viper.SetDefault("FRED_API_KEY", "")
	viper.SetDefault("BANXICO_URL", "https://www.banxico.org.mx/SieAPIRest/service/v1")
	viper.SetDefault("BANXICO_TOKEN", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.CurrencyPrecision = viper.GetInt("CURRENCY_PRECISION")
	if cfg.CurrencyPrecision <= 0 {
		cfg.CurrencyPrecision = 8
		log.Printf("Warning: invalid CURRENCY_PRECISION, defaulting to %d\n", cfg.CurrencyPrecision)
	}

	cfg.BackfillDays = viper.GetInt("BACKFILL_DAYS")
	if cfg.BackfillDays < 0 {
		cfg.BackfillDays = 0
	}

	cfg.WorkerCount = viper.GetInt("WORKER_COUNT")
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}

	cfg.Providers = ProviderConfig{
		CBRURL:         viper.GetString("CBR_URL"),
		ECBURL:         viper.GetString("ECB_URL"),
		NBRURL:         viper.GetString("NBR_URL"),
		CBRTURL:        viper.GetString("CBRT_URL"),
		CNBURL:         viper.GetString("CNB_URL"),
		RCBURL:         viper.GetString("RCB_URL"),
		NBUURL:         viper.GetString("NBU_URL"),
		NBGURL:         viper.GetString("NBG_URL"),
		BNBURL:         viper.GetString("BNB_URL"),
		FrankfurterURL: viper.GetString("FRANKFURTER_URL"),
		BOCURL:         viper.GetString("BOC_URL"),
		BinanceURL:     viper.GetString("BINANCE_URL"),
		MOEXURL:        viper.GetString("MOEX_URL"),
		BCBURL:         viper.GetString("BCB_URL"),

		OXRURL:   viper.GetString("OXR_URL"),
		OXRAppID: viper.GetString("OXR_APP_ID"),

		CurrencyLayerURL: viper.GetString("CURRENCY_LAYER_URL"),
		CurrencyLayerKey: viper.GetString("CURRENCY_LAYER_KEY"),

		CoinLayerURL: viper.GetString("COIN_LAYER_URL"),
		CoinLayerKey: viper.GetString("COIN_LAYER_KEY"),

		APILayerURL:              viper.GetString("API_LAYER_URL"),
		APILayerFixerKey:         viper.GetString("API_LAYER_FIXER_KEY"),
		APILayerCurrencyDataKey:  viper.GetString("API_LAYER_CURRENCY_DATA_KEY"),
		APILayerExchangeRatesKey: viper.GetString("API_LAYER_EXCHANGE_RATES_KEY"),

		ExchangeRatesAPIURL: viper.GetString("EXCHANGE_RATES_API_URL"),
		ExchangeRatesAPIKey: viper.GetString("EXCHANGE_RATES_API_KEY"),

		FastForexURL: viper.GetString("FAST_FOREX_URL"),
		FastForexKey: viper.GetString("FAST_FOREX_KEY"),

		ForgeURL: viper.GetString("FORGE_URL"),
		ForgeKey: viper.GetString("FORGE_KEY"),

		XigniteURL:   viper.GetString("XIGNITE_URL"),
		XigniteToken: viper.GetString("XIGNITE_TOKEN"),

		CurrencyDataFeedURL: viper.GetString("CURRENCY_DATA_FEED_URL"),
		CurrencyDataFeedKey: viper.GetString("CURRENCY_DATA_FEED_KEY"),

		AbstractAPIURL: viper.GetString("ABSTRACT_API_URL"),
		AbstractAPIKey: viper.GetString("ABSTRACT_API_KEY"),

		FredURL:    viper.GetString("FRED_URL"),
		FredAPIKey: viper.GetString("FRED_API_KEY"),

		BanxicoURL:   viper.GetString("BANXICO_URL"),
		BanxicoToken: viper.GetString("BANXICO_TOKEN"),
	}

	return cfg, nil
}
