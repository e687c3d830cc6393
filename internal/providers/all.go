package providers

import (
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
	"github.com/SscSPs/fx_rates_service/internal/platform/config"
)

// BuildAll constructs every adapter from configuration. Adapters whose
// credentials are missing come back in the disabled map keyed by provider key
// instead of the provider list.
func BuildAll(cfg config.ProviderConfig, client *Client, scale int) ([]ports.Provider, map[string]error) {
	var all []ports.Provider
	disabled := make(map[string]error)

	all = append(all,
		NewCBR(client, cfg.CBRURL, scale),
		NewECB(client, cfg.ECBURL),
		NewNBR(client, cfg.NBRURL, scale),
		NewCBRT(client, cfg.CBRTURL, scale),
		NewCNB(client, cfg.CNBURL, scale),
		NewRCB(client, cfg.RCBURL, scale),
		NewNBU(client, cfg.NBUURL),
		NewNBG(client, cfg.NBGURL, scale),
		NewBNB(client, cfg.BNBURL),
		NewFrankfurter(client, cfg.FrankfurterURL),
		NewBankOfCanada(client, cfg.BOCURL),
		NewBinance(client, cfg.BinanceURL),
		NewMOEX(client, cfg.MOEXURL),
		NewBCB(client, cfg.BCBURL),
	)

	keyed := []struct {
		key   string
		build func() (ports.Provider, error)
	}{
		{"open_exchange_rates", func() (ports.Provider, error) {
			return NewOpenExchangeRates(client, cfg.OXRURL, cfg.OXRAppID)
		}},
		{"currency_layer", func() (ports.Provider, error) {
			return NewCurrencyLayer(client, cfg.CurrencyLayerURL, cfg.CurrencyLayerKey)
		}},
		{"coin_layer", func() (ports.Provider, error) {
			return NewCoinLayer(client, cfg.CoinLayerURL, cfg.CoinLayerKey)
		}},
		{"api_layer_fixer", func() (ports.Provider, error) {
			return NewAPILayerFixer(client, cfg.APILayerURL, cfg.APILayerFixerKey)
		}},
		{"api_layer_currency_data", func() (ports.Provider, error) {
			return NewAPILayerCurrencyData(client, cfg.APILayerURL, cfg.APILayerCurrencyDataKey)
		}},
		{"api_layer_exchange_rates_data", func() (ports.Provider, error) {
			return NewAPILayerExchangeRatesData(client, cfg.APILayerURL, cfg.APILayerExchangeRatesKey)
		}},
		{"exchange_rates_api", func() (ports.Provider, error) {
			return NewExchangeRatesAPI(client, cfg.ExchangeRatesAPIURL, cfg.ExchangeRatesAPIKey)
		}},
		{"fast_forex", func() (ports.Provider, error) {
			return NewFastForex(client, cfg.FastForexURL, cfg.FastForexKey)
		}},
		{"forge", func() (ports.Provider, error) {
			return NewForge(client, cfg.ForgeURL, cfg.ForgeKey)
		}},
		{"xignite", func() (ports.Provider, error) {
			return NewXignite(client, cfg.XigniteURL, cfg.XigniteToken)
		}},
		{"currency_data_feed", func() (ports.Provider, error) {
			return NewCurrencyDataFeed(client, cfg.CurrencyDataFeedURL, cfg.CurrencyDataFeedKey)
		}},
		{"abstract_api", func() (ports.Provider, error) {
			return NewAbstractAPI(client, cfg.AbstractAPIURL, cfg.AbstractAPIKey)
		}},
		{"fred", func() (ports.Provider, error) {
			return NewFRED(client, cfg.FredURL, cfg.FredAPIKey, scale)
		}},
		{"banxico", func() (ports.Provider, error) {
			return NewBanxico(client, cfg.BanxicoURL, cfg.BanxicoToken)
		}},
	}
	for _, k := range keyed {
		p, err := k.build()
		if err != nil {
			disabled[k.key] = err
			continue
		}
		all = append(all, p)
	}

	return all, disabled
}
