package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// bcbCurrencies are the PTAX-quoted currencies fetched besides the dollar.
var bcbCurrencies = []string{"EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "ARS", "DKK", "NOK", "SEK"}

// BCB fetches BRL rates from the Central Bank of Brazil PTAX OData service.
// The dollar has a dedicated endpoint; other currencies are fetched one by
// one, preferring the closing bulletin.
type BCB struct {
	Info
	noRange
	client  *Client
	baseURL string
}

// NewBCB creates the BCB adapter.
func NewBCB(client *Client, baseURL string) *BCB {
	return &BCB{
		Info: Info{
			ProviderKey: "bcb",
			ProviderID:  28,
			Base:        "BRL",
			Home:        "https://www.bcb.gov.br",
			Desc:        "Central Bank of Brazil PTAX",
			IsActive:    true,
			Currencies:  append([]string{"USD"}, bcbCurrencies...),
			FetchDelay:  time.Second,
		},
		client:  client,
		baseURL: baseURL,
	}
}

type bcbDocument struct {
	Value []struct {
		SellRate json.Number `json:"cotacaoVenda"`
		Bulletin string      `json:"tipoBoletim"`
	} `json:"value"`
}

// pick prefers the closing bulletin and falls back to the last quotation.
func (d bcbDocument) pick() (string, bool) {
	if len(d.Value) == 0 {
		return "", false
	}
	for _, v := range d.Value {
		if v.Bulletin == "Fechamento PTAX" {
			return v.SellRate.String(), true
		}
	}
	return d.Value[len(d.Value)-1].SellRate.String(), true
}

// RatesByDate fetches the PTAX quotations for exactly the requested day.
// Currencies without a bulletin fail individually and are skipped.
func (p *BCB) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	day := domain.Day(date).Format("01-02-2006")
	rates := make(map[string]string)

	url := fmt.Sprintf("%s/DollarRateDate(dataCotacao=@dataCotacao)?@dataCotacao='%s'&$format=json", p.baseURL, day)
	var usd bcbDocument
	if err := p.client.GetJSON(ctx, url, nil, &usd); err != nil {
		if _, limited := apperrors.AsLimitExceeded(err); limited {
			return domain.RatesResult{}, err
		}
	} else if value, ok := usd.pick(); ok {
		rates["USD"] = decimals.Normalize(value)
	}

	for _, currency := range bcbCurrencies {
		url := fmt.Sprintf("%s/ExchangeRateDate(moeda=@moeda,dataCotacao=@dataCotacao)?@moeda='%s'&@dataCotacao='%s'&$format=json",
			p.baseURL, currency, day)

		var doc bcbDocument
		if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
			if _, limited := apperrors.AsLimitExceeded(err); limited {
				return domain.RatesResult{}, err
			}
			continue
		}
		if value, ok := doc.pick(); ok {
			rates[currency] = decimals.Normalize(value)
		}
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         domain.Day(date),
		Rates:        rates,
	}, nil
}
