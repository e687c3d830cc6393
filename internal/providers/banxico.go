package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// banxicoSeries maps SIE time series ids to currencies.
var banxicoSeries = map[string]string{
	"SF43718": "USD",
	"SF46410": "EUR",
	"SF46407": "CAD",
	"SF46406": "GBP",
	"SF46411": "JPY",
}

// Banxico fetches MXN rates from the Bank of Mexico SIE API. The token
// travels in the Bmx-Token header; quota exhaustion is signalled in the error
// payload with the seconds left until reset.
type Banxico struct {
	Info
	noRange
	client  *Client
	baseURL string
	token   string
}

// NewBanxico creates the adapter; a missing token disables it.
func NewBanxico(client *Client, baseURL, token string) (*Banxico, error) {
	if token == "" {
		return nil, apperrors.NewDisabledProvider("banxico: BANXICO_TOKEN is not set")
	}
	currencies := make([]string, 0, len(banxicoSeries))
	for _, c := range banxicoSeries {
		currencies = append(currencies, c)
	}
	return &Banxico{
		Info: Info{
			ProviderKey: "banxico",
			ProviderID:  27,
			Base:        "MXN",
			Home:        "https://www.banxico.org.mx",
			Desc:        "Banco de Mexico",
			IsActive:    true,
			Currencies:  currencies,
			FetchDelay:  time.Second,
		},
		client:  client,
		baseURL: baseURL,
		token:   token,
	}, nil
}

type banxicoDocument struct {
	Bmx struct {
		Series []struct {
			ID    string `json:"idSerie"`
			Datos []struct {
				Fecha string `json:"fecha"`
				Dato  string `json:"dato"`
			} `json:"datos"`
		} `json:"series"`
	} `json:"bmx"`
	Error *struct {
		Mensaje        string `json:"mensaje"`
		SecondsToReset int64  `json:"secondsToReset"`
	} `json:"error"`
}

// RatesByDate fetches all mapped series for exactly the requested day.
// Series without a publication, or with the "N/E" placeholder, are skipped.
func (p *Banxico) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	day := domain.Day(date).Format(domain.DateLayout)

	ids := make([]string, 0, len(banxicoSeries))
	for id := range banxicoSeries {
		ids = append(ids, id)
	}
	url := fmt.Sprintf("%s/series/%s/datos/%s/%s", p.baseURL, strings.Join(ids, ","), day, day)
	headers := map[string]string{"Bmx-Token": p.token}

	var doc banxicoDocument
	if err := p.client.GetJSON(ctx, url, headers, &doc); err != nil {
		return domain.RatesResult{}, err
	}
	if doc.Error != nil {
		if doc.Error.SecondsToReset > 0 {
			return domain.RatesResult{}, apperrors.NewLimitExceeded(time.Duration(doc.Error.SecondsToReset) * time.Second)
		}
		return domain.RatesResult{}, fmt.Errorf("banxico: upstream error: %s", doc.Error.Mensaje)
	}

	rates := make(map[string]string, len(doc.Bmx.Series))
	for _, s := range doc.Bmx.Series {
		currency, known := banxicoSeries[s.ID]
		if !known || len(s.Datos) == 0 {
			continue
		}
		value := s.Datos[len(s.Datos)-1].Dato
		if value == "" || value == "N/E" {
			continue
		}
		rates[currency] = decimals.Normalize(value)
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         domain.Day(date),
		Rates:        rates,
	}, nil
}
