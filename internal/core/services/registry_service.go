package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
	"github.com/SscSPs/fx_rates_service/internal/dto"
)

// RegistryService indexes the configured provider adapters. Providers that
// failed construction stay known by key so lookups can report why they are
// disabled instead of claiming they do not exist.
type RegistryService struct {
	logger    *slog.Logger
	byKey     map[string]ports.Provider
	order     []string
	disabled  map[string]error
	rateRepo  ports.RateRepository
	listCache ports.ProviderListCache
}

// NewRegistryService creates the registry from the constructed providers and
// the per-key construction failures.
func NewRegistryService(logger *slog.Logger, provs []ports.Provider, disabled map[string]error, rateRepo ports.RateRepository, listCache ports.ProviderListCache) *RegistryService {
	byKey := make(map[string]ports.Provider, len(provs))
	order := make([]string, 0, len(provs))
	for _, p := range provs {
		byKey[p.Key()] = p
		order = append(order, p.Key())
	}
	for key, err := range disabled {
		logger.Info("provider disabled", slog.String("provider", key), slog.Any("reason", err))
	}
	return &RegistryService{
		logger:    logger,
		byKey:     byKey,
		order:     order,
		disabled:  disabled,
		rateRepo:  rateRepo,
		listCache: listCache,
	}
}

// Get returns the provider registered under key. Disabled providers yield
// their DisabledProviderError; unknown keys yield ErrProviderNotFound.
func (s *RegistryService) Get(key string) (ports.Provider, error) {
	if p, ok := s.byKey[key]; ok {
		return p, nil
	}
	if err, ok := s.disabled[key]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrProviderNotFound, key)
}

// Active returns the active providers in registration order.
func (s *RegistryService) Active() []ports.Provider {
	out := make([]ports.Provider, 0, len(s.order))
	for _, key := range s.order {
		if p := s.byKey[key]; p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// ListAll returns the metadata listing for all active providers, including
// the earliest stored date per provider. The assembled list is cached for an
// hour; force evicts it first.
func (s *RegistryService) ListAll(ctx context.Context, force bool) ([]dto.ProviderInfo, error) {
	if force {
		s.listCache.Delete(ctx)
	} else if infos, ok := s.listCache.Get(ctx); ok {
		return infos, nil
	}

	active := s.Active()
	infos := make([]dto.ProviderInfo, 0, len(active))
	for _, p := range active {
		id := p.ID()
		minDate, err := s.rateRepo.MinDate(ctx, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve min date for %s: %w", p.Key(), err)
		}
		var minDateStr *string
		if minDate != nil {
			v := minDate.Format(domain.DateLayout)
			minDateStr = &v
		}
		infos = append(infos, dto.ProviderInfo{
			Key:                 p.Key(),
			HomePage:            p.HomePage(),
			Description:         p.Description(),
			BaseCurrency:        p.BaseCurrency(),
			AvailableCurrencies: p.AvailableCurrencies(),
			MinDate:             minDateStr,
		})
	}

	s.listCache.Set(ctx, infos)
	return infos, nil
}
