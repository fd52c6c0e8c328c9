package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/tidebook/tidebook/internal/shared"
)

const listCacheTTL = 5 * time.Minute

// Manager orchestrates catalog operations with a redis read-through
// cache on venue listings.
type Manager struct {
	repo   Repository
	cache  *redis.Client
	logger *slog.Logger

	// loads dedupes concurrent cache-miss rebuilds per venue.
	loads singleflight.Group
}

// NewManager constructs a Manager. A nil cache disables caching.
func NewManager(repo Repository, cache *redis.Client, logger *slog.Logger) *Manager {
	return &Manager{repo: repo, cache: cache, logger: logger}
}

// Create adds a service to a venue's catalog.
func (m *Manager) Create(ctx context.Context, claim *shared.Claim, req CreateServiceRequest) (*Service, error) {
	s := Service{
		TenantID:        claim.TenantID,
		VenueID:         req.VenueID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Currency:        strings.ToUpper(req.Currency),
		IsActive:        true,
	}
	id, err := m.repo.Create(ctx, s)
	if err != nil {
		return nil, err
	}
	s.ID = id
	m.invalidate(ctx, s.TenantID, s.VenueID)
	return &s, nil
}

// Get fetches a service scoped to the caller's tenant.
func (m *Manager) Get(ctx context.Context, claim *shared.Claim, id int64) (*Service, error) {
	s, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.TenantID != claim.TenantID {
		return nil, ErrNotFound
	}
	return s, nil
}

// ListByVenue returns a venue's catalog scoped to the caller's tenant,
// served from cache when warm. The tenant id participates in both the
// query and the cache key so listings never cross tenants.
func (m *Manager) ListByVenue(ctx context.Context, claim *shared.Claim, venueID int64) ([]Service, error) {
	key := m.cacheKey(claim.TenantID, venueID)
	if m.cache != nil {
		cached, err := m.cache.Get(ctx, key).Bytes()
		if err == nil {
			var out []Service
			if err := json.Unmarshal(cached, &out); err == nil {
				return out, nil
			}
		} else if !errors.Is(err, redis.Nil) && m.logger != nil {
			m.logger.Warn("catalog cache read", slog.Any("error", err))
		}
	}

	result, err, _ := m.loads.Do(key, func() (any, error) {
		out, err := m.repo.ListByVenue(ctx, claim.TenantID, venueID)
		if err != nil {
			return nil, err
		}
		if m.cache != nil {
			if data, err := json.Marshal(out); err == nil {
				if err := m.cache.Set(ctx, key, data, listCacheTTL).Err(); err != nil && m.logger != nil {
					m.logger.Warn("catalog cache write", slog.Any("error", err))
				}
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Service), nil
}

// Update modifies a service and invalidates its venue's cached listing.
func (m *Manager) Update(ctx context.Context, claim *shared.Claim, id int64, req UpdateServiceRequest) (*Service, error) {
	existing, err := m.Get(ctx, claim, id)
	if err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, id, req); err != nil {
		return nil, err
	}
	m.invalidate(ctx, existing.TenantID, existing.VenueID)
	return m.repo.Get(ctx, id)
}

// Delete removes a service and invalidates its venue's cached listing.
func (m *Manager) Delete(ctx context.Context, claim *shared.Claim, id int64) error {
	existing, err := m.Get(ctx, claim, id)
	if err != nil {
		return err
	}
	if err := m.repo.Delete(ctx, id); err != nil {
		return err
	}
	m.invalidate(ctx, existing.TenantID, existing.VenueID)
	return nil
}

func (m *Manager) cacheKey(tenantID, venueID int64) string {
	return fmt.Sprintf("catalog:tenant:%d:venue:%d", tenantID, venueID)
}

func (m *Manager) invalidate(ctx context.Context, tenantID, venueID int64) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Del(ctx, m.cacheKey(tenantID, venueID)).Err(); err != nil && m.logger != nil {
		m.logger.Warn("catalog cache invalidate", slog.Any("error", err))
	}
}
