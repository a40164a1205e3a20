package sites

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jag-erp/jag-erp/internal/sales/customers"
	"github.com/jag-erp/jag-erp/internal/shared"
)

type stubCustomers map[int64]bool

func (s stubCustomers) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	if !s[id] {
		return nil, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	return &customers.Customer{ID: id}, nil
}

type mockRepository struct {
	sites  map[int64]Site
	nextID int64
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Site, error) {
	s, ok := m.sites[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (m *mockRepository) ListByCustomer(ctx context.Context, customerID int64) ([]Site, error) {
	var out []Site
	for _, s := range m.sites {
		if s.CustomerID == customerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SiteName < out[j].SiteName })
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, s Site) (int64, error) {
	m.nextID++
	s.ID = m.nextID
	m.sites[s.ID] = s
	return s.ID, nil
}

func TestSitesByCustomerSortedByName(t *testing.T) {
	repo := &mockRepository{sites: map[int64]Site{}}
	svc := NewService(repo, stubCustomers{1: true})
	ctx := context.Background()

	_, err := svc.Create(ctx, SiteInput{CustomerID: 1, SiteName: "Wakad Tower B"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, SiteInput{CustomerID: 1, SiteName: "Baner Villa"})
	require.NoError(t, err)

	list, err := svc.ListByCustomer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Baner Villa", list[0].SiteName)
}

func TestCreateSiteUnknownCustomer(t *testing.T) {
	svc := NewService(&mockRepository{sites: map[int64]Site{}}, stubCustomers{})
	_, err := svc.Create(context.Background(), SiteInput{CustomerID: 9, SiteName: "Kharadi"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Create(context.Background(), SiteInput{SiteName: "Kharadi"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetSiteHiddenWhenCustomerHidden(t *testing.T) {
	repo := &mockRepository{sites: map[int64]Site{5: {ID: 5, CustomerID: 2, SiteName: "Hinjewadi"}}}
	svc := NewService(repo, stubCustomers{1: true})

	_, err := svc.Get(context.Background(), 5)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
