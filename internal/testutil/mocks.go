package testutil

import (
	"context"
	"sync"

	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/pkg/types"
)

// MockAdapter is a scriptable venue adapter. Each FetchQuotes call returns
// the next scripted result, repeating the last one when the script runs
// out.
type MockAdapter struct {
	AdapterName string
	Markets     []types.VenueMarket
	MarketsErr  error

	mu      sync.Mutex
	script  []PollResult
	cursor  int
	fetches int
}

// PollResult is one scripted FetchQuotes outcome.
type PollResult struct {
	Quotes []types.Quote
	Err    error
}

// NewMockAdapter creates a mock venue named name.
func NewMockAdapter(name string, script ...PollResult) *MockAdapter {
	return &MockAdapter{AdapterName: name, script: script}
}

// Name implements the adapter interface.
func (m *MockAdapter) Name() string {
	return m.AdapterName
}

// FetchQuotes returns the next scripted result.
func (m *MockAdapter) FetchQuotes(context.Context) ([]types.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches++

	if len(m.script) == 0 {
		return nil, nil
	}

	res := m.script[m.cursor]
	if m.cursor < len(m.script)-1 {
		m.cursor++
	}

	return res.Quotes, res.Err
}

// FetchMarkets returns the configured market list.
func (m *MockAdapter) FetchMarkets(context.Context) ([]types.VenueMarket, error) {
	if m.MarketsErr != nil {
		return nil, m.MarketsErr
	}

	return m.Markets, nil
}

// Fetches returns how many FetchQuotes calls were made.
func (m *MockAdapter) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fetches
}

// MockPublisher records every snapshot it receives.
type MockPublisher struct {
	mu        sync.Mutex
	SinkName  string
	Rankings  [][]arbitrage.Opportunity
	Statuses  []map[string]types.ExchangeStatus
	CloseErrs int
}

// NewMockPublisher creates a recording sink.
func NewMockPublisher(name string) *MockPublisher {
	return &MockPublisher{SinkName: name}
}

// Name implements publish.Publisher.
func (p *MockPublisher) Name() string {
	return p.SinkName
}

// Publish implements publish.Publisher.
func (p *MockPublisher) Publish(_ context.Context, opps []arbitrage.Opportunity) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Rankings = append(p.Rankings, opps)

	return nil
}

// PublishStatus implements publish.Publisher.
func (p *MockPublisher) PublishStatus(_ context.Context, st map[string]types.ExchangeStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Statuses = append(p.Statuses, st)

	return nil
}

// Close implements publish.Publisher.
func (p *MockPublisher) Close() error {
	return nil
}

// RankingCount returns how many rankings were delivered.
func (p *MockPublisher) RankingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.Rankings)
}

// LastRanking returns the most recent delivered ranking, nil when none.
func (p *MockPublisher) LastRanking() []arbitrage.Opportunity {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.Rankings) == 0 {
		return nil
	}

	return p.Rankings[len(p.Rankings)-1]
}
