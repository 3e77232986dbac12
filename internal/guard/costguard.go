package guard

import (
	"fmt"
	"sync"
	"time"
)

// UsageSnapshot is the accumulated model usage for one calendar month.
type UsageSnapshot struct {
	MonthKey    string
	TotalTokens int
	TotalUSD    float64
}

var alertThresholds = []int{50, 80, 100}

// CostGuard tracks estimated model spend per calendar month and refuses
// requests that would exceed the monthly limit.
type CostGuard struct {
	mu              sync.Mutex
	monthlyLimitUSD float64
	inputCostPer1K  float64
	outputCostPer1K float64
	usage           map[string]UsageSnapshot
	alerted         map[string]map[int]bool
}

func NewCostGuard(monthlyLimitUSD, inputCostPer1K, outputCostPer1K float64) *CostGuard {
	return &CostGuard{
		monthlyLimitUSD: monthlyLimitUSD,
		inputCostPer1K:  inputCostPer1K,
		outputCostPer1K: outputCostPer1K,
		usage:           make(map[string]UsageSnapshot),
		alerted:         make(map[string]map[int]bool),
	}
}

func monthKey(now time.Time) string {
	return fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month()))
}

// CanSpend reports whether the current month's spend plus the estimate
// stays within the monthly limit.
func (g *CostGuard) CanSpend(estimatedUSD float64, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	snapshot := g.usage[monthKey(now)]
	return snapshot.TotalUSD+estimatedUSD <= g.monthlyLimitUSD
}

// RegisterTokens converts token counts to estimated cost and accumulates
// them into the month's snapshot, returning the updated snapshot.
func (g *CostGuard) RegisterTokens(inputTokens, outputTokens int, now time.Time) UsageSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := monthKey(now)
	snapshot := g.usage[key]
	snapshot.MonthKey = key
	snapshot.TotalTokens += inputTokens + outputTokens
	snapshot.TotalUSD += float64(inputTokens)/1000.0*g.inputCostPer1K +
		float64(outputTokens)/1000.0*g.outputCostPer1K
	g.usage[key] = snapshot
	return snapshot
}

// NewAlertThresholds returns the budget percentage thresholds newly
// crossed since the last call, each reported at most once per month.
func (g *CostGuard) NewAlertThresholds(now time.Time) []int {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := monthKey(now)
	usedPct := 100.0
	if g.monthlyLimitUSD > 0 {
		usedPct = g.usage[key].TotalUSD / g.monthlyLimitUSD * 100.0
	}

	alerted := g.alerted[key]
	if alerted == nil {
		alerted = make(map[int]bool)
		g.alerted[key] = alerted
	}
	var crossed []int
	for _, threshold := range alertThresholds {
		if usedPct >= float64(threshold) && !alerted[threshold] {
			alerted[threshold] = true
			crossed = append(crossed, threshold)
		}
	}
	return crossed
}
