package usecase

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

const (
	msPerDay            = int64(24 * time.Hour / time.Millisecond)
	stuckThresholdDays  = 7
	stuckDetailLimit    = 5
	highValueStuckFloor = 10000
	qualifiedWeight     = 0.7
	contactedWeight     = 0.3
)

// wholeDays is floor((to - from) / 1 day) at millisecond precision.
func wholeDays(from, to time.Time) int {
	ms := to.UnixMilli() - from.UnixMilli()
	d := ms / msPerDay
	if ms%msPerDay != 0 && ms < 0 {
		d--
	}
	return int(d)
}

// roundHalfUp rounds .5 towards +Inf.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// isStuck is true once more than seven full days have elapsed since the last
// update. Exactly seven days is not stuck; seven days and a second is. The
// reported DaysStuck is floored, so a lead just past the line shows 7.
func isStuck(l *entity.Lead, now time.Time) bool {
	return now.UnixMilli()-l.UpdatedAt.UnixMilli() > stuckThresholdDays*msPerDay
}

// saturateInt64 converts a rounded amount, pinning values int64 cannot hold.
func saturateInt64(x float64) int64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= math.MaxInt64:
		return math.MaxInt64
	case x <= math.MinInt64:
		return math.MinInt64
	}
	return int64(x)
}

// ComputeDashboard derives the metrics snapshot from one owner's full lead
// list, in fetch order. It keeps no state between calls.
func ComputeDashboard(leads []*entity.Lead, now time.Time) DashboardStats {
	stats := DashboardStats{
		StageStats:     make(map[entity.Stage]StageStat, len(entity.Stages())),
		StuckLeads:     []StuckLead{},
		HighValueStuck: []StuckLead{},
	}
	stuckByStage := make(map[entity.Stage]int)
	for _, s := range entity.Stages() {
		stats.StageStats[s] = StageStat{}
	}

	var wonCount, wonDays int
	for _, l := range leads {
		stats.TotalLeads++
		stats.TotalValue += l.DealValue

		if st, ok := stats.StageStats[l.Stage]; ok {
			st.Count++
			st.Value += l.DealValue
			stats.StageStats[l.Stage] = st
		}

		if l.Stage == entity.StageClosedWon {
			wonCount++
			wonDays += wholeDays(l.CreatedAt, l.UpdatedAt)
		}

		if !isStuck(l, now) {
			continue
		}
		stuckByStage[l.Stage]++
		if !l.Stage.Closed() {
			stats.StuckLeadsCount++
		}
		if (l.Stage == entity.StageContacted || l.Stage == entity.StageQualified) &&
			len(stats.StuckLeads) < stuckDetailLimit {
			stats.StuckLeads = append(stats.StuckLeads, StuckLead{
				ID:        l.ID,
				Name:      l.Name,
				Stage:     l.Stage,
				DaysStuck: wholeDays(l.UpdatedAt, now),
				Value:     l.DealValue,
			})
		}
	}

	if stats.TotalLeads > 0 {
		total := float64(stats.TotalLeads)
		stats.ConversionRate = int(roundHalfUp(float64(stats.StageStats[entity.StageClosedWon].Count) / total * 100))
		stats.AvgDealSize = saturateInt64(roundHalfUp(stats.TotalValue / total))
	}
	if wonCount > 0 {
		stats.PipelineVelocity = int(roundHalfUp(float64(wonDays) / float64(wonCount)))
	}

	stats.Funnel = make([]FunnelStage, 0, len(entity.Stages()))
	for _, s := range entity.Stages() {
		st := stats.StageStats[s]
		pct := 0
		if stats.TotalLeads > 0 {
			pct = int(roundHalfUp(float64(st.Count) / float64(stats.TotalLeads) * 100))
		}
		stats.Funnel = append(stats.Funnel, FunnelStage{
			Stage:      s,
			Count:      st.Count,
			Value:      st.Value,
			Percentage: pct,
			StuckLeads: stuckByStage[s],
		})
	}

	for _, sl := range stats.StuckLeads {
		if sl.Value > highValueStuckFloor {
			stats.HighValueStuck = append(stats.HighValueStuck, sl)
			stats.HighValueStuckValue += sl.Value
		}
	}

	stats.RevenueForecast = saturateInt64(roundHalfUp(
		qualifiedWeight*stats.StageStats[entity.StageQualified].Value +
			contactedWeight*stats.StageStats[entity.StageContacted].Value))

	return stats
}

type GetDashboardUseCase struct {
	Repo   LeadRepository
	Logger *zap.Logger
	Now    Clock
}

func NewGetDashboardUseCase(repo LeadRepository, logger *zap.Logger) *GetDashboardUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GetDashboardUseCase{Repo: repo, Logger: logger}
}

// Execute fetches the owner's leads and recomputes everything from scratch.
func (uc *GetDashboardUseCase) Execute(ctx context.Context, ownerID string) (DashboardStats, error) {
	leads, err := uc.Repo.FindByOwner(ctx, ownerID)
	if err != nil {
		uc.Logger.Error("dashboard fetch failed", zap.String("owner_id", ownerID), zap.Error(err))
		return DashboardStats{}, storeErr("query", err)
	}
	return ComputeDashboard(leads, uc.Now.now()), nil
}
