package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"strava-thresholds/internal/monitoring"
	"strava-thresholds/internal/store"
	"strava-thresholds/internal/streams"
	"strava-thresholds/internal/threshold"
)

// ThresholdService builds threshold plans from stored activities
type ThresholdService struct {
	store *store.DB
	opts  threshold.Options
	now   func() time.Time
}

// NewThresholdService creates a threshold service with the given engine options
func NewThresholdService(db *store.DB, opts threshold.Options) *ThresholdService {
	return &ThresholdService{store: db, opts: opts, now: time.Now}
}

// ThresholdsData is a plan prepared for display
type ThresholdsData struct {
	Sport      threshold.Sport
	SnapshotID string
	ComputedAt time.Time
	Activities int // activities with streams that were considered

	HRMax EstimateView
	LT1   EstimateView
	LT2   EstimateView

	StageDuration int // minutes
	Stages        []StageView
	StopRules     []string

	Plan threshold.Plan
}

// EstimateView is one estimate with formatted values
type EstimateView struct {
	Label      string
	Value      string // "172 bpm" or "-"
	Range      string // "169-175 bpm" or ""
	Confidence threshold.Confidence
	Evidence   []EvidenceRow
}

// EvidenceRow describes one activity backing an estimate
type EvidenceRow struct {
	ActivityID string
	Name       string
	Date       time.Time
	Detail     string
}

// StageView is one protocol stage with its formatted target
type StageView struct {
	Stage    int
	TargetHR int
	Target   string // pace, power or "-"
	Notes    string
}

// HasProtocol reports whether all three estimates were available
func (d *ThresholdsData) HasProtocol() bool {
	return d.Plan.Protocol != nil
}

// lookbackDays is the widest window any estimator reads
func (s *ThresholdService) lookbackDays() int {
	days := s.opts.ExpandedLookbackDays
	if days <= 0 {
		days = threshold.DefaultExpandedLookbackDays
	}
	return max(days, s.opts.LookbackDays)
}

// LoadActivities reads stored activities with heart rate and streams that
// started at or after since, together with their names
func (s *ThresholdService) LoadActivities(ctx context.Context, since time.Time) ([]threshold.ActivityRecord, map[string]string, error) {
	activities, err := s.store.ListActivities(ctx, "", since)
	if err != nil {
		return nil, nil, fmt.Errorf("listing activities: %w", err)
	}

	ids := make([]string, 0, len(activities))
	for _, a := range activities {
		if a.HasHeartrate && a.StreamsSynced {
			ids = append(ids, a.ID)
		}
	}

	points, err := s.store.GetStreamsForActivities(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("loading streams: %w", err)
	}

	names := make(map[string]string, len(activities))
	records := make([]threshold.ActivityRecord, 0, len(ids))
	for _, a := range activities {
		names[a.ID] = a.Name
		if !a.HasHeartrate || !a.StreamsSynced {
			continue
		}
		p := points[a.ID]
		if len(p) == 0 {
			monitoring.Logf("thresholds: skipping %s (%s): no stream points", a.ID, a.Name)
			continue
		}
		records = append(records, threshold.ActivityRecord{
			ID:      a.ID,
			Date:    a.StartDate,
			Sport:   a.Sport,
			Streams: streams.FromPoints(p),
		})
	}
	return records, names, nil
}

// Compute builds a fresh plan for sport, stores it as a snapshot and returns it
func (s *ThresholdService) Compute(ctx context.Context, sport threshold.Sport) (*ThresholdsData, error) {
	now := s.now()
	opts := s.opts
	opts.Now = now

	records, names, err := s.LoadActivities(ctx, now.AddDate(0, 0, -s.lookbackDays()))
	if err != nil {
		return nil, err
	}

	plan := threshold.BuildPlan(records, sport, opts)

	payload, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	snapshot := &store.PlanSnapshot{
		Sport:      string(sport),
		ComputedAt: now,
		Activities: len(records),
		Payload:    payload,
	}
	if err := s.store.SavePlanSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}
	if _, err := s.store.PrunePlanSnapshots(ctx, SnapshotsKept); err != nil {
		monitoring.Logf("thresholds: pruning snapshots: %v", err)
	}
	if err := s.store.SetSyncState(ctx, store.KeyLastPlanSport, string(sport)); err != nil {
		monitoring.Logf("thresholds: remembering sport: %v", err)
	}

	monitoring.Logf("thresholds: %s plan from %d activities (snapshot %s)", sport, len(records), snapshot.ID)
	return newThresholdsData(snapshot, plan, names), nil
}

// LastSnapshot returns the most recent stored plan for sport without
// recomputing. It returns store.ErrNoSnapshot when none exists.
func (s *ThresholdService) LastSnapshot(ctx context.Context, sport threshold.Sport) (*ThresholdsData, error) {
	snapshot, err := s.store.LatestPlanSnapshot(ctx, string(sport))
	if err != nil {
		return nil, err
	}

	var plan threshold.Plan
	if err := json.Unmarshal(snapshot.Payload, &plan); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", snapshot.ID, err)
	}

	names := make(map[string]string)
	for _, ev := range [][]threshold.Evidence{plan.HRMax.Evidence, plan.LT1.Evidence, plan.LT2.Evidence} {
		for _, e := range ev {
			if _, ok := names[e.ActivityID]; ok {
				continue
			}
			a, err := s.store.GetActivity(ctx, e.ActivityID)
			if errors.Is(err, store.ErrActivityNotFound) {
				names[e.ActivityID] = ""
				continue
			}
			if err != nil {
				return nil, err
			}
			names[e.ActivityID] = a.Name
		}
	}
	return newThresholdsData(snapshot, plan, names), nil
}

// LastSport returns the sport of the most recently computed plan, or fallback
func (s *ThresholdService) LastSport(ctx context.Context, fallback threshold.Sport) threshold.Sport {
	v, err := s.store.GetSyncState(ctx, store.KeyLastPlanSport)
	if err != nil || v == "" {
		return fallback
	}
	return threshold.ParseSport(v)
}

func newThresholdsData(snapshot *store.PlanSnapshot, plan threshold.Plan, names map[string]string) *ThresholdsData {
	d := &ThresholdsData{
		Sport:      threshold.Sport(snapshot.Sport),
		SnapshotID: snapshot.ID,
		ComputedAt: snapshot.ComputedAt,
		Activities: snapshot.Activities,
		HRMax:      estimateView("HRmax", plan.HRMax, names),
		LT1:        estimateView("LT1", plan.LT1.HR, names),
		LT2:        estimateView("LT2", plan.LT2.HR, names),
		Plan:       plan,
	}
	if p := plan.Protocol; p != nil {
		d.StageDuration = p.StageDurationMinutes
		d.StopRules = p.StopRules
		for _, st := range p.Stages {
			d.Stages = append(d.Stages, StageView{
				Stage:    st.Stage,
				TargetHR: st.TargetHR,
				Target:   stageTarget(st),
				Notes:    st.Notes,
			})
		}
	}
	return d
}

func estimateView(label string, e threshold.Estimate, names map[string]string) EstimateView {
	v := EstimateView{Label: label, Value: "-", Confidence: e.Confidence}
	if e.Value != nil {
		v.Value = fmt.Sprintf("%d bpm", *e.Value)
	}
	if e.Min != nil && e.Max != nil {
		v.Range = fmt.Sprintf("%d-%d bpm", *e.Min, *e.Max)
	}
	for _, ev := range e.Evidence {
		v.Evidence = append(v.Evidence, EvidenceRow{
			ActivityID: ev.ActivityID,
			Name:       names[ev.ActivityID],
			Date:       ev.Date,
			Detail:     evidenceDetail(ev),
		})
	}
	return v
}

// evidenceDetail summarizes whichever measurements the estimator recorded
func evidenceDetail(e threshold.Evidence) string {
	var parts []string
	if e.MaxRolling30s > 0 {
		parts = append(parts, fmt.Sprintf("30s peak %.0f bpm", e.MaxRolling30s))
	}
	if e.MeanHR > 0 {
		s := fmt.Sprintf("%.1f bpm", e.MeanHR)
		if e.DurationMinutes > 0 {
			s += fmt.Sprintf(" over %.0f min", e.DurationMinutes)
		}
		parts = append(parts, s)
	}
	if e.DriftPct != nil {
		parts = append(parts, fmt.Sprintf("drift %.1f%%", *e.DriftPct))
	}
	if e.Slope != nil {
		parts = append(parts, fmt.Sprintf("slope %+.2f bpm/min", *e.Slope))
	}
	if e.Intensity != nil {
		parts = append(parts, fmt.Sprintf("intensity %.2f", *e.Intensity))
	}
	return strings.Join(parts, ", ")
}

func stageTarget(st threshold.Stage) string {
	switch {
	case st.SuggestedPace != nil:
		return *st.SuggestedPace + " /km"
	case st.SuggestedPower != nil:
		return fmt.Sprintf("%d W", *st.SuggestedPower)
	default:
		return "-"
	}
}
