package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credipart/internal/cache"
	"credipart/internal/core"
	applog "credipart/internal/log"
	"credipart/internal/timeline"
)

// TimelineView is a fully laid out Gantt view, ready to serialize.
type TimelineView struct {
	Title       string
	Granularity timeline.Granularity
	PeriodStart core.Date
	PeriodEnd   core.Date // last day in view, inclusive
	Labels      []string
	Rows        []TimelineRow
}

// TimelineRow is one project bar: placement percentages plus display data.
type TimelineRow struct {
	ProjectID   int64
	Name        string
	Status      core.ProjectStatus
	StartDate   core.Date
	EndDate     core.Date
	StudyAmount core.Money
	RealExpense core.Money
	Offset      float64
	Width       float64
	Color       string
	TextColor   string
}

// TimelineService renders project timelines. Built views are cached per
// period until a project mutation purges them.
type TimelineService struct {
	store ProjectStore
	views *cache.LRUCache[TimelineView]
}

func NewTimelineService(store ProjectStore) *TimelineService {
	return &TimelineService{
		store: store,
		views: cache.NewLRUCache[TimelineView](32, 5*time.Minute),
	}
}

// Cache exposes the view cache for registration with a cache.Manager.
func (s *TimelineService) Cache() cache.Cleaner {
	return s.views
}

// Invalidate drops all cached views. ProjectService calls this on every
// project mutation.
func (s *TimelineService) Invalidate() {
	s.views.Purge()
}

// BuildView lays out every project overlapping the view period. Color index
// follows the project's position in the full list, so a bar keeps its color
// across navigation even when other projects scroll out of view. Projects
// whose end precedes their start are logged and skipped.
func (s *TimelineService) BuildView(ctx context.Context, view timeline.ViewState) (TimelineView, error) {
	key := viewKey(view)
	if cached, ok := s.views.Get(key); ok {
		return cached, nil
	}

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return TimelineView{}, fmt.Errorf("load projects: %w", err)
	}

	bounds := view.Bounds()
	built := TimelineView{
		Title:       view.Title(),
		Granularity: view.Granularity,
		PeriodStart: core.Date{Time: bounds.Start},
		PeriodEnd:   core.Date{Time: bounds.End.AddDate(0, 0, -1)},
		Labels:      timeline.SubIntervalLabels(bounds, view.Granularity),
		Rows:        make([]TimelineRow, 0, len(projects)),
	}

	for i, p := range projects {
		if p.EndDate.Before(p.StartDate.Time) {
			slog.WarnContext(ctx, "Project has end date before start date, skipping",
				applog.FieldProjectID, p.ID,
				"start", p.StartDate.String(),
				"end", p.EndDate.String())
			continue
		}
		placement := timeline.LayoutEntity(timeline.Entity{
			ID:    p.ID,
			Label: p.Name,
			Start: p.StartDate.Time,
			End:   p.EndDate.Time,
		}, bounds)
		if placement == nil {
			continue
		}
		color := timeline.Color(i)
		built.Rows = append(built.Rows, TimelineRow{
			ProjectID:   p.ID,
			Name:        p.Name,
			Status:      p.Status,
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
			StudyAmount: p.StudyAmount,
			RealExpense: p.RealExpense,
			Offset:      placement.OffsetPercent,
			Width:       placement.WidthPercent,
			Color:       color,
			TextColor:   timeline.ContrastColor(color),
		})
	}

	s.views.Set(key, built)
	return built, nil
}

func viewKey(view timeline.ViewState) string {
	return fmt.Sprintf("%s:%s", view.Reference.Format("2006-01-02"), view.Granularity)
}

var _ Invalidator = (*TimelineService)(nil)
