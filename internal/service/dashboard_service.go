package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/dto"
	"github.com/noah-isme/sidang-go-api/internal/repository"
)

const (
	dashboardCacheKey = "dashboard:evaluations"

	groupNameUnassigned = "Unassigned Group"
	groupNameUnknown    = "Unknown Group"

	scheduleDateLayout = "02 Jan 2006"
)

// DashboardService composes the unified evaluation view for the admin
// dashboard. The unfiltered merged list is cached; filters and grouping
// are applied per request on top of it.
type DashboardService interface {
	Overview(ctx context.Context, filter dto.DashboardFilter) (dto.DashboardResponse, error)
	Invalidate(ctx context.Context) error
}

type dashboardService struct {
	panelists repository.PanelistEvaluationRepository
	students  repository.StudentEvaluationRepository
	schedules repository.ScheduleRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewDashboardService constructs the dashboard service. cache may be
// nil; every request then recomputes the merged list.
func NewDashboardService(
	panelists repository.PanelistEvaluationRepository,
	students repository.StudentEvaluationRepository,
	schedules repository.ScheduleRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger zerolog.Logger,
) DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &dashboardService{
		panelists: panelists,
		students:  students,
		schedules: schedules,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger.With().Str("component", "dashboard_service").Logger(),
		now:       time.Now,
	}
}

func (s *dashboardService) Overview(ctx context.Context, filter dto.DashboardFilter) (dto.DashboardResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.DashboardResponse{}, err
	}

	items, cacheHit, err := s.loadUnified(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	if err := s.resolveGroupNames(ctx, items); err != nil {
		return dto.DashboardResponse{}, err
	}

	items = applyStatusFilter(items, filter.Status)
	items = applyQueryFilter(items, filter.Query)

	response := dto.DashboardResponse{
		Items:       items,
		Total:       len(items),
		CacheHit:    cacheHit,
		GeneratedAt: s.now().UTC(),
	}
	if filter.Grouped {
		response.Groups = groupByName(items)
	}
	return response, nil
}

// Invalidate drops the cached merged list so the next read recomputes
// it. Assignment and lifecycle operations call this after each write.
func (s *dashboardService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, dashboardCacheKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// loadUnified returns the merged, createdAt-descending unified list,
// serving from cache when possible.
func (s *dashboardService) loadUnified(ctx context.Context) ([]dto.UnifiedEvaluation, bool, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, dashboardCacheKey).Result()
		if err == nil {
			var items []dto.UnifiedEvaluation
			if err := json.Unmarshal([]byte(cached), &items); err == nil {
				return items, true, nil
			}
			s.logger.Warn().Err(err).Msg("discarding undecodable dashboard cache entry")
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("dashboard cache read failed")
		}
	}

	panelistEvals, err := s.panelists.List(ctx)
	if err != nil {
		return nil, false, err
	}
	studentEvals, err := s.students.List(ctx)
	if err != nil {
		return nil, false, err
	}

	panelistItems := make([]dto.UnifiedEvaluation, 0, len(panelistEvals))
	for _, evaluation := range panelistEvals {
		panelistItems = append(panelistItems, dto.NewUnifiedFromPanelist(evaluation))
	}
	studentItems := make([]dto.UnifiedEvaluation, 0, len(studentEvals))
	for _, evaluation := range studentEvals {
		studentItems = append(studentItems, dto.NewUnifiedFromStudent(evaluation))
	}

	items := mergeUnified(panelistItems, studentItems)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if s.cache != nil {
		if encoded, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("dashboard cache write failed")
			}
		}
	}

	return items, false, nil
}

// mergeUnified concatenates batches while deduplicating on the
// kind-qualified key; the first occurrence of a key wins.
func mergeUnified(batches ...[]dto.UnifiedEvaluation) []dto.UnifiedEvaluation {
	seen := make(map[string]struct{})
	var merged []dto.UnifiedEvaluation
	for _, batch := range batches {
		for _, item := range batch {
			if _, ok := seen[item.Key()]; ok {
				continue
			}
			seen[item.Key()] = struct{}{}
			merged = append(merged, item)
		}
	}
	return merged
}

// resolveGroupNames fills in missing group names from the schedule's
// group, memoised per schedule. A schedule without a group resolves to
// a fixed placeholder so grouping stays total.
func (s *dashboardService) resolveGroupNames(ctx context.Context, items []dto.UnifiedEvaluation) error {
	memo := make(map[uint]string)
	for i := range items {
		if items[i].GroupName != "" {
			continue
		}
		name, ok := memo[items[i].ScheduleID]
		if !ok {
			name = s.lookupGroupName(ctx, items[i].ScheduleID)
			memo[items[i].ScheduleID] = name
		}
		items[i].GroupName = name
	}
	return nil
}

func (s *dashboardService) lookupGroupName(ctx context.Context, scheduleID uint) string {
	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return groupNameUnknown
		}
		s.logger.Warn().Err(err).Uint("schedule_id", scheduleID).Msg("schedule lookup failed")
		return groupNameUnknown
	}
	if schedule.GroupTitle != "" {
		return schedule.GroupTitle
	}
	if schedule.GroupID == nil {
		return groupNameUnassigned
	}
	group, err := s.schedules.GetGroupByID(ctx, *schedule.GroupID)
	if err != nil {
		return groupNameUnknown
	}
	return group.Name
}

func applyStatusFilter(items []dto.UnifiedEvaluation, status string) []dto.UnifiedEvaluation {
	if status == "" || status == "all" {
		return items
	}
	filtered := make([]dto.UnifiedEvaluation, 0, len(items))
	for _, item := range items {
		if item.Status == status {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// applyQueryFilter keeps items whose display fields contain the query,
// case-insensitively. The searched surface mirrors what the dashboard
// renders: group, schedule date, room, evaluator, role, flow label, and
// status.
func applyQueryFilter(items []dto.UnifiedEvaluation, query string) []dto.UnifiedEvaluation {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	filtered := make([]dto.UnifiedEvaluation, 0, len(items))
	for _, item := range items {
		if matchesQuery(item, query) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func matchesQuery(item dto.UnifiedEvaluation, query string) bool {
	fields := []string{
		item.GroupName,
		item.Room,
		item.EvaluatorName,
		item.AssigneeRole,
		item.FlowLabel,
		item.Status,
	}
	if item.ScheduleDate != nil {
		fields = append(fields, item.ScheduleDate.Format(scheduleDateLayout))
	}
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// groupByName buckets items under their resolved group name, keeping
// group order by first appearance and ordering each bucket by schedule
// date, newest first, with creation time as the tiebreaker.
func groupByName(items []dto.UnifiedEvaluation) []dto.DashboardGroup {
	index := make(map[string]int)
	var groups []dto.DashboardGroup
	for _, item := range items {
		i, ok := index[item.GroupName]
		if !ok {
			i = len(groups)
			index[item.GroupName] = i
			groups = append(groups, dto.DashboardGroup{Name: item.GroupName})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	for i := range groups {
		sort.SliceStable(groups[i].Items, func(a, b int) bool {
			left, right := groups[i].Items[a], groups[i].Items[b]
			switch {
			case left.ScheduleDate != nil && right.ScheduleDate != nil:
				if !left.ScheduleDate.Equal(*right.ScheduleDate) {
					return left.ScheduleDate.After(*right.ScheduleDate)
				}
			case left.ScheduleDate != nil:
				return true
			case right.ScheduleDate != nil:
				return false
			}
			return left.CreatedAt.After(right.CreatedAt)
		})
	}
	return groups
}
