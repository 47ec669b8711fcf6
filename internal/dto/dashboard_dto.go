package dto

import "time"

// DashboardGroup is a set of evaluations under one resolved group name,
// ordered by schedule date, newest first.
type DashboardGroup struct {
	Name  string              `json:"name"`
	Items []UnifiedEvaluation `json:"items"`
}

// DashboardResponse is the admin unified evaluation view.
type DashboardResponse struct {
	Items       []UnifiedEvaluation `json:"items"`
	Groups      []DashboardGroup    `json:"groups,omitempty"`
	Total       int                 `json:"total"`
	CacheHit    bool                `json:"cache_hit"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// DashboardFilter narrows the unified view.
type DashboardFilter struct {
	Status  string `query:"status" validate:"omitempty,oneof=all pending submitted locked"`
	Query   string `query:"q"`
	Grouped bool   `query:"grouped"`
}
