package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sidang-go-api/internal/dto"
	"github.com/noah-isme/sidang-go-api/internal/handler"
)

type stubDashboardService struct {
	response dto.DashboardResponse
}

func (s stubDashboardService) Overview(context.Context, dto.DashboardFilter) (dto.DashboardResponse, error) {
	return s.response, nil
}

func (s stubDashboardService) Invalidate(context.Context) error {
	return nil
}

func TestEvaluationDashboardContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "evaluation_dashboard.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	scheduleDate := now.Add(24 * time.Hour)
	submittedAt := now.Add(-time.Hour)

	response := dto.DashboardResponse{
		Items: []dto.UnifiedEvaluation{
			{
				Kind:          "panelist",
				ID:            1,
				ScheduleID:    4,
				EvaluatorID:   9,
				AssigneeRole:  "panelist",
				Status:        "submitted",
				SubmittedAt:   &submittedAt,
				CreatedAt:     now.Add(-48 * time.Hour),
				GroupName:     "Group Alpha",
				ScheduleDate:  &scheduleDate,
				Room:          "R-101",
				EvaluatorName: "Dr. Sari",
				FlowLabel:     "panelist evaluation",
			},
			{
				Kind:         "student",
				ID:           1,
				ScheduleID:   4,
				EvaluatorID:  31,
				AssigneeRole: "student",
				Status:       "pending",
				CreatedAt:    now.Add(-24 * time.Hour),
				GroupName:    "Group Alpha",
				FlowLabel:    "student evaluation",
			},
		},
		Groups: []dto.DashboardGroup{
			{
				Name: "Group Alpha",
				Items: []dto.UnifiedEvaluation{
					{
						Kind:         "student",
						ID:           1,
						ScheduleID:   4,
						EvaluatorID:  31,
						AssigneeRole: "student",
						Status:       "pending",
						CreatedAt:    now.Add(-24 * time.Hour),
						GroupName:    "Group Alpha",
						FlowLabel:    "student evaluation",
					},
				},
			},
		},
		Total:       2,
		CacheHit:    true,
		GeneratedAt: now,
	}

	dashboardHandler := handler.NewDashboardHandler(stubDashboardService{response: response}, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/admin/evaluations", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "admin")
		return c.Next()
	})
	dashboardHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/evaluations?grouped=true", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
