package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memorialops/cemetery-gin/internal/service"
)

// StatsController 审批统计控制器
type StatsController struct {
	statsService service.StatsService
}

// NewStatsController 创建审批统计控制器
func NewStatsController(statsService service.StatsService) *StatsController {
	return &StatsController{statsService: statsService}
}

// Get 获取审批统计
// @Summary      获取审批统计
// @Description  待审数量、今日批准/驳回、通过率与平均审核时长,每次实时计算
// @Tags         审批统计
// @Produce      json
// @Success      200  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /actions/stats [get]
// @Security     BearerAuth
func (c *StatsController) Get(ctx *gin.Context) {
	stats, err := c.statsService.GetApprovalStats()
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to compute approval stats", err.Error())
		return
	}
	Success(ctx, stats)
}
