package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/auth"
	"github.com/memorialops/cemetery-gin/internal/service"
)

// ActionController 待审批操作控制器
type ActionController struct {
	submissionService service.SubmissionService
	reviewService     service.ReviewService
	queryService      service.QueryService
}

// NewActionController 创建待审批操作控制器
func NewActionController(
	submissionService service.SubmissionService,
	reviewService service.ReviewService,
	queryService service.QueryService,
) *ActionController {
	return &ActionController{
		submissionService: submissionService,
		reviewService:     reviewService,
		queryService:      queryService,
	}
}

// Check 审批要求预检查
// @Summary      检查操作类型是否需要审批
// @Description  提交前的 UI 侧预检查,策略查询失败按需要审批返回
// @Tags         审批操作
// @Produce      json
// @Param        action_type query string true "操作类型"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /actions/check [get]
// @Security     BearerAuth
func (c *ActionController) Check(ctx *gin.Context) {
	actionType := ctx.Query("action_type")
	if actionType == "" {
		Error(ctx, http.StatusBadRequest, "action_type is required", "")
		return
	}

	required, err := c.submissionService.CheckApprovalRequired(actionType)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, gin.H{"required": required})
}

// Submit 提交变更请求
// @Summary      提交待审批操作
// @Description  员工提交变更请求;免审类型走快速通道,同步执行并返回已批准记录
// @Tags         审批操作
// @Accept       json
// @Produce      json
// @Param        request body service.SubmitRequest true "变更请求"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /actions [post]
// @Security     BearerAuth
func (c *ActionController) Submit(ctx *gin.Context) {
	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	requesterID := ctx.GetString(auth.ContextUserID)
	requesterName := ctx.GetString(auth.ContextUserName)

	action, err := c.submissionService.Submit(ctx.Request.Context(), &req, requesterID, requesterName)
	if err != nil {
		// 快速通道执行失败:记录已落库,显式上报 executed=false
		if apperr.IsExecution(err) && action != nil {
			ctx.JSON(http.StatusBadGateway, ReviewResponse{
				Code:     http.StatusBadGateway,
				Message:  "submitted and approved, but execution failed and will be retried",
				Executed: false,
				Data:     action,
			})
			return
		}
		RespondError(ctx, err)
		return
	}

	Created(ctx, action)
}

// ListMine 查询本人提交的操作
// @Summary      查询我提交的操作
// @Description  员工查看自己提交的变更请求,status 可多值逗号分隔
// @Tags         审批操作
// @Produce      json
// @Param        status query string false "状态过滤,逗号分隔"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /actions/mine [get]
// @Security     BearerAuth
func (c *ActionController) ListMine(ctx *gin.Context) {
	requesterID := ctx.GetString(auth.ContextUserID)

	actions, err := c.queryService.ListMine(requesterID, splitStatuses(ctx.Query("status")))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, actions)
}

// List 管理端全量查询
// @Summary      查询全部待审批操作
// @Description  管理员查看审批队列,支持状态/类型/排序/增量过滤
// @Tags         审批操作
// @Produce      json
// @Param        status query string false "状态过滤,逗号分隔"
// @Param        action_type query string false "操作类型过滤"
// @Param        requested_by query string false "提交人过滤"
// @Param        sort_by query string false "排序字段" default(created_at)
// @Param        sort_order query string false "排序方向 asc/desc" default(desc)
// @Param        limit query int false "返回条数上限"
// @Param        changed_since query string false "增量查询时间点 (RFC3339)"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /actions [get]
// @Security     BearerAuth
func (c *ActionController) List(ctx *gin.Context) {
	opts := &service.ListOptions{
		Statuses:    splitStatuses(ctx.Query("status")),
		ActionType:  ctx.Query("action_type"),
		RequestedBy: ctx.Query("requested_by"),
		SortBy:      ctx.Query("sort_by"),
		SortOrder:   ctx.Query("sort_order"),
	}
	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			Error(ctx, http.StatusBadRequest, "invalid limit", "")
			return
		}
		opts.Limit = limit
	}
	if raw := ctx.Query("changed_since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(ctx, http.StatusBadRequest, "invalid changed_since, expected RFC3339", "")
			return
		}
		opts.ChangedSince = &since
	}

	actions, err := c.queryService.ListAll(opts)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, actions)
}

// Get 查询单条操作
// @Summary      获取操作详情
// @Description  管理员可查看任意记录,员工仅可查看本人提交的记录
// @Tags         审批操作
// @Produce      json
// @Param        id path string true "操作 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /actions/{id} [get]
// @Security     BearerAuth
func (c *ActionController) Get(ctx *gin.Context) {
	requesterID := ctx.GetString(auth.ContextUserID)
	if ctx.GetString(auth.ContextRole) == auth.RoleAdmin {
		requesterID = ""
	}

	action, err := c.queryService.Get(ctx.Param("id"), requesterID)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, action)
}

// Review 审核操作
// @Summary      审核待审批操作
// @Description  批准或驳回;批准后同步执行,执行失败时 executed=false 且审批不回滚
// @Tags         审批操作
// @Accept       json
// @Produce      json
// @Param        id path string true "操作 ID"
// @Param        request body service.ReviewRequest true "审核决定"
// @Success      200  {object}  ReviewResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /actions/{id}/review [post]
// @Security     BearerAuth
func (c *ActionController) Review(ctx *gin.Context) {
	var req service.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	adminID := ctx.GetString(auth.ContextUserID)
	result, err := c.reviewService.Review(ctx.Request.Context(), ctx.Param("id"), adminID, &req)
	if err != nil {
		if apperr.IsExecution(err) && result != nil {
			c.respondExecutionPending(ctx, result)
			return
		}
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, ReviewResponse{
		Code:     0,
		Message:  "success",
		Executed: result.Executed,
		Data:     result.Action,
	})
}

// Execute 手工重试执行
// @Summary      重试执行已批准的操作
// @Description  对 approved 未执行的记录补偿执行,已执行的记录幂等返回成功
// @Tags         审批操作
// @Produce      json
// @Param        id path string true "操作 ID"
// @Success      200  {object}  ReviewResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /actions/{id}/execute [post]
// @Security     BearerAuth
func (c *ActionController) Execute(ctx *gin.Context) {
	adminID := ctx.GetString(auth.ContextUserID)
	result, err := c.reviewService.ExecuteRetry(ctx.Request.Context(), ctx.Param("id"), adminID)
	if err != nil {
		if apperr.IsExecution(err) && result != nil {
			c.respondExecutionPending(ctx, result)
			return
		}
		RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, ReviewResponse{
		Code:     0,
		Message:  "success",
		Executed: result.Executed,
		Data:     result.Action,
	})
}

// respondExecutionPending 审批已生效但执行失败的结构化应答
func (c *ActionController) respondExecutionPending(ctx *gin.Context, result *service.ReviewResult) {
	message := "approved but execution failed, pending retry"
	ctx.JSON(http.StatusBadGateway, ReviewResponse{
		Code:     http.StatusBadGateway,
		Message:  message,
		Executed: false,
		Data:     result.Action,
	})
}

// splitStatuses 解析逗号分隔的状态过滤参数
func splitStatuses(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
