package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/domain/planning"
	"github.com/alchemorsel/cardapio/internal/ports/inbound"
	apperrors "github.com/alchemorsel/cardapio/pkg/errors"
)

// APIHandlers handles JSON API requests
type APIHandlers struct {
	planner inbound.PlannerService
	logger  *zap.Logger
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(planner inbound.PlannerService, logger *zap.Logger) *APIHandlers {
	return &APIHandlers{
		planner: planner,
		logger:  logger.Named("api"),
	}
}

// NutritionResponse is the body of POST /nutrition
type NutritionResponse struct {
	Targets       nutrition.Targets `json:"targets"`
	BMI           float64           `json:"bmi"`
	BMICategory   string            `json:"bmiCategory"`
	MacroOverflow bool              `json:"macroOverflow"`
}

// PlanResponse is the body of POST /plans. Week is the category-organised
// view the web page shows.
type PlanResponse struct {
	planning.Result
	Week mealplan.Week `json:"week"`
}

// Register mounts the API routes on group. generate runs before plan
// generation, which is the only route that reaches the language model.
func (h *APIHandlers) Register(group *gin.RouterGroup, generate ...gin.HandlerFunc) {
	group.POST("/nutrition", h.CalculateNutrition)
	group.POST("/plans", append(generate, h.GeneratePlan)...)
	group.POST("/reports", h.RenderReport)
}

// NotFound answers unknown API routes with an ErrorResponse
func (h *APIHandlers) NotFound(c *gin.Context) {
	h.respondError(c, apperrors.NewNotFoundError("route "+c.Request.Method+" "+c.Request.URL.Path))
}

// CalculateNutrition handles POST /nutrition
func (h *APIHandlers) CalculateNutrition(c *gin.Context) {
	var profile nutrition.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.respondError(c, apperrors.NewBadRequestError("Invalid JSON body").WithCause(err))
		return
	}

	targets, err := h.planner.Calculate(profile)
	if err != nil {
		h.respondError(c, err)
		return
	}

	bmi := nutrition.CalculateBMI(profile.Weight, profile.Height)
	c.JSON(http.StatusOK, NutritionResponse{
		Targets:       targets,
		BMI:           bmi,
		BMICategory:   nutrition.BMICategory(bmi),
		MacroOverflow: targets.MacroOverflow(),
	})
}

// GeneratePlan handles POST /plans. It blocks until both generators finish.
func (h *APIHandlers) GeneratePlan(c *gin.Context) {
	var profile nutrition.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.respondError(c, apperrors.NewBadRequestError("Invalid JSON body").WithCause(err))
		return
	}

	result, err := h.planner.Generate(c.Request.Context(), profile)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PlanResponse{
		Result: *result,
		Week:   mealplan.OrganizeWeek(result.Recipes),
	})
}

// RenderReport handles POST /reports with a previously generated plan
func (h *APIHandlers) RenderReport(c *gin.Context) {
	var result planning.Result
	if err := c.ShouldBindJSON(&result); err != nil {
		h.respondError(c, apperrors.NewBadRequestError("Invalid JSON body").WithCause(err))
		return
	}

	if err := result.Profile.Validate(); err != nil {
		h.respondError(c, apperrors.FromValidator(err))
		return
	}
	if len(result.Recipes) == 0 || len(result.Fitness.Exercises) == 0 {
		h.respondError(c, apperrors.NewValidationError("recipes and fitness exercises are required"))
		return
	}

	var buf bytes.Buffer
	file, err := h.planner.RenderReport(result, &buf)
	if err != nil {
		h.respondError(c, err)
		return
	}

	WriteAttachment(c.Writer, file, buf.Bytes())
}

// respondError writes err as an ErrorResponse with the status of its code
func (h *APIHandlers) respondError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err, "request failed")
	_ = c.Error(err)

	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("API request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(appErr.StatusCode(), apperrors.ToErrorResponse(appErr, chimiddleware.GetReqID(c.Request.Context())))
}
