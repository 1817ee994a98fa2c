// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/kapustota/btlz-wb-test-vasily-b/app/dto"
	"github.com/kapustota/btlz-wb-test-vasily-b/app/scheduler"
	businessflow "github.com/kapustota/btlz-wb-test-vasily-b/business_flow"
)

// TariffHandlerInterface defines the contract for tariff handlers
type TariffHandlerInterface interface {
	GetCurrentRates(c fiber.Ctx) error
	ExportCurrentRates(c fiber.Ctx) error
	RunBatch(c fiber.Ctx) error
}

// TariffHandler handles tariff-related HTTP requests
type TariffHandler struct {
	tariffFlow businessflow.TariffFlow
	scheduler  *scheduler.TariffScheduler
	validator  *validator.Validate
}

// NewTariffHandler creates a new tariff handler
func NewTariffHandler(tariffFlow businessflow.TariffFlow, sched *scheduler.TariffScheduler) *TariffHandler {
	return &TariffHandler{
		tariffFlow: tariffFlow,
		scheduler:  sched,
		validator:  validator.New(),
	}
}

func (h *TariffHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TariffHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetCurrentRates returns the currently active box rates
// @Summary Current box rates
// @Description List all currently active (warehouse, period, rate) triples, ordered by storage coefficient then region
// @Tags Tariffs
// @Produce json
// @Param geo_name query string false "Filter by region name"
// @Param limit query int false "Maximum rows returned"
// @Success 200 {object} dto.APIResponse{data=dto.ListCurrentRatesResponse} "Current rates"
// @Failure 400 {object} dto.APIResponse "Invalid query"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/tariffs/current [get]
func (h *TariffHandler) GetCurrentRates(c fiber.Ctx) error {
	var query dto.CurrentRatesQuery
	if err := c.Bind().Query(&query); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}
	if err := h.validator.Struct(&query); err != nil {
		var validationErrors []string
		for _, ve := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, ve.Error())
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.tariffFlow.ListCurrentRates(c.Context())
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list current rates", "CURRENT_RATES_LIST_FAILED", err.Error())
	}

	if query.GeoName != "" {
		filtered := result.Items[:0:0]
		for _, item := range result.Items {
			if item.GeoName == query.GeoName {
				filtered = append(filtered, item)
			}
		}
		result.Items = filtered
	}
	if query.Limit > 0 && len(result.Items) > query.Limit {
		result.Items = result.Items[:query.Limit]
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ExportCurrentRates streams the current rates as an xlsx workbook
// @Summary Export current box rates
// @Description Download the currently active rates as an Excel workbook
// @Tags Tariffs
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "Workbook"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/tariffs/export [get]
func (h *TariffHandler) ExportCurrentRates(c fiber.Ctx) error {
	filename, workbook, err := h.tariffFlow.ExportCurrentRates(c.Context())
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export current rates", "CURRENT_RATES_EXPORT_FAILED", err.Error())
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(workbook)
}

// RunBatch triggers one fetch+reconcile+publish cycle outside the schedule
// @Summary Run a tariff batch now
// @Description Fetch the upstream snapshot, reconcile it, and republish the active rates
// @Tags Tariffs
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.RunBatchResponse} "Batch summary"
// @Failure 409 {object} dto.APIResponse "A batch is already running"
// @Failure 502 {object} dto.APIResponse "Upstream fetch or reconciliation failed"
// @Router /api/v1/tariffs/run [post]
func (h *TariffHandler) RunBatch(c fiber.Ctx) error {
	summary, err := h.scheduler.RunNow(c.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrBatchInFlight) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A batch is already running", "BATCH_IN_FLIGHT", nil)
		}
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Batch run failed", "BATCH_RUN_FAILED", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Batch completed", dto.RunBatchResponse{
		Message: "Batch completed",
		Summary: *summary,
	})
}
