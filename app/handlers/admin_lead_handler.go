// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/devmy/leadgate/app/dto"
	businessflow "github.com/devmy/leadgate/business_flow"
	"github.com/devmy/leadgate/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AdminLeadHandlerInterface defines the contract for the admin lead reporting handlers
type AdminLeadHandlerInterface interface {
	ListLeads(c fiber.Ctx) error
	ExportLeadsCSV(c fiber.Ctx) error
	ExportLeadsXLSX(c fiber.Ctx) error
}

// AdminLeadHandler implements AdminLeadHandlerInterface
type AdminLeadHandler struct {
	flow      businessflow.AdminLeadFlow
	validator *validator.Validate
}

func NewAdminLeadHandler(flow businessflow.AdminLeadFlow) AdminLeadHandlerInterface {
	return &AdminLeadHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// ErrorResponse standard JSON error
func (h *AdminLeadHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// SuccessResponse standard JSON success
func (h *AdminLeadHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListLeads returns a page of collected leads
// @Summary List leads
// @Description List collected leads, newest first, with resolved download info
// @Tags Admin Leads
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.AdminListLeadsResponse} "Leads"
// @Failure 400 {object} dto.APIResponse "Invalid paging"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/admin/leads [get]
func (h *AdminLeadHandler) ListLeads(c fiber.Ctx) error {
	var req dto.AdminListLeadsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	resp, err := h.flow.ListLeads(h.createRequestContext(c, "/api/v1/admin/leads"), &req)
	if err != nil {
		log.Println("Lead listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list leads", "LIST_LEADS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Leads retrieved", resp)
}

// ExportLeadsCSV downloads all leads as a CSV file
// @Summary Export leads as CSV
// @Description Download every collected lead as a UTF-8 CSV (with BOM for Excel)
// @Tags Admin Leads
// @Produce text/csv
// @Success 200 {file} file "CSV file"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Export failed"
// @Router /api/v1/admin/leads/export/csv [get]
func (h *AdminLeadHandler) ExportLeadsCSV(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	filename, data, err := h.flow.ExportLeadsCSV(h.createRequestContext(c, "/api/v1/admin/leads/export/csv"), metadata)
	if err != nil {
		log.Println("Lead CSV export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export leads", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// ExportLeadsXLSX downloads all leads as an Excel workbook
// @Summary Export leads as Excel
// @Description Download every collected lead as a single-sheet XLSX workbook
// @Tags Admin Leads
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "XLSX file"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Export failed"
// @Router /api/v1/admin/leads/export/xlsx [get]
func (h *AdminLeadHandler) ExportLeadsXLSX(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	filename, data, err := h.flow.ExportLeadsXLSX(h.createRequestContext(c, "/api/v1/admin/leads/export/xlsx"), metadata)
	if err != nil {
		log.Println("Lead Excel export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export leads", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *AdminLeadHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 60*time.Second)
}

func (h *AdminLeadHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
