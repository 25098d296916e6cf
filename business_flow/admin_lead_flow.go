// Package businessflow contains the core business logic and use cases for the download gate
package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/devmy/leadgate/app/dto"
	"github.com/devmy/leadgate/models"
	"github.com/devmy/leadgate/repository"
	"github.com/devmy/leadgate/utils"
	"github.com/xuri/excelize/v2"
)

// AdminLeadFlow is the admin reporting surface over collected leads
type AdminLeadFlow interface {
	ListLeads(ctx context.Context, req *dto.AdminListLeadsRequest) (*dto.AdminListLeadsResponse, error)
	ExportLeadsCSV(ctx context.Context, metadata *ClientMetadata) (string, []byte, error)
	ExportLeadsXLSX(ctx context.Context, metadata *ClientMetadata) (string, []byte, error)
}

// AdminLeadFlowImpl implements AdminLeadFlow
type AdminLeadFlowImpl struct {
	leadRepo  repository.LeadRepository
	eventRepo repository.DownloadEventRepository
	auditRepo repository.AuditLogRepository
}

func NewAdminLeadFlow(leadRepo repository.LeadRepository, eventRepo repository.DownloadEventRepository, auditRepo repository.AuditLogRepository) AdminLeadFlow {
	return &AdminLeadFlowImpl{
		leadRepo:  leadRepo,
		eventRepo: eventRepo,
		auditRepo: auditRepo,
	}
}

// ListLeads returns a page of leads, newest first, with resolved download info
func (f *AdminLeadFlowImpl) ListLeads(ctx context.Context, req *dto.AdminListLeadsRequest) (*dto.AdminListLeadsResponse, error) {
	page := 1
	pageSize := 25
	if req != nil {
		if req.Page < 0 {
			return nil, NewBusinessError("VALIDATION_ERROR", "page must be at least 1", ErrInvalidPage)
		}
		if req.PageSize < 0 || req.PageSize > 100 {
			return nil, NewBusinessError("VALIDATION_ERROR", "page size must be between 1 and 100", ErrInvalidPageSize)
		}
		if req.Page > 0 {
			page = req.Page
		}
		if req.PageSize > 0 {
			pageSize = req.PageSize
		}
	}

	total, err := f.leadRepo.Count(ctx, models.LeadFilter{})
	if err != nil {
		return nil, NewBusinessError("FETCH_LEADS_FAILED", "Failed to count leads", err)
	}

	leads, err := f.leadRepo.ByFilter(ctx, models.LeadFilter{}, "created_at DESC, id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("FETCH_LEADS_FAILED", "Failed to fetch leads", err)
	}

	items := make([]dto.AdminLeadRowDTO, 0, len(leads))
	for _, lead := range leads {
		row, err := f.buildLeadRow(ctx, lead)
		if err != nil {
			return nil, err
		}
		items = append(items, row)
	}

	return &dto.AdminListLeadsResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

var leadExportHeader = []string{
	"id",
	"name",
	"email",
	"company",
	"source_page",
	"primary_pdf",
	"other_pdfs",
	"total_downloads",
	"consent_given",
	"ip_address",
	"user_agent",
	"created_at",
}

// ExportLeadsCSV renders all leads as CSV. The output starts with a UTF-8
// BOM so Excel detects the encoding.
func (f *AdminLeadFlowImpl) ExportLeadsCSV(ctx context.Context, metadata *ClientMetadata) (string, []byte, error) {
	rows, err := f.exportRows(ctx)
	if err != nil {
		return "", nil, err
	}

	buf := &bytes.Buffer{}
	buf.Write([]byte{0xEF, 0xBB, 0xBF}) // UTF-8 BOM for Excel
	w := csv.NewWriter(buf)

	if err := w.Write(leadExportHeader); err != nil {
		return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV header", err)
	}
	for _, record := range rows {
		if err := w.Write(record); err != nil {
			return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to flush CSV", err)
	}

	f.auditExport(ctx, len(rows), "csv", metadata)

	filename := fmt.Sprintf("leads_%s.csv", utils.UTCNow().Format("2006-01-02"))
	return filename, buf.Bytes(), nil
}

// ExportLeadsXLSX renders all leads as a single-sheet Excel workbook
func (f *AdminLeadFlowImpl) ExportLeadsXLSX(ctx context.Context, metadata *ClientMetadata) (string, []byte, error) {
	rows, err := f.exportRows(ctx)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Leads"
	xl.SetSheetName(xl.GetSheetName(0), sheet)
	_ = xl.SetSheetRow(sheet, "A1", &leadExportHeader)

	for ri, record := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	f.auditExport(ctx, len(rows), "xlsx", metadata)

	filename := fmt.Sprintf("leads_%s.xlsx", utils.UTCNow().Format("2006-01-02"))
	return filename, buf.Bytes(), nil
}

func (f *AdminLeadFlowImpl) exportRows(ctx context.Context) ([][]string, error) {
	leads, err := f.leadRepo.ByFilter(ctx, models.LeadFilter{}, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("FETCH_LEADS_FAILED", "Failed to fetch leads", err)
	}

	records := make([][]string, 0, len(leads))
	for _, lead := range leads {
		row, err := f.buildLeadRow(ctx, lead)
		if err != nil {
			return nil, err
		}

		records = append(records, []string{
			strconv.FormatUint(uint64(row.ID), 10),
			row.Name,
			row.Email,
			row.Company,
			row.SourceURL,
			row.PrimaryPdf,
			joinPdfs(row.OtherPdfs),
			strconv.FormatInt(row.TotalDownloads, 10),
			strconv.FormatBool(row.ConsentGiven),
			row.IPAddress,
			row.UserAgent,
			row.CreatedAt,
		})
	}

	return records, nil
}

func (f *AdminLeadFlowImpl) buildLeadRow(ctx context.Context, lead *models.Lead) (dto.AdminLeadRowDTO, error) {
	events, err := f.eventRepo.ListByLead(ctx, lead.ID)
	if err != nil {
		return dto.AdminLeadRowDTO{}, NewBusinessError("FETCH_EVENTS_FAILED", "Failed to fetch download events", err)
	}

	pdfs := lead.DownloadedPdfList()
	primary := ResolvePrimaryPdf(lead, events)

	primaryKey := utils.ComparisonKey(primary)
	others := make([]string, 0, len(pdfs))
	for _, pdf := range pdfs {
		if utils.ComparisonKey(pdf) != primaryKey {
			others = append(others, pdf)
		}
	}

	// Leads imported before event logging existed have an empty log but a
	// populated pdf list; count that list so the column is never misleading.
	total := int64(len(events))
	if total == 0 && len(pdfs) > 0 {
		total = int64(len(pdfs))
	}

	row := dto.AdminLeadRowDTO{
		ID:             lead.ID,
		UUID:           lead.UUID.String(),
		Name:           lead.Name,
		Email:          lead.Email,
		Company:        lead.Company,
		SourceURL:      lead.SourceURL,
		PrimaryPdf:     primary,
		OtherPdfs:      others,
		TotalDownloads: total,
		ConsentGiven:   utils.IsTrue(lead.ConsentGiven),
		CreatedAt:      lead.CreatedAt.UTC().Format(time.RFC3339),
	}
	if lead.IPAddress != nil {
		row.IPAddress = *lead.IPAddress
	}
	if lead.UserAgent != nil {
		row.UserAgent = *lead.UserAgent
	}

	return row, nil
}

func (f *AdminLeadFlowImpl) auditExport(ctx context.Context, count int, format string, metadata *ClientMetadata) {
	desc := fmt.Sprintf("exported %d leads as %s", count, format)
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	_ = f.auditRepo.Save(ctx, &models.AuditLog{
		Action:      models.AuditActionLeadsExported,
		Description: &desc,
		Success:     utils.ToPtr(true),
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	})
}

func joinPdfs(pdfs []string) string {
	out := ""
	for i, p := range pdfs {
		if i > 0 {
			out += "; "
		}
		out += p
	}
	return out
}
