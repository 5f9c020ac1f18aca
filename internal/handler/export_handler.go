package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/somchai/helpdesk/internal/backend"
	"github.com/somchai/helpdesk/internal/middleware"
	"github.com/somchai/helpdesk/internal/model"
)

// ExportHandler は管理者向けのxlsxエクスポートを提供する。
// ルーティング側でRequireRole(ADMIN)とエクスポート専用レート制限を適用する。
type ExportHandler struct {
	repairs RepairAPI
	loans   LoanAPI
}

// NewExportHandler はExportHandlerを生成する。
func NewExportHandler(repairs RepairAPI, loans LoanAPI) *ExportHandler {
	return &ExportHandler{
		repairs: repairs,
		loans:   loans,
	}
}

// Export は修理チケットと貸出記録をxlsxワークブックとして出力する。
// GET /api/admin/export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	tickets, err := h.repairs.ListRepairs(r.Context(), sess.Token, backend.RepairFilter{})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	loans, err := h.loans.ListLoans(r.Context(), sess.Token, backend.LoanFilter{})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	f, err := buildWorkbook(tickets, loans)
	if err != nil {
		slog.Error("failed to build export workbook", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewBackendError(""))
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("helpdesk-export-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := f.Write(w); err != nil {
		// ヘッダー送信後の失敗はログのみ
		slog.Error("failed to write export workbook", slog.String("error", err.Error()))
	}
}

// buildWorkbook は修理シートと貸出シートを持つワークブックを組み立てる。
func buildWorkbook(tickets []model.RepairTicket, loans []model.Loan) (*excelize.File, error) {
	f := excelize.NewFile()

	const repairSheet = "Repairs"
	if err := f.SetSheetName("Sheet1", repairSheet); err != nil {
		return nil, err
	}

	repairHeaders := []any{"ID", "Title", "Status", "Priority", "Reporter", "Department", "Created At"}
	if err := f.SetSheetRow(repairSheet, "A1", &repairHeaders); err != nil {
		return nil, err
	}
	for i, t := range tickets {
		row := []any{
			t.ID, t.Title, string(t.Status), t.Priority,
			t.ReporterName, t.DepartmentID, t.CreatedAt.Format(time.RFC3339),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(repairSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	const loanSheet = "Loans"
	if _, err := f.NewSheet(loanSheet); err != nil {
		return nil, err
	}
	loanHeaders := []any{"ID", "Equipment", "Borrower", "Status", "Borrowed At", "Due At", "Returned At"}
	if err := f.SetSheetRow(loanSheet, "A1", &loanHeaders); err != nil {
		return nil, err
	}
	for i, l := range loans {
		returnedAt := ""
		if l.ReturnedAt != nil {
			returnedAt = l.ReturnedAt.Format(time.RFC3339)
		}
		row := []any{
			l.ID, l.EquipmentName, l.BorrowerName, l.Status,
			l.BorrowedAt.Format(time.RFC3339), l.DueAt.Format(time.RFC3339), returnedAt,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(loanSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}
