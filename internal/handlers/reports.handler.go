package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/internal/repository"
	xhttp "github.com/relieflink/report-gateway/pkg/http"
)

type DisasterReportReader interface {
	Get(ctx context.Context, id int64) (*model.DisasterReport, error)
	List(ctx context.Context, f model.ReportFilter) ([]*model.DisasterReport, int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type MissingPersonReportReader interface {
	Get(ctx context.Context, id int64) (*model.MissingPersonReport, error)
	List(ctx context.Context, f model.ReportFilter) ([]*model.MissingPersonReport, int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type AnimalRescueReportReader interface {
	Get(ctx context.Context, id int64) (*model.AnimalRescueReport, error)
	List(ctx context.Context, f model.ReportFilter) ([]*model.AnimalRescueReport, int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type ProcessingLogReader interface {
	List(ctx context.Context, f repository.ProcessingLogFilter) ([]*model.ProcessingLogEntry, int64, error)
}

// ReportsHandler is the triage read side: list and inspect stored
// reports, close them out, and review the processing audit trail.
type ReportsHandler struct {
	disasters DisasterReportReader
	missing   MissingPersonReportReader
	animals   AnimalRescueReportReader
	audit     ProcessingLogReader
}

func RegisterReportRoutes(e *router.Group, h *ReportsHandler) {
	e.GET("/reports/disasters", h.ListDisasters)
	e.GET("/reports/disasters/{id}", h.GetDisaster)
	e.PATCH("/reports/disasters/{id}/status", h.UpdateDisasterStatus)
	e.GET("/reports/missing-persons", h.ListMissingPersons)
	e.GET("/reports/missing-persons/{id}", h.GetMissingPerson)
	e.PATCH("/reports/missing-persons/{id}/status", h.UpdateMissingPersonStatus)
	e.GET("/reports/animal-rescues", h.ListAnimalRescues)
	e.GET("/reports/animal-rescues/{id}", h.GetAnimalRescue)
	e.PATCH("/reports/animal-rescues/{id}/status", h.UpdateAnimalRescueStatus)
	e.GET("/reports/audit", h.ListProcessingLog)
}

func NewReportsHandler(
	disasters DisasterReportReader,
	missing MissingPersonReportReader,
	animals AnimalRescueReportReader,
	audit ProcessingLogReader,
) *ReportsHandler {
	return &ReportsHandler{
		disasters: disasters,
		missing:   missing,
		animals:   animals,
		audit:     audit,
	}
}

type listReportsResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

type updateStatusRequest struct {
	State string `json:"state"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *ReportsHandler) ListDisasters(ctx *xhttp.RequestCtx) {
	f := parseReportFilter(ctx)
	items, total, err := h.disasters.List(ctx, f)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listReportsResponse[*model.DisasterReport]{Items: items, Total: total})
}

func (h *ReportsHandler) GetDisaster(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid id")
		return
	}
	report, err := h.disasters.Get(ctx, id)
	if err != nil {
		writeRepoError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, report)
}

func (h *ReportsHandler) UpdateDisasterStatus(ctx *xhttp.RequestCtx) {
	h.updateStatus(ctx, model.CategoryDisaster, h.disasters.UpdateStatus)
}

func (h *ReportsHandler) ListMissingPersons(ctx *xhttp.RequestCtx) {
	f := parseReportFilter(ctx)
	items, total, err := h.missing.List(ctx, f)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listReportsResponse[*model.MissingPersonReport]{Items: items, Total: total})
}

func (h *ReportsHandler) GetMissingPerson(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid id")
		return
	}
	report, err := h.missing.Get(ctx, id)
	if err != nil {
		writeRepoError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, report)
}

func (h *ReportsHandler) UpdateMissingPersonStatus(ctx *xhttp.RequestCtx) {
	h.updateStatus(ctx, model.CategoryMissingPerson, h.missing.UpdateStatus)
}

func (h *ReportsHandler) ListAnimalRescues(ctx *xhttp.RequestCtx) {
	f := parseReportFilter(ctx)
	items, total, err := h.animals.List(ctx, f)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listReportsResponse[*model.AnimalRescueReport]{Items: items, Total: total})
}

func (h *ReportsHandler) GetAnimalRescue(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid id")
		return
	}
	report, err := h.animals.Get(ctx, id)
	if err != nil {
		writeRepoError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, report)
}

func (h *ReportsHandler) UpdateAnimalRescueStatus(ctx *xhttp.RequestCtx) {
	h.updateStatus(ctx, model.CategoryAnimalRescue, h.animals.UpdateStatus)
}

func (h *ReportsHandler) ListProcessingLog(ctx *xhttp.RequestCtx) {
	var f repository.ProcessingLogFilter

	if v := query(ctx, "sender"); v != "" {
		f.SenderPhone = &v
	}
	if v := query(ctx, "success"); v != "" {
		ok := strings.EqualFold(v, "true")
		f.Success = &ok
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.audit.List(ctx, f)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listReportsResponse[*model.ProcessingLogEntry]{Items: items, Total: total})
}

// updateStatus moves a report between the open and closed lifecycle
// states. Callers send the state, not the stored label: each table keeps
// its historical status vocabulary and the category maps between them.
func (h *ReportsHandler) updateStatus(ctx *xhttp.RequestCtx, category model.Category, update func(context.Context, int64, string) error) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid id")
		return
	}

	var req updateStatusRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	var state model.LifecycleState
	switch strings.ToLower(strings.TrimSpace(req.State)) {
	case "open":
		state = model.StateOpen
	case "closed":
		state = model.StateClosed
	default:
		writeError(ctx, xhttp.StatusBadRequest, "state must be open or closed")
		return
	}

	status := category.StatusLabel(state)
	if err := update(ctx, id, status); err != nil {
		writeRepoError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]string{"status": status})
}

func parseReportFilter(ctx *xhttp.RequestCtx) model.ReportFilter {
	var f model.ReportFilter

	if v := query(ctx, "status"); v != "" {
		f.Status = &v
	}
	if v := query(ctx, "sender"); v != "" {
		f.Sender = &v
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}
	return f
}

func pathID(ctx *xhttp.RequestCtx) (int64, error) {
	raw, _ := ctx.UserValue("id").(string)
	return strconv.ParseInt(raw, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeRepoError(ctx *xhttp.RequestCtx, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(ctx, xhttp.StatusNotFound, err.Error())
		return
	}
	writeError(ctx, xhttp.StatusInternalServerError, err.Error())
}
