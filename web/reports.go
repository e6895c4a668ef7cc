package web

import (
	"net/http"

	authcontext "github.com/nasermirzaei89/bazaar/auth/context"
	"github.com/nasermirzaei89/bazaar/moderation"
	"github.com/nasermirzaei89/bazaar/reports"
)

type fileReportRequest struct {
	ItemID   string           `json:"itemId"`
	ItemType reports.ItemType `json:"itemType"`
	Reason   string           `json:"reason"`
	Tags     []string         `json:"tags"`
}

func (h *Handler) HandleFileReport(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req fileReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.svc.Reports.FileReport(r.Context(), reports.FileReportRequest{
		ReporterID: principal.UserID,
		ItemID:     req.ItemID,
		ItemType:   req.ItemType,
		Reason:     req.Reason,
		Tags:       req.Tags,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, newReportView(report))
}

func (h *Handler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	query := r.URL.Query()

	result, err := h.svc.Reports.ListReports(
		r.Context(),
		authcontext.GetPrincipal(r.Context()),
		reports.Filter{
			Status:   reports.Status(query.Get("status")),
			ItemType: reports.ItemType(query.Get("itemType")),
			Tag:      query.Get("tag"),
		},
		page,
		limit,
	)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newReportPageView(result))
}

func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reports.GetReport(r.Context(), authcontext.GetPrincipal(r.Context()), r.PathValue("reportId"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newReportView(report))
}

type updateReportStatusRequest struct {
	Status reports.Status `json:"status"`
	Note   string         `json:"note"`
}

func (h *Handler) HandleUpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	var req updateReportStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.svc.Reports.UpdateStatus(r.Context(), authcontext.GetPrincipal(r.Context()), reports.UpdateStatusRequest{
		ReportID: r.PathValue("reportId"),
		Status:   req.Status,
		Note:     req.Note,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newReportView(report))
}

type appendReportNoteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) HandleAppendReportNote(w http.ResponseWriter, r *http.Request) {
	var req appendReportNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.svc.Reports.AppendNote(
		r.Context(),
		authcontext.GetPrincipal(r.Context()),
		r.PathValue("reportId"),
		req.Note,
	)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newReportView(report))
}

type executeActionRequest struct {
	Kind             moderation.ActionKind `json:"kind"`
	Reason           string                `json:"reason"`
	MuteDurationDays *int                  `json:"muteDurationDays"`
}

func (h *Handler) HandleExecuteAction(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req executeActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.svc.Moderation.Execute(r.Context(), moderation.ActionRequest{
		ReportID:         r.PathValue("reportId"),
		Kind:             req.Kind,
		AdminID:          principal.UserID,
		AdminTags:        principal.AdminTags,
		Reason:           req.Reason,
		MuteDurationDays: req.MuteDurationDays,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newReportView(report))
}
