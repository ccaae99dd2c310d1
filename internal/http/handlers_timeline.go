package http

import (
	"net/http"
	"time"

	"credipart/internal/services"
	"credipart/internal/timeline"
)

type timelineRowResponse struct {
	ProjectID   int64   `json:"project_id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	StudyAmount string  `json:"study_amount"`
	RealExpense string  `json:"real_expense"`
	Offset      float64 `json:"offset_percent"`
	Width       float64 `json:"width_percent"`
	Color       string  `json:"color"`
	TextColor   string  `json:"text_color"`
}

type timelineResponse struct {
	Title       string                `json:"title"`
	Granularity string                `json:"granularity"`
	PeriodStart string                `json:"period_start"`
	PeriodEnd   string                `json:"period_end"`
	Prev        string                `json:"prev"`
	Next        string                `json:"next"`
	Labels      []string              `json:"labels"`
	Rows        []timelineRowResponse `json:"rows"`
}

// handleTimeline renders the Gantt view for ?date=YYYY-MM-DD&view=year|
// month|week. Both parameters default to today at year zoom. The response
// carries prev/next reference dates so clients navigate without date math.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	view := timeline.NewViewState(time.Now())

	if v := r.URL.Query().Get("view"); v != "" {
		g, err := timeline.ParseGranularity(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid view, want year, month or week")
			return
		}
		view = view.WithGranularity(g)
	}
	if v := r.URL.Query().Get("date"); v != "" {
		ref, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		view.Reference = ref.UTC()
	}

	built, err := s.timeline.BuildView(r.Context(), view)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTimelineResponse(built, view))
}

func toTimelineResponse(built services.TimelineView, view timeline.ViewState) timelineResponse {
	resp := timelineResponse{
		Title:       built.Title,
		Granularity: string(built.Granularity),
		PeriodStart: built.PeriodStart.String(),
		PeriodEnd:   built.PeriodEnd.String(),
		Prev:        view.Prev().Reference.Format("2006-01-02"),
		Next:        view.Next().Reference.Format("2006-01-02"),
		Labels:      built.Labels,
		Rows:        make([]timelineRowResponse, 0, len(built.Rows)),
	}
	for _, row := range built.Rows {
		resp.Rows = append(resp.Rows, timelineRowResponse{
			ProjectID:   row.ProjectID,
			Name:        row.Name,
			Status:      string(row.Status),
			StartDate:   row.StartDate.String(),
			EndDate:     row.EndDate.String(),
			StudyAmount: row.StudyAmount.String(),
			RealExpense: row.RealExpense.String(),
			Offset:      row.Offset,
			Width:       row.Width,
			Color:       row.Color,
			TextColor:   row.TextColor,
		})
	}
	return resp
}
