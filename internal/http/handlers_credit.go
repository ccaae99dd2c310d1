package http

import (
	"net/http"
	"strconv"
	"time"

	"credipart/internal/core"
	"credipart/internal/services"
)

// createCreditRequest is the POST /api/credits payload. Monetary amounts
// are decimal strings ("12000.00") to keep cents exact.
type createCreditRequest struct {
	Amount         string  `json:"amount"`
	InterestRate   float64 `json:"interest_rate"`
	DurationMonths int     `json:"duration_months"`
	Fees           string  `json:"fees"`
	StartMonth     string  `json:"start_month"` // "2025-03"
	ParticipantIDs []int64 `json:"participant_ids"`
}

type creditResponse struct {
	ID             int64   `json:"id"`
	Amount         string  `json:"amount"`
	TotalAmount    string  `json:"total_amount"`
	MonthlyPayment string  `json:"monthly_payment"`
	DurationMonths int     `json:"duration_months"`
	InterestRate   float64 `json:"interest_rate"`
	Fees           string  `json:"fees"`
	StartMonth     string  `json:"start_month"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

type installmentResponse struct {
	ID            int64  `json:"id"`
	CreditID      int64  `json:"credit_id"`
	ParticipantID int64  `json:"participant_id"`
	Amount        string `json:"amount"`
	DueMonth      string `json:"due_month"`
	Status        string `json:"status"`
}

type creditDetailResponse struct {
	Credit       creditResponse        `json:"credit"`
	Installments []installmentResponse `json:"installments"`
	// PaymentMonths is the distinct ordered list of due months, one entry
	// per month regardless of how many participants share it.
	PaymentMonths []string `json:"payment_months"`
}

func toCreditResponse(c core.Credit) creditResponse {
	resp := creditResponse{
		ID:             c.ID,
		Amount:         c.Amount.String(),
		TotalAmount:    c.TotalAmount.String(),
		MonthlyPayment: c.MonthlyPayment.String(),
		DurationMonths: c.DurationMonths,
		InterestRate:   c.InterestRate,
		Fees:           c.Fees.String(),
		StartMonth:     c.StartMonth.String(),
	}
	if !c.CreatedAt.IsZero() {
		resp.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func toDetailResponse(d services.CreditDetail) creditDetailResponse {
	resp := creditDetailResponse{
		Credit:        toCreditResponse(d.Credit),
		Installments:  make([]installmentResponse, 0, len(d.Installments)),
		PaymentMonths: make([]string, 0, d.Credit.DurationMonths),
	}
	seen := make(map[string]bool, d.Credit.DurationMonths)
	for _, inst := range d.Installments {
		resp.Installments = append(resp.Installments, toInstallmentResponse(inst))
		if month := inst.DueMonth.String(); !seen[month] {
			seen[month] = true
			resp.PaymentMonths = append(resp.PaymentMonths, month)
		}
	}
	return resp
}

func toInstallmentResponse(inst core.Installment) installmentResponse {
	return installmentResponse{
		ID:            inst.ID,
		CreditID:      inst.CreditID,
		ParticipantID: inst.ParticipantID,
		Amount:        inst.Amount.String(),
		DueMonth:      inst.DueMonth.String(),
		Status:        string(inst.Status),
	}
}

func (s *Server) handleCreateCredit(w http.ResponseWriter, r *http.Request) {
	var req createCreditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	principal, err := core.ParsePositiveCents(req.Amount)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	var fees int64
	if req.Fees != "" {
		fees, err = core.ParseCents(req.Fees)
		if err != nil || fees < 0 {
			writeError(w, r, http.StatusUnprocessableEntity, "invalid fees")
			return
		}
	}
	startMonth, err := core.ParseYearMonth(req.StartMonth)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid start_month, want YYYY-MM")
		return
	}

	detail, err := s.credits.CreateCredit(r.Context(), core.LoanTerms{
		Principal:         core.Money{Cents: principal},
		AnnualRatePercent: req.InterestRate,
		DurationMonths:    req.DurationMonths,
		Fees:              core.Money{Cents: fees},
		StartMonth:        startMonth,
		ParticipantIDs:    req.ParticipantIDs,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDetailResponse(detail))
}

func (s *Server) handleListCredits(w http.ResponseWriter, r *http.Request) {
	participantID, err := queryInt64(r, "participant_id")
	if err != nil || participantID <= 0 {
		writeError(w, r, http.StatusBadRequest, "participant_id query parameter required")
		return
	}

	credits, err := s.credits.ListCreditsByParticipant(r.Context(), participantID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]creditResponse, 0, len(credits))
	for _, c := range credits {
		out = append(out, toCreditResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCredit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid credit id")
		return
	}
	detail, err := s.credits.GetCredit(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponse(detail))
}

func (s *Server) handleDeleteCredit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid credit id")
		return
	}
	if err := s.credits.DeleteCredit(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid installment id")
		return
	}
	inst, err := s.credits.MarkInstallmentPaid(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallmentResponse(inst))
}

// handleListDueInstallments returns unpaid installments due up to the
// given month (default: the current month).
func (s *Server) handleListDueInstallments(w http.ResponseWriter, r *http.Request) {
	upTo := core.YearMonthOf(time.Now())
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := core.ParseYearMonth(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid month, want YYYY-MM")
			return
		}
		upTo = parsed
	}
	var participantID int64
	if v := r.URL.Query().Get("participant_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, http.StatusBadRequest, "invalid participant_id")
			return
		}
		participantID = id
	}

	due, err := s.credits.ListDueInstallments(r.Context(), upTo, participantID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]installmentResponse, 0, len(due))
	for _, inst := range due {
		out = append(out, toInstallmentResponse(inst))
	}
	writeJSON(w, http.StatusOK, out)
}

type participantResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.credits.ListParticipants(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, participantResponse{ID: p.ID, Username: p.Username})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.credits.CreateParticipant(r.Context(), req.Username)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, participantResponse{ID: p.ID, Username: p.Username})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func queryInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
}
