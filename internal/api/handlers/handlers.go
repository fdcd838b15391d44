package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/api/middleware"
	"github.com/spennies/spennies/internal/assistant"
	"github.com/spennies/spennies/internal/domain"
	"github.com/spennies/spennies/internal/jobs"
	"github.com/spennies/spennies/internal/store"
)

// ChatHandler exposes the conversational assistant.
type ChatHandler struct {
	assistant *assistant.Assistant
	log       zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(a *assistant.Assistant, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{assistant: a, log: log}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message  string `json:"message"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}

	userID := middleware.UserID(r.Context())
	result := h.assistant.HandleMessage(r.Context(), userID, req.Message, req.Language)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reply": result.Text,
		"tag":   result.Tag,
		"data":  result.Data,
	})
}

// ParseSMS handles POST /api/sms
func (h *ChatHandler) ParseSMS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Text is required")
		return
	}

	userID := middleware.UserID(r.Context())
	result, tx, err := h.assistant.ParseSMS(r.Context(), userID, req.Text)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to ingest SMS")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process SMS")
		return
	}

	resp := map[string]interface{}{
		"parsed":    result,
		"persisted": tx != nil,
	}
	if tx != nil {
		resp["transaction_id"] = tx.ID
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// InsightsHandler exposes generated insights, forecasts and challenges.
type InsightsHandler struct {
	assistant *assistant.Assistant
	repo      store.InsightRepository
	log       zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(a *assistant.Assistant, repo store.InsightRepository, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{assistant: a, repo: repo, log: log}
}

// GetInsights handles GET /api/insights
func (h *InsightsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	report, err := h.assistant.Insights(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build insights")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, report)
}

// GetStoredInsights handles GET /api/insights/history
func (h *InsightsHandler) GetStoredInsights(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	insights, err := h.repo.ListInsights(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list stored insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list insights")
		return
	}
	if insights == nil {
		insights = []*domain.Insight{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": insights,
		"count":    len(insights),
	})
}

// GetForecast handles GET /api/forecast
func (h *InsightsHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	forecast, err := h.assistant.Forecast(r.Context(), userID, r.URL.Query().Get("language"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build forecast")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build forecast")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, forecast)
}

// GetChallenge handles GET /api/challenge
func (h *InsightsHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	challenge, err := h.assistant.Challenge(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build challenge")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build challenge")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, challenge)
}

// TransactionsHandler handles transaction CRUD and the dashboard summary.
type TransactionsHandler struct {
	store store.Store
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(st store.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: st, log: log}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	transactions, err := h.store.ListTransactions(r.Context(), userID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Type        string  `json:"type"`
		Description string  `json:"description"`
		Date        string  `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, want YYYY-MM-DD")
			return
		}
		date = parsed
	}
	category := req.Category
	if category == "" {
		category = "Other"
	}

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      middleware.UserID(r.Context()),
		Amount:      req.Amount,
		Category:    category,
		Type:        domain.ParseTransactionType(req.Type),
		Description: req.Description,
		Date:        date,
		Source:      domain.SourceManual,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.InsertTransaction(r.Context(), tx); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	userID := middleware.UserID(r.Context())

	if err := h.store.DeleteTransaction(r.Context(), userID, id); err != nil {
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Dashboard handles GET /api/dashboard
func (h *TransactionsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	today := time.Now()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	totals, err := h.store.MonthlyTotals(ctx, userID, monthStart)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dashboard")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}
	categories, err := h.store.MonthlyCategoryTotals(ctx, userID, monthStart)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dashboard")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}
	loans, err := h.store.ListOpenLoans(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dashboard")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}
	limits, err := h.store.ListEstimates(ctx, userID, int(today.Month()), today.Year())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dashboard")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}

	var openLoanTotal float64
	for _, l := range loans {
		openLoanTotal += l.Amount
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"month_income":    totals.Income,
		"month_expense":   totals.Expense,
		"month_savings":   totals.Income - totals.Expense,
		"category_totals": categories,
		"open_loans":      loans,
		"open_loan_total": openLoanTotal,
		"budget_limits":   limits,
	})
}

// LoansHandler handles loan CRUD endpoints.
type LoansHandler struct {
	store store.Store
	log   zerolog.Logger
}

// NewLoansHandler creates a new loans handler.
func NewLoansHandler(st store.Store, log zerolog.Logger) *LoansHandler {
	return &LoansHandler{store: st, log: log}
}

// ListLoans handles GET /api/loans
func (h *LoansHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	loans, err := h.store.ListLoans(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list loans")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list loans")
		return
	}
	if loans == nil {
		loans = []*domain.Loan{}
	}
	middleware.WriteJSON(w, http.StatusOK, loans)
}

// CreateLoan handles POST /api/loans
func (h *LoansHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LenderName   string  `json:"lender_name"`
		Amount       float64 `json:"amount"`
		DueDate      string  `json:"due_date"`
		ReminderDays int     `json:"reminder_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if req.LenderName == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Lender name is required")
		return
	}

	now := time.Now().UTC()
	dueDate := now.AddDate(0, 0, 7)
	if req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid due_date format, want YYYY-MM-DD")
			return
		}
		dueDate = parsed
	}
	reminderDays := req.ReminderDays
	if reminderDays <= 0 {
		reminderDays = 3
	}

	loan := &domain.Loan{
		ID:           uuid.NewString(),
		UserID:       middleware.UserID(r.Context()),
		LenderName:   req.LenderName,
		Amount:       req.Amount,
		DateTaken:    now,
		DueDate:      dueDate,
		ReminderDays: reminderDays,
		CreatedAt:    now,
	}
	if err := h.store.InsertLoan(r.Context(), loan); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert loan")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create loan")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, loan)
}

// PayLoan handles POST /api/loans/{id}/pay
func (h *LoansHandler) PayLoan(w http.ResponseWriter, r *http.Request, id string) {
	userID := middleware.UserID(r.Context())

	if err := h.store.MarkLoanPaid(r.Context(), userID, id, time.Now().UTC()); err != nil {
		h.log.Warn().Err(err).Str("loan_id", id).Msg("Failed to mark loan paid")
		middleware.WriteError(w, http.StatusNotFound, "No unpaid loan with that ID")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

// DeleteLoan handles DELETE /api/loans/{id}
func (h *LoansHandler) DeleteLoan(w http.ResponseWriter, r *http.Request, id string) {
	userID := middleware.UserID(r.Context())

	if err := h.store.DeleteLoan(r.Context(), userID, id); err != nil {
		h.log.Error().Err(err).Str("loan_id", id).Msg("Failed to delete loan")
		middleware.WriteError(w, http.StatusNotFound, "Loan not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// EstimatesHandler handles per-category monthly budget limits.
type EstimatesHandler struct {
	store store.Store
	log   zerolog.Logger
}

// NewEstimatesHandler creates a new estimates handler.
func NewEstimatesHandler(st store.Store, log zerolog.Logger) *EstimatesHandler {
	return &EstimatesHandler{store: st, log: log}
}

// ListEstimates handles GET /api/estimates
func (h *EstimatesHandler) ListEstimates(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	now := time.Now()

	month := int(now.Month())
	year := now.Year()
	if m := r.URL.Query().Get("month"); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 12 {
			month = n
		}
	}
	if y := r.URL.Query().Get("year"); y != "" {
		if n, err := strconv.Atoi(y); err == nil && n > 0 {
			year = n
		}
	}

	estimates, err := h.store.ListEstimates(r.Context(), userID, month, year)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list estimates")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list estimates")
		return
	}
	if estimates == nil {
		estimates = []*domain.Estimate{}
	}
	middleware.WriteJSON(w, http.StatusOK, estimates)
}

// UpsertEstimate handles PUT /api/estimates
func (h *EstimatesHandler) UpsertEstimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Month    int     `json:"month"`
		Year     int     `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Category == "" || req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Category and a positive amount are required")
		return
	}

	now := time.Now().UTC()
	month := req.Month
	year := req.Year
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	if year <= 0 {
		year = now.Year()
	}

	est := &domain.Estimate{
		ID:              uuid.NewString(),
		UserID:          middleware.UserID(r.Context()),
		Category:        req.Category,
		EstimatedAmount: req.Amount,
		Month:           month,
		Year:            year,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.store.UpsertEstimate(r.Context(), est); err != nil {
		h.log.Error().Err(err).Msg("Failed to upsert estimate")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save estimate")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, est)
}

// UsersHandler handles registration and profile endpoints.
type UsersHandler struct {
	store store.UserRepository
	log   zerolog.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(st store.UserRepository, log zerolog.Logger) *UsersHandler {
	return &UsersHandler{store: st, log: log}
}

// Register handles POST /api/users
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email         string  `json:"email"`
		Name          string  `json:"name"`
		JobType       string  `json:"job_type"`
		Language      string  `json:"language"`
		AITone        string  `json:"ai_tone"`
		SavingsTarget float64 `json:"savings_target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}

	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to check email")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	if existing != nil {
		middleware.WriteError(w, http.StatusConflict, "Email already registered")
		return
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:            uuid.NewString(),
		Email:         req.Email,
		Name:          req.Name,
		JobType:       req.JobType,
		Language:      req.Language,
		AITone:        req.AITone,
		SavingsTarget: req.SavingsTarget,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		h.log.Error().Err(err).Msg("Failed to create user")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, user)
}

// GetProfile handles GET /api/profile
func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get profile")
		middleware.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/profile
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	var req struct {
		Name          *string  `json:"name"`
		JobType       *string  `json:"job_type"`
		Language      *string  `json:"language"`
		AITone        *string  `json:"ai_tone"`
		SavingsTarget *float64 `json:"savings_target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.JobType != nil {
		user.JobType = *req.JobType
	}
	if req.Language != nil {
		user.Language = *req.Language
	}
	if req.AITone != nil {
		user.AITone = *req.AITone
	}
	if req.SavingsTarget != nil {
		user.SavingsTarget = *req.SavingsTarget
	}

	user.UpdatedAt = time.Now().UTC()
	if err := h.store.UpdateUserProfile(r.Context(), user); err != nil {
		h.log.Error().Err(err).Msg("Failed to update profile")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

// JobsHandler handles job-status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: middleware.UserID(r.Context()),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
