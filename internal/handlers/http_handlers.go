package handlers

import (
	"bytes"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"

	"github.com/frankie1ny/charitysuperbowl/internal/assistant"
	"github.com/frankie1ny/charitysuperbowl/internal/commands"
	"github.com/frankie1ny/charitysuperbowl/internal/models"
	"github.com/frankie1ny/charitysuperbowl/internal/services"
	"github.com/frankie1ny/charitysuperbowl/internal/storage"
)

const adminCookie = "admin_session"

// BackupFilename is the download name for state exports.
const BackupFilename = "superbowl_charity_backup.json"

// paymentMethods are the options offered when recording a payment.
var paymentMethods = []string{"Cash", "Venmo", "PayPal", "Zelle"}

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	service   *services.BoardService
	assistant *assistant.Client
	templates *template.Template
	shareBase string

	mu       sync.Mutex
	sessions map[string]bool
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.BoardService, ai *assistant.Client, templates *template.Template, shareBase string) *HTTPHandler {
	return &HTTPHandler{
		service:   service,
		assistant: ai,
		templates: templates,
		shareBase: shareBase,
		sessions:  make(map[string]bool),
	}
}

// TemplateFuncs returns the helpers templates are parsed with.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": formatAmount,
	}
}

// renderPage is a helper to perform a two-step template rendering. It
// first executes the content template into a buffer, then executes the
// main layout template, passing the rendered content as a variable.
func (h *HTTPHandler) renderPage(c *gin.Context, pageData gin.H, contentTmpl string) {
	buf := new(bytes.Buffer)
	if err := h.templates.ExecuteTemplate(buf, contentTmpl, pageData); err != nil {
		logger.Infof("Error executing content template %s: %v", contentTmpl, err)
		c.String(http.StatusInternalServerError, "Template rendering error")
		return
	}

	pageData["PageContent"] = template.HTML(buf.String())
	pageData["CharityName"] = h.service.GlobalSettings().CharityName

	if err := h.templates.ExecuteTemplate(c.Writer, "layout.html", pageData); err != nil {
		logger.Infof("Error executing layout template: %v", err)
		c.String(http.StatusInternalServerError, "Template rendering error")
	}
}

// RegisterPublicRoutes registers the routes everyone can reach.
func (h *HTTPHandler) RegisterPublicRoutes(router *gin.Engine) {
	router.GET("/", h.ShowGrid)
	router.GET("/squares/:id", h.ShowSquare)
	router.POST("/squares/:id/claim", h.ClaimSquare)
	router.POST("/squares/:id/verify", h.VerifySquare)
	router.POST("/squares/:id/relinquish", h.RelinquishSquare)
	router.POST("/squares/:id/confirm-paid", h.ConfirmPaid)
	router.GET("/share", h.ShowShare)
	router.POST("/assistant", h.AskAssistant)
	router.GET("/admin/login", h.ShowAdminLogin)
	router.POST("/admin/login", h.AdminLogin)
}

// RegisterAdminRoutes registers the routes behind the admin gate.
func (h *HTTPHandler) RegisterAdminRoutes(group *gin.RouterGroup) {
	group.GET("/roster", h.ShowRoster)
	group.POST("/payments", h.RecordPayment)
	group.POST("/participants/:id", h.UpdateParticipant)
	group.GET("/admin", h.ShowAdmin)
	group.POST("/pools", h.CreatePool)
	group.POST("/pools/:id/delete", h.DeletePool)
	group.POST("/pools/:id/switch", h.SwitchPool)
	group.POST("/pools/:id/rename", h.RenamePool)
	group.POST("/pools/:id/axes", h.GenerateAxes)
	group.POST("/pools/:id/axes/set", h.SetAxes)
	group.POST("/pools/:id/settings", h.UpdatePoolSettings)
	group.POST("/pools/:id/lock", h.ToggleLock)
	group.POST("/pools/:id/reset", h.ResetGrid)
	group.POST("/settings", h.UpdateGlobalSettings)
	group.GET("/export", h.ExportBackup)
	group.POST("/import", h.ImportBackup)
}

// AdminMiddleware gates a route group behind the admin session cookie.
func (h *HTTPHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || !h.hasSession(token) {
			c.Redirect(http.StatusFound, "/admin/login?from="+c.Request.URL.Path)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *HTTPHandler) hasSession(token string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[token]
}

func (h *HTTPHandler) newSession() string {
	token := uuid.NewString()
	h.mu.Lock()
	h.sessions[token] = true
	h.mu.Unlock()
	return token
}

// dropSession ends one admin session, leaving the rest intact.
func (h *HTTPHandler) dropSession(token string) {
	h.mu.Lock()
	delete(h.sessions, token)
	h.mu.Unlock()
}

// ShowGrid renders the board. When the URL carries an embedded share
// snapshot it is imported first and the parameter is stripped by
// redirecting, so reloads don't re-import.
func (h *HTTPHandler) ShowGrid(c *gin.Context) {
	if raw := c.Query(storage.ShareParam); raw != "" {
		state, err := storage.DecodeShareParam(raw)
		if err != nil {
			logger.Infof("Failed to parse import data from URL: %v", err)
		} else if err := h.service.Dispatch(commands.ImportState{State: state}); err != nil {
			logger.Infof("Failed to import shared state: %v", err)
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	// Viewing the grid re-locks the admin sections for this browser,
	// matching the original's tab behavior. Only the visitor's own
	// session ends; other admins stay signed in.
	if token, err := c.Cookie(adminCookie); err == nil {
		h.dropSession(token)
		c.SetCookie(adminCookie, "", -1, "/", "", false, true)
	}

	pool := h.service.ActivePool()
	rows := make([][]models.Square, models.GridSize)
	for i := 0; i < models.GridSize; i++ {
		rows[i] = pool.Squares[i*models.GridSize : (i+1)*models.GridSize]
	}

	h.renderPage(c, gin.H{
		"Title":     pool.Name,
		"Pool":      pool,
		"Rows":      rows,
		"RowLabels": axisLabels(pool.Settings.RowNumbers),
		"ColLabels": axisLabels(pool.Settings.ColNumbers),
		"Error":     c.Query("error"),
		"Notice":    c.Query("notice"),
	}, "grid.html")
}

func axisLabels(nums []int) []string {
	labels := make([]string, models.GridSize)
	for i := range labels {
		if i < len(nums) {
			labels[i] = strconv.Itoa(nums[i])
		} else {
			labels[i] = "?"
		}
	}
	return labels
}

func (h *HTTPHandler) squareFromPath(c *gin.Context) (models.Pool, models.Square, bool) {
	pool := h.service.ActivePool()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 || id >= len(pool.Squares) {
		c.String(http.StatusNotFound, "No such square")
		return models.Pool{}, models.Square{}, false
	}
	return pool, pool.Squares[id], true
}

// squarePageData assembles the data both the claim form and the manage
// view render from.
func (h *HTTPHandler) squarePageData(pool models.Pool, sq models.Square) gin.H {
	global := h.service.GlobalSettings()
	recent := pool.Participants
	if len(recent) > 5 {
		recent = recent[:5]
	}
	return gin.H{
		"Title":          pool.Name,
		"Pool":           pool,
		"Square":         sq,
		"Global":         global,
		"Recent":         recent,
		"FullyPaid":      sq.FullyPaid(pool.Settings.CostPerBox),
		"Remaining":      max(0, pool.Settings.CostPerBox-sq.PaidAmount),
		"HasPaymentInfo": global.ZelleAccount != "" || global.PaypalAccount != "" || global.VenmoAccount != "",
	}
}

// ShowSquare renders the claim form for an open square or the
// email-verification gate for a reserved one.
func (h *HTTPHandler) ShowSquare(c *gin.Context) {
	pool, sq, ok := h.squareFromPath(c)
	if !ok {
		return
	}
	if !sq.Assigned && pool.Settings.IsLocked {
		c.Redirect(http.StatusFound, "/?error="+template.URLQueryEscaper("The board is locked."))
		return
	}
	h.renderPage(c, h.squarePageData(pool, sq), "square.html")
}

// ClaimSquare reserves an open square for the submitted entry.
func (h *HTTPHandler) ClaimSquare(c *gin.Context) {
	pool, sq, ok := h.squareFromPath(c)
	if !ok {
		return
	}

	entry := commands.Entry{
		Name:  strings.TrimSpace(c.PostForm("name")),
		Email: strings.TrimSpace(c.PostForm("email")),
		Phone: strings.TrimSpace(c.PostForm("phone")),
		Alias: strings.TrimSpace(c.PostForm("alias")),
	}
	if entry.Phone == "" {
		data := h.squarePageData(pool, sq)
		data["Error"] = "Please fill in every field."
		h.renderPage(c, data, "square.html")
		return
	}
	err := h.service.Dispatch(commands.ClaimSquare{PoolID: pool.ID, SquareID: sq.ID, Entry: entry})
	if err != nil {
		data := h.squarePageData(pool, sq)
		switch err {
		case commands.ErrEmptyName, commands.ErrEmptyEmail, commands.ErrEmptyAlias:
			data["Error"] = "Please fill in every field."
		default:
			data["Error"] = err.Error()
		}
		h.renderPage(c, data, "square.html")
		return
	}

	h.renderSuccess(c, pool.ID, sq.ID, entry.Email)
}

// renderSuccess shows the post-claim payment screen with the rail links
// and QR codes for the configured handles.
func (h *HTTPHandler) renderSuccess(c *gin.Context, poolID string, squareID int, email string) {
	pool, ok := h.service.Pool(poolID)
	if !ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	sq := pool.Squares[squareID]
	global := h.service.GlobalSettings()
	cost := pool.Settings.CostPerBox

	data := h.squarePageData(pool, sq)
	data["Email"] = email
	if global.PaypalAccount != "" {
		link := PayPalLink(global.PaypalAccount, cost)
		data["PayPalLink"] = link
		data["PayPalQR"] = QRImageURL(link, 200)
	}
	if global.VenmoAccount != "" {
		link := VenmoLink(global.VenmoAccount, cost, sq.Alias)
		data["VenmoLink"] = link
		data["VenmoQR"] = QRImageURL(link, 200)
	}
	if global.ZelleAccount != "" {
		data["ZelleQR"] = QRImageURL(global.ZelleAccount, 200)
	}
	h.renderPage(c, data, "claim_success.html")
}

// VerifySquare checks the visitor's email against the square's owner
// and, on a match, unlocks the manage view.
func (h *HTTPHandler) VerifySquare(c *gin.Context) {
	pool, sq, ok := h.squareFromPath(c)
	if !ok {
		return
	}
	email := c.PostForm("email")
	if _, ok := h.service.VerifySquareOwner(pool.ID, sq.ID, email); !ok {
		data := h.squarePageData(pool, sq)
		data["VerifyError"] = "Email does not match this box"
		h.renderPage(c, data, "square.html")
		return
	}
	h.renderSuccess(c, pool.ID, sq.ID, email)
}

// RelinquishSquare cancels a verified reservation. Works on locked
// boards too: locking stops new claims, not cancellations.
func (h *HTTPHandler) RelinquishSquare(c *gin.Context) {
	pool, sq, ok := h.squareFromPath(c)
	if !ok {
		return
	}
	if _, verified := h.service.VerifySquareOwner(pool.ID, sq.ID, c.PostForm("email")); !verified {
		c.Redirect(http.StatusFound, "/?error="+template.URLQueryEscaper("Email does not match this box"))
		return
	}
	if err := h.service.Dispatch(commands.RelinquishSquare{PoolID: pool.ID, SquareID: sq.ID}); err != nil {
		c.Redirect(http.StatusFound, "/?error="+template.URLQueryEscaper(err.Error()))
		return
	}
	c.Redirect(http.StatusFound, "/?notice="+template.URLQueryEscaper("Reservation cancelled"))
}

// ConfirmPaid records a self-reported full payment for the verified
// owner of a square.
func (h *HTTPHandler) ConfirmPaid(c *gin.Context) {
	pool, sq, ok := h.squareFromPath(c)
	if !ok {
		return
	}
	pid, verified := h.service.VerifySquareOwner(pool.ID, sq.ID, c.PostForm("email"))
	if !verified {
		c.Redirect(http.StatusFound, "/?error="+template.URLQueryEscaper("Email does not match this box"))
		return
	}
	err := h.service.Dispatch(commands.ApplyPayment{
		PoolID:        pool.ID,
		ParticipantID: pid,
		Amount:        pool.Settings.CostPerBox,
		Method:        "Self-Reported",
	})
	if err != nil {
		c.Redirect(http.StatusFound, "/?error="+template.URLQueryEscaper(err.Error()))
		return
	}
	c.Redirect(http.StatusFound, "/?notice="+template.URLQueryEscaper("Marked paid. Thank you!"))
}

// ShowShare renders the share screen: QR code, copyable link and the
// long-URL warning once the snapshot outgrows what QR codes handle.
func (h *HTTPHandler) ShowShare(c *gin.Context) {
	shareURL, err := storage.EncodeShareURL(h.shareBase, h.service.State())
	if err != nil {
		logger.Infof("Error generating share URL: %v", err)
		c.Redirect(http.StatusFound, "/?error="+template.URLQueryEscaper("Could not build a share link"))
		return
	}
	h.renderPage(c, gin.H{
		"Title":    "Share Your Board",
		"ShareURL": shareURL,
		"QRURL":    QRImageURL(shareURL, 300),
		"IsLong":   storage.IsLongURL(shareURL),
	}, "share.html")
}

// AskAssistant handles one chat turn and returns the transcript
// fragment for the question and its answer.
func (h *HTTPHandler) AskAssistant(c *gin.Context) {
	question := strings.TrimSpace(c.PostForm("question"))
	if question == "" {
		c.String(http.StatusBadRequest, "Please ask a question.")
		return
	}
	answer := h.assistant.Ask(c.Request.Context(), h.service.GlobalSettings(), h.service.ActivePool(), question)
	data := gin.H{"Question": question, "Answer": answer}
	if err := h.templates.ExecuteTemplate(c.Writer, "assistant_message.html", data); err != nil {
		logger.Infof("Error executing template: %v", err)
		c.String(http.StatusInternalServerError, "Template error")
	}
}

// ShowAdminLogin renders the password gate.
func (h *HTTPHandler) ShowAdminLogin(c *gin.Context) {
	h.renderPage(c, gin.H{
		"Title": "Admin Access",
		"From":  c.Query("from"),
	}, "admin_login.html")
}

// AdminLogin verifies the shared password and starts a session.
func (h *HTTPHandler) AdminLogin(c *gin.Context) {
	if !h.service.CheckAdminPassword(c.PostForm("password")) {
		h.renderPage(c, gin.H{
			"Title": "Admin Access",
			"From":  c.PostForm("from"),
			"Error": "Wrong password",
		}, "admin_login.html")
		return
	}
	c.SetCookie(adminCookie, h.newSession(), 0, "/", "", false, true)
	target := c.PostForm("from")
	if target == "" || !strings.HasPrefix(target, "/") {
		target = "/admin"
	}
	c.Redirect(http.StatusFound, target)
}

// ShowRoster renders the finance dashboard and participant roster.
func (h *HTTPHandler) ShowRoster(c *gin.Context) {
	pool := h.service.ActivePool()
	search := c.Query("q")
	h.renderPage(c, gin.H{
		"Title":   "Finance",
		"Pool":    pool,
		"Roster":  services.FilterRoster(h.service.Roster(pool.ID), search),
		"Totals":  h.service.Totals(pool.ID),
		"Search":  search,
		"Methods": paymentMethods,
		"Error":   c.Query("error"),
	}, "roster.html")
}

// parseAmount accepts the loose currency formats operators type in.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	return strconv.ParseFloat(cleaned, 64)
}

// RecordPayment applies an operator-recorded payment to a participant.
func (h *HTTPHandler) RecordPayment(c *gin.Context) {
	pool := h.service.ActivePool()
	amount, err := parseAmount(c.PostForm("amount"))
	if err != nil || amount <= 0 {
		c.Redirect(http.StatusFound, "/roster?error="+template.URLQueryEscaper("Please enter a valid amount greater than 0."))
		return
	}
	err = h.service.Dispatch(commands.ApplyPayment{
		PoolID:        pool.ID,
		ParticipantID: c.PostForm("participantId"),
		Amount:        amount,
		Method:        c.DefaultPostForm("method", "Cash"),
		Notes:         c.PostForm("notes"),
	})
	if err != nil {
		c.Redirect(http.StatusFound, "/roster?error="+template.URLQueryEscaper(err.Error()))
		return
	}
	c.Redirect(http.StatusFound, "/roster")
}

// UpdateParticipant applies inline roster edits.
func (h *HTTPHandler) UpdateParticipant(c *gin.Context) {
	pool := h.service.ActivePool()
	name := c.PostForm("name")
	email := c.PostForm("email")
	phone := c.PostForm("phone")
	alias := c.PostForm("alias")
	err := h.service.Dispatch(commands.UpdateParticipant{
		PoolID:        pool.ID,
		ParticipantID: c.Param("id"),
		Name:          &name,
		Email:         &email,
		Phone:         &phone,
		Alias:         &alias,
	})
	if err != nil {
		c.Redirect(http.StatusFound, "/roster?error="+template.URLQueryEscaper(err.Error()))
		return
	}
	c.Redirect(http.StatusFound, "/roster")
}

// ShowAdmin renders the configuration panel and board library.
func (h *HTTPHandler) ShowAdmin(c *gin.Context) {
	pool := h.service.ActivePool()
	h.renderPage(c, gin.H{
		"Title":     "Admin",
		"Pool":      pool,
		"Global":    h.service.GlobalSettings(),
		"AllPools":  h.service.State().Pools,
		"RowLabels": axisLabels(pool.Settings.RowNumbers),
		"ColLabels": axisLabels(pool.Settings.ColNumbers),
		"Error":     c.Query("error"),
		"Notice":    c.Query("notice"),
	}, "admin.html")
}

func adminRedirect(c *gin.Context, err error) {
	if err != nil {
		c.Redirect(http.StatusFound, "/admin?error="+template.URLQueryEscaper(err.Error()))
		return
	}
	c.Redirect(http.StatusFound, "/admin")
}

// CreatePool adds a new board, optionally inheriting matchup settings.
func (h *HTTPHandler) CreatePool(c *gin.Context) {
	adminRedirect(c, h.service.Dispatch(commands.CreatePool{
		Name:    strings.TrimSpace(c.PostForm("name")),
		Inherit: c.PostForm("inherit") == "on",
	}))
}

// DeletePool removes a board.
func (h *HTTPHandler) DeletePool(c *gin.Context) {
	adminRedirect(c, h.service.Dispatch(commands.DeletePool{PoolID: c.Param("id")}))
}

// SwitchPool changes the active board.
func (h *HTTPHandler) SwitchPool(c *gin.Context) {
	adminRedirect(c, h.service.Dispatch(commands.SwitchPool{PoolID: c.Param("id")}))
}

// RenamePool renames a board.
func (h *HTTPHandler) RenamePool(c *gin.Context) {
	adminRedirect(c, h.service.Dispatch(commands.RenamePool{
		PoolID: c.Param("id"),
		Name:   strings.TrimSpace(c.PostForm("name")),
	}))
}

// GenerateAxes randomizes both score axes.
func (h *HTTPHandler) GenerateAxes(c *gin.Context) {
	adminRedirect(c, h.service.Dispatch(commands.GenerateAxisNumbers{PoolID: c.Param("id")}))
}

// SetAxes applies operator-typed axis numbers. Both axes are submitted
// together as ten row fields and ten column fields.
func (h *HTTPHandler) SetAxes(c *gin.Context) {
	rows, err := axisForm(c, "row")
	if err != nil {
		adminRedirect(c, commands.ErrInvalidAxis)
		return
	}
	cols, err := axisForm(c, "col")
	if err != nil {
		adminRedirect(c, commands.ErrInvalidAxis)
		return
	}
	adminRedirect(c, h.service.Dispatch(commands.SetAxisNumbers{
		PoolID:     c.Param("id"),
		RowNumbers: rows,
		ColNumbers: cols,
	}))
}

func axisForm(c *gin.Context, prefix string) ([]int, error) {
	nums := make([]int, models.GridSize)
	for i := range nums {
		n, err := strconv.Atoi(c.PostForm(prefix + strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}

// UpdatePoolSettings applies the contest configuration form.
func (h *HTTPHandler) UpdatePoolSettings(c *gin.Context) {
	teamA := c.PostForm("teamA")
	teamB := c.PostForm("teamB")
	cost, err := parseAmount(c.PostForm("costPerBox"))
	if err != nil {
		adminRedirect(c, commands.ErrInvalidCost)
		return
	}
	adminRedirect(c, h.service.Dispatch(commands.UpdatePoolSettings{
		PoolID:     c.Param("id"),
		TeamA:      &teamA,
		TeamB:      &teamB,
		CostPerBox: &cost,
	}))
}

// ToggleLock flips the claim lock on a board.
func (h *HTTPHandler) ToggleLock(c *gin.Context) {
	adminRedirect(c, h.service.Dispatch(commands.ToggleLock{PoolID: c.Param("id")}))
}

// ResetGrid clears every claim and participant on a board.
func (h *HTTPHandler) ResetGrid(c *gin.Context) {
	adminRedirect(c, h.service.Dispatch(commands.ResetGrid{PoolID: c.Param("id")}))
}

// UpdateGlobalSettings applies the cross-board configuration form.
func (h *HTTPHandler) UpdateGlobalSettings(c *gin.Context) {
	cmd := commands.UpdateGlobalSettings{}
	if v, ok := c.GetPostForm("charityName"); ok {
		cmd.CharityName = &v
	}
	if v, ok := c.GetPostForm("adminPassword"); ok && v != "" {
		cmd.AdminPassword = &v
	}
	if v, ok := c.GetPostForm("zelleAccount"); ok {
		cmd.ZelleAccount = &v
	}
	if v, ok := c.GetPostForm("paypalAccount"); ok {
		cmd.PaypalAccount = &v
	}
	if v, ok := c.GetPostForm("venmoAccount"); ok {
		cmd.VenmoAccount = &v
	}
	adminRedirect(c, h.service.Dispatch(cmd))
}

// ExportBackup downloads the full state as a JSON backup file.
func (h *HTTPHandler) ExportBackup(c *gin.Context) {
	data, err := storage.EncodeSnapshot(h.service.State())
	if err != nil {
		logger.Infof("Error encoding backup: %v", err)
		c.String(http.StatusInternalServerError, "Error encoding backup")
		return
	}
	c.Header("Content-Disposition", "attachment;filename="+BackupFilename)
	c.Data(http.StatusOK, "application/json", data)
}

// ImportBackup overwrites the state with an uploaded backup file. The
// confirmation happens in the browser before the form submits; an
// unparseable file is the one decode failure surfaced to the operator.
func (h *HTTPHandler) ImportBackup(c *gin.Context) {
	file, _, err := c.Request.FormFile("backup")
	if err != nil {
		adminRedirect(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		adminRedirect(c, err)
		return
	}
	state, err := storage.DecodeSnapshot(data)
	if err != nil {
		c.Redirect(http.StatusFound, "/admin?error="+template.URLQueryEscaper("Invalid backup file."))
		return
	}
	if err := h.service.Dispatch(commands.ImportState{State: state}); err != nil {
		c.Redirect(http.StatusFound, "/admin?error="+template.URLQueryEscaper("Invalid backup file."))
		return
	}
	c.Redirect(http.StatusFound, "/")
}
