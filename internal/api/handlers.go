package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"bankena/internal/auth"
	"bankena/internal/chat"
	"bankena/internal/insight"
	"bankena/internal/models"
	"bankena/internal/site"
	"bankena/internal/tools"
)

const visitorCookieName = "visitor_id"

// HistoryLoader reads a user's saved transcript at login.
type HistoryLoader interface {
	Load(username string) ([]models.Message, error)
}

// Handler wires HTTP routes to the visitor registry, the auth service, and
// the insight generator.
type Handler struct {
	registry *site.Registry
	auth     *auth.Service
	history  HistoryLoader
	insights *insight.Generator
}

// NewHandler constructs a Handler instance.
func NewHandler(registry *site.Registry, authService *auth.Service, history HistoryLoader, insights *insight.Generator) *Handler {
	return &Handler{
		registry: registry,
		auth:     authService,
		history:  history,
		insights: insights,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/login", h.login)

	api.GET("/state", h.state)
	api.POST("/navigate", h.navigate)
	api.PUT("/rates/inputs", h.editRateInputs)
	api.POST("/rates/quote", h.quoteRates)
	api.POST("/chat/message", h.sendMessage)
	api.POST("/chat/new", h.newChat)
	api.GET("/chat/transcript", h.transcript)

	authed := api.Group("/users")
	authed.Use(h.auth.Middleware(), h.auth.CSRFMiddleware())
	authed.POST("/logout", h.logout)
	authed.PUT("/snapshot", h.editSnapshot)
}

// visitor resolves the caller's page state from the visitor cookie, minting
// a cookie on first contact.
func (h *Handler) visitor(c *gin.Context) *site.Visitor {
	id, err := c.Cookie(visitorCookieName)
	if err != nil || id == "" {
		id = site.NewVisitorID()
		c.SetCookie(visitorCookieName, id, 0, "/", "", false, true)
	}
	return h.registry.Visitor(id)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	authToken, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}

	v := h.visitor(c)
	epoch, insightCtx := v.Login(req.Username)

	// The greeting or verbatim restore is installed before the login response
	// so no turn can run against the stale logged-out transcript. Only the
	// insight generation runs in the background.
	stored, err := h.history.Load(req.Username)
	if err != nil {
		log.Printf("load chat history for %s: %v", req.Username, err)
	}
	if !v.ApplyRehydration(epoch, insight.Seed(req.Username, stored), "") {
		log.Printf("discarding stale rehydration for %s", req.Username)
	}
	if lastUserText := insight.LastUserText(stored); lastUserText != "" {
		go h.generateInsight(insightCtx, v, epoch, req.Username, lastUserText)
	}

	h.setAuthCookies(c, authToken, csrfToken)
	c.JSON(http.StatusOK, gin.H{
		"username":   req.Username,
		"auth_token": authToken,
	})
}

// generateInsight produces the welcome-back summary for a returning user and
// swaps it into the session. Failure degrades to the first-login greeting; a
// logout or newer login cancels the context and the result is discarded.
func (h *Handler) generateInsight(ctx context.Context, v *site.Visitor, epoch uint64, username, lastUserText string) {
	summary, err := h.insights.Generate(ctx, v.Snapshot(), lastUserText)
	if err != nil {
		log.Printf("generate insight for %s: %v", username, err)
		if !v.ApplyRehydration(epoch, insight.Greeting(username), "") {
			log.Printf("discarding stale rehydration for %s", username)
		}
		return
	}
	welcome := []models.Message{{Sender: models.SenderBot, Text: insight.WelcomeBack(username, summary)}}
	if !v.ApplyRehydration(epoch, welcome, summary) {
		log.Printf("discarding stale rehydration for %s", username)
	}
}

func (h *Handler) logout(c *gin.Context) {
	if token, ok := auth.AuthTokenFromContext(c); ok {
		if err := h.auth.RevokeToken(c.Request.Context(), token); err != nil {
			log.Printf("revoke token: %v", err)
		}
	}
	// Logout ends the visit: cancel any pending insight, then drop the page
	// state so the next request starts from defaults.
	if id, err := c.Cookie(visitorCookieName); err == nil && id != "" {
		h.registry.Visitor(id).Logout()
		h.registry.Drop(id)
	}
	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

type navigateRequest struct {
	Page string `json:"page"`
}

func (h *Handler) navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !tools.ValidPage(req.Page) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown page"})
		return
	}
	v := h.visitor(c)
	v.Navigate(req.Page)
	c.JSON(http.StatusOK, gin.H{"page": v.Page()})
}

func (h *Handler) state(c *gin.Context) {
	v := h.visitor(c)
	c.JSON(http.StatusOK, gin.H{
		"page":        v.Page(),
		"username":    v.Username(),
		"rate_inputs": v.RateInputs(),
		"quotes":      v.Quotes(),
		"snapshot":    v.Snapshot(),
		"chat_state":  v.Chat.State(),
	})
}

func (h *Handler) editRateInputs(c *gin.Context) {
	var req models.RateInputs
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rate_inputs": h.visitor(c).EditRateInputs(req)})
}

func (h *Handler) quoteRates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quotes": h.visitor(c).Rates()})
}

func (h *Handler) editSnapshot(c *gin.Context) {
	var req models.FinancialSnapshot
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	v := h.visitor(c)
	v.SetSnapshot(req)
	c.JSON(http.StatusOK, gin.H{"snapshot": v.Snapshot()})
}

type messageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	v := h.visitor(c)
	appended, err := v.Chat.Submit(c.Request.Context(), req.Message, v.Page())
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrBusy):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "a reply is still in flight"})
		case errors.Is(err, chat.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": renderMessages(appended),
		"page":     v.Page(),
		"quotes":   v.Quotes(),
	})
}

func (h *Handler) newChat(c *gin.Context) {
	v := h.visitor(c)
	v.Chat.NewChat()
	c.JSON(http.StatusOK, gin.H{"messages": renderMessages(v.Chat.Transcript())})
}

func (h *Handler) transcript(c *gin.Context) {
	v := h.visitor(c)
	c.JSON(http.StatusOK, gin.H{"messages": renderMessages(v.Chat.Transcript())})
}

type renderedMessage struct {
	Sender models.Sender `json:"sender"`
	Text   string        `json:"text"`
	Lines  []chat.Line   `json:"lines,omitempty"`
}

// renderMessages attaches the formatted line structure to bot messages; user
// messages stay plain text.
func renderMessages(msgs []models.Message) []renderedMessage {
	out := make([]renderedMessage, 0, len(msgs))
	for _, m := range msgs {
		rm := renderedMessage{Sender: m.Sender, Text: m.Text}
		if m.Sender == models.SenderBot {
			rm.Lines = chat.RenderText(m.Text)
		}
		out = append(out, rm)
	}
	return out
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	maxAge := int(h.auth.TokenTTL().Seconds())
	c.SetCookie(h.auth.AuthCookieName(), authToken, maxAge, "/", "", false, true)
	c.SetCookie(h.auth.CSRFCookieName(), csrfToken, maxAge, "/", "", false, false)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(h.auth.AuthCookieName(), "", -1, "/", "", false, true)
	c.SetCookie(h.auth.CSRFCookieName(), "", -1, "/", "", false, false)
}
