package webapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"luaspark-server/internal/domain/chat"
	"luaspark-server/internal/domain/session"
	"luaspark-server/internal/domain/user"
	"luaspark-server/internal/platform/errors"
	"luaspark-server/internal/platform/logging"
	httptransport "luaspark-server/internal/transport/http"
)

// paymentCompleted is the webhook status that grants entitlement.
const paymentCompleted = "COMPLETED"

// Service is the HTTP transport for accounts, sessions, payments and
// generation.
type Service struct {
	users    *user.Manager
	sessions *session.Registry
	chat     *chat.Service
	logger   *logging.Logger
}

// NewService creates the web API transport service.
func NewService(users *user.Manager, sessions *session.Registry, chatSvc *chat.Service, logger *logging.Logger) (*Service, error) {
	if users == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "user manager is required")
	}
	if sessions == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "session registry is required")
	}
	if chatSvc == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "chat service is required")
	}
	if logger == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "logger is required")
	}

	return &Service{
		users:    users,
		sessions: sessions,
		chat:     chatSvc,
		logger:   logger,
	}, nil
}

// Register wires the public and secured routes.
func (s *Service) Register(_ context.Context, public, secured *gin.RouterGroup) error {
	public.POST("/signup", s.handleSignup)
	public.POST("/signin", s.handleSignin)
	// legacy clients still call /login
	public.POST("/login", s.handleSignin)
	public.POST("/markEntitled", s.handleMarkEntitled)
	public.POST("/paypal-webhook", s.handlePaypalWebhook)
	public.GET("/healthz", s.handleHealth)

	secured.POST("/verifyToken", s.handleVerifyToken)
	secured.POST("/generate", s.handleGenerate)
	secured.POST("/signout", s.handleSignout)

	s.logger.InfoTag("HTTP", "web api routes registered")
	return nil
}

func (s *Service) respondError(c *gin.Context, err error) {
	httptransport.RespondError(c, errors.HTTPStatus(err), errors.Message(err), nil)
}

func (s *Service) handleSignup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "email and password required", nil)
		return
	}

	ctx := c.Request.Context()
	if err := s.users.Register(ctx, req.Email, req.Password); err != nil {
		s.respondError(c, err)
		return
	}

	// Signup logs the new account straight in.
	token, err := s.sessions.Create(ctx, req.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, tokenResponse{Token: token}, "account created")
}

func (s *Service) handleSignin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "email and password required", nil)
		return
	}

	ctx := c.Request.Context()
	u, err := s.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	token, err := s.sessions.Create(ctx, u.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, tokenResponse{Token: token, HasPaid: u.HasPaid}, "signed in")
}

func (s *Service) handleSignout(c *gin.Context) {
	if err := s.sessions.Revoke(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		s.respondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, okResponse{OK: true}, "signed out")
}

func (s *Service) handleVerifyToken(c *gin.Context) {
	email := authedEmail(c)

	u, err := s.users.Get(c.Request.Context(), email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, verifyResponse{
		Valid:   true,
		Email:   u.Email,
		HasPaid: u.HasPaid,
	}, "")
}

func (s *Service) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "prompt required", nil)
		return
	}

	result, err := s.chat.Generate(c.Request.Context(), authedEmail(c), req.Prompt)
	if err != nil {
		s.respondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, generateResponse{
		Output:      result.Code,
		Explanation: result.Explanation,
	}, "")
}

func (s *Service) handleMarkEntitled(c *gin.Context) {
	var req markEntitledRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		httptransport.RespondError(c, http.StatusBadRequest, "email required", nil)
		return
	}

	if err := s.users.MarkPaid(c.Request.Context(), req.Email, "manual"); err != nil {
		s.respondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, okResponse{OK: true}, "entitlement granted")
}

func (s *Service) handlePaypalWebhook(c *gin.Context) {
	var req paypalWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		httptransport.RespondError(c, http.StatusBadRequest, "email required", nil)
		return
	}

	ctx := c.Request.Context()
	if err := s.users.EnsureForPayment(ctx, req.Email); err != nil {
		s.respondError(c, err)
		return
	}

	if strings.EqualFold(req.PaymentStatus, paymentCompleted) {
		if err := s.users.MarkPaid(ctx, req.Email, "webhook"); err != nil {
			s.respondError(c, err)
			return
		}
	} else {
		s.logger.Warn("[PAY] webhook for %s with status %s ignored", user.Normalize(req.Email), req.PaymentStatus)
	}
	httptransport.RespondSuccess(c, http.StatusOK, okResponse{OK: true}, "")
}

func (s *Service) handleHealth(c *gin.Context) {
	stats, err := s.users.Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"status": "ok",
		"store":  stats,
	}, "")
}
