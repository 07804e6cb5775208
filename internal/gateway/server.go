// Package gateway is the HTTP face of the server: the consent and OAuth
// endpoints that mint bearer credentials, and the streamable MCP
// endpoint those credentials unlock.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpauth "github.com/modelcontextprotocol/go-sdk/auth"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattyatea/ClickUp-MCP/internal/storage"
)

// CodeExchanger swaps a provider authorization code for an access token.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, clientID, clientSecret, code string) (string, error)
}

// Options carries the gateway wiring.
type Options struct {
	Host          string
	Port          int
	PublicBaseURL string

	// ClientID and ClientSecret are the ClickUp app credentials used
	// for the provider code exchange.
	ClientID     string
	ClientSecret string

	// ConsentSecret signs the consent cookie.
	ConsentSecret []byte

	// TokenTTL is the lifetime of minted bearer credentials.
	TokenTTL time.Duration

	Exchanger CodeExchanger
	Tokens    storage.Store
	MCP       *mcpsdk.Server
	Logger    *slog.Logger
}

// Server is the gateway HTTP server.
type Server struct {
	httpServer    *http.Server
	host          string
	port          int
	publicBaseURL string
	clientID      string
	clientSecret  string
	consentSecret []byte
	tokenTTL      time.Duration
	exchanger     CodeExchanger
	tokens        storage.Store
	logger        *slog.Logger
}

// NewServer creates a gateway server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		host:          opts.Host,
		port:          opts.Port,
		publicBaseURL: opts.PublicBaseURL,
		clientID:      opts.ClientID,
		clientSecret:  opts.ClientSecret,
		consentSecret: opts.ConsentSecret,
		tokenTTL:      opts.TokenTTL,
		exchanger:     opts.Exchanger,
		tokens:        opts.Tokens,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/api/health", s.handleHealth)
	r.Get("/authorize", s.handleAuthorize)
	r.Post("/authorize", s.handleApprove)
	r.Get("/callback", s.handleCallback)

	if opts.MCP != nil {
		streamable := mcpsdk.NewStreamableHTTPHandler(func(_ *http.Request) *mcpsdk.Server {
			return opts.MCP
		}, nil)
		r.Handle("/mcp", mcpauth.RequireBearerToken(s.verifyBearer, nil)(streamable))
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: r,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// verifyBearer implements go-sdk/auth.TokenVerifier against the token
// store. The bearer itself travels in UserID so the tool layer can map
// it back to the delegated token.
func (s *Server) verifyBearer(ctx context.Context, token string, _ *http.Request) (*mcpauth.TokenInfo, error) {
	record, err := s.tokens.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown bearer", mcpauth.ErrInvalidToken)
	}
	expiration := record.ObtainedAt.Add(s.tokenTTL)
	if record.ObtainedAt.IsZero() {
		expiration = time.Now().Add(time.Hour)
	}
	return &mcpauth.TokenInfo{
		UserID:     token,
		Expiration: expiration,
	}, nil
}
