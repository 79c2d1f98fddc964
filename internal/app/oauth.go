package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/semmidev/sqlvault/internal/adapter/storage"
	"github.com/semmidev/sqlvault/internal/infrastructure/logger"
)

// DriveAuthServer walks an operator through Google's consent screen once to
// obtain the refresh token the gdrive upload target needs.
type DriveAuthServer struct {
	config *oauth2.Config
	logger *logger.Logger
	state  string
	server *http.Server
	tokens chan *oauth2.Token
}

func NewDriveAuthServer(log *logger.Logger, clientSecretFile, addr, state string) (*DriveAuthServer, error) {
	if clientSecretFile == "" {
		return nil, errors.New("client secret path cannot be empty")
	}

	cfg, err := storage.LoadDriveOAuthConfig(clientSecretFile)
	if err != nil {
		return nil, err
	}
	cfg.RedirectURL = "http://" + publicAddr(addr) + "/auth/google/callback"

	s := &DriveAuthServer{
		config: cfg,
		logger: log,
		state:  state,
		tokens: make(chan *oauth2.Token, 1),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

func (s *DriveAuthServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/google/drive", func(w http.ResponseWriter, r *http.Request) {
		authURL := s.config.AuthCodeURL(s.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	})

	mux.HandleFunc("GET /auth/google/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != s.state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code parameter", http.StatusBadRequest)
			return
		}

		token, err := s.config.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, fmt.Sprintf("token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		if token.RefreshToken == "" {
			fmt.Fprintln(w, "No refresh token returned. Revoke app access and authorize again.")
			return
		}

		tokenJSON, err := json.MarshalIndent(token, "", "  ")
		if err != nil {
			http.Error(w, "failed to marshal token", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "Refresh token:\n%s\n\nFull token JSON:\n%s\n", token.RefreshToken, tokenJSON)

		select {
		case s.tokens <- token:
		default:
		}
	})

	return mux
}

// Run serves until a refresh token arrives or ctx is cancelled.
func (s *DriveAuthServer) Run(ctx context.Context) (*oauth2.Token, error) {
	serveErr := make(chan error, 1)
	go func() {
		s.logger.Infof("Open http://%s/auth/google/drive to authorize Google Drive access", publicAddr(s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Errorf("OAuth server shutdown: %v", err)
		}
	}()

	select {
	case token := <-s.tokens:
		return token, nil
	case err := <-serveErr:
		return nil, fmt.Errorf("oauth server: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func publicAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
