package socialauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/evently/evently-auth/internal/router"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 30 * time.Second
)

// ErrServerClosed is returned by Wait when the server stops before a callback arrives.
var ErrServerClosed = errors.New("callback server closed")

// CallbackServer receives the provider redirect on a loopback address.
// Only the first callback is reconciled; later requests get a page saying
// the sign-in was already handled.
type CallbackServer struct {
	addr       string
	reconciler *Reconciler
	engine     *gin.Engine

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener

	once     sync.Once
	outcomes chan Outcome
	closed   chan struct{}
	stop     sync.Once
}

// NewCallbackServer creates a server that will listen on addr.
func NewCallbackServer(addr string, r *Reconciler) *CallbackServer {
	s := &CallbackServer{
		addr:       addr,
		reconciler: r,
		outcomes:   make(chan Outcome, 1),
		closed:     make(chan struct{}),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(noStoreMiddleware())
	engine.Use(loggerMiddleware())
	engine.SetHTMLTemplate(pages())

	engine.GET(router.SocialCallbackPath, s.handleCallback)
	engine.NoRoute(func(c *gin.Context) {
		rerr := router.NotFound()
		c.HTML(rerr.Status, pageError, gin.H{
			"Title":   router.Title("Page Not Found"),
			"Status":  rerr.Status,
			"Message": rerr.Message,
		})
	})

	s.engine = engine
	return s
}

// Handler exposes the routes, for tests and embedding.
func (s *CallbackServer) Handler() http.Handler {
	return s.engine
}

// Start binds the listen address and serves in the background.
func (s *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	s.mu.Lock()
	s.srv = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("socialauth: callback server stopped")
		}
		s.stop.Do(func() { close(s.closed) })
	}()

	log.Debug().Str("addr", ln.Addr().String()).Msg("socialauth: callback server listening")
	return nil
}

// URL is the callback address providers should redirect to.
func (s *CallbackServer) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := s.addr
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}
	return "http://" + addr + router.SocialCallbackPath
}

// Wait blocks until the first callback is reconciled, ctx ends, or the
// server shuts down.
func (s *CallbackServer) Wait(ctx context.Context) (Outcome, error) {
	select {
	case o := <-s.outcomes:
		return o, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-s.closed:
		// A callback may have raced the shutdown.
		select {
		case o := <-s.outcomes:
			return o, nil
		default:
			return Outcome{}, ErrServerClosed
		}
	}
}

// Shutdown stops the server, letting in-flight requests finish.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	defer s.stop.Do(func() { close(s.closed) })
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *CallbackServer) handleCallback(c *gin.Context) {
	first := false
	var outcome Outcome
	s.once.Do(func() {
		first = true
		outcome = s.reconciler.Reconcile(c.Request.URL.Query())
		s.outcomes <- outcome
	})

	if !first {
		c.HTML(http.StatusOK, pageDone, gin.H{"Title": router.Title("Signing In")})
		return
	}

	status := http.StatusOK
	if outcome.Failed() {
		status = http.StatusBadRequest
	}
	c.HTML(status, pageResult, gin.H{
		"Title":   router.Title("Signing In"),
		"Failed":  outcome.Failed(),
		"Message": outcome.Message,
	})
}

// noStoreMiddleware keeps callback URLs, which carry tokens, out of caches
// and Referer headers.
func noStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		c.Next()
	}
}

// loggerMiddleware logs requests without their query string.
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("socialauth: http request")
	}
}
