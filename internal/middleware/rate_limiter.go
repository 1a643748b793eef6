package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"brokerdesk/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxTrackedClients caps the number of client IPs a limiter remembers. Once
// full, the least recently seen client is forgotten.
const maxTrackedClients = 10_000

type window struct {
	mu    sync.Mutex
	count int
	ends  time.Time
}

// fixedWindow counts requests per client IP. Entries expire with the window
// so idle clients do not accumulate.
type fixedWindow struct {
	limit   int
	period  time.Duration
	mu      sync.Mutex
	clients *expirable.LRU[string, *window]
}

func newFixedWindow(limit int, period time.Duration) *fixedWindow {
	return &fixedWindow{
		limit:   limit,
		period:  period,
		clients: expirable.NewLRU[string, *window](maxTrackedClients, nil, period),
	}
}

// allow records a request from key and reports whether it is within the
// limit, plus the time the current window ends.
func (f *fixedWindow) allow(key string, now time.Time) (bool, time.Time) {
	f.mu.Lock()
	w, ok := f.clients.Get(key)
	if !ok {
		w = &window{}
		f.clients.Add(key, w)
	}
	f.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	if now.After(w.ends) {
		w.count = 0
		w.ends = now.Add(f.period)
	}
	w.count++
	return w.count <= f.limit, w.ends
}

func (f *fixedWindow) middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, ends := f.allow(c.ClientIP(), time.Now())
		if !ok {
			retry := int(time.Until(ends).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newFixedWindow(20, time.Minute).middleware("too many login attempts, try again in a minute")
}

// RateLimiter is the general API limiter: limit requests per window per IP.
func RateLimiter(limit int, period time.Duration) gin.HandlerFunc {
	return newFixedWindow(limit, period).middleware("too many requests, try again shortly")
}
