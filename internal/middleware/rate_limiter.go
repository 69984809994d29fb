package middleware

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
)

// paramKey is the query parameter key used for per-param rate limiting (default: "city").
var paramKey = "city"

// SetParamKey sets the query parameter key for per-param rate limiting. Used primarily for testing.
func SetParamKey(key string) {
	paramKey = key
}

// visitor holds a rate limiter and the last time its bucket was used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	// globalVisitors maps IP addresses to their global limiter.
	globalVisitors = make(map[string]*visitor) // key: ip
	// paramVisitors maps IP addresses and parameter values to their per-param limiter.
	paramVisitors = make(map[string]map[string]*visitor) // key: ip -> paramValue -> visitor
	muGlobal      sync.Mutex
	muParam       sync.Mutex
)

// perMinute converts a requests-per-minute setting into a token rate.
func perMinute(n float64) rate.Limit {
	return rate.Limit(n / 60.0)
}

// getGlobalLimiter returns the rate limiter for the given IP address, creating one if it does not exist.
func getGlobalLimiter(ip string) *rate.Limiter {
	muGlobal.Lock()
	defer muGlobal.Unlock()
	v, exists := globalVisitors[ip]
	if !exists {
		r, burst := config.GetGlobalRateLimiterConfig()
		limiter := rate.NewLimiter(perMinute(r), burst)
		globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// getParamLimiter returns the rate limiter for the given IP address and parameter value, creating one if it does not exist.
func getParamLimiter(ip, param string) *rate.Limiter {
	muParam.Lock()
	defer muParam.Unlock()
	if _, ok := paramVisitors[ip]; !ok {
		paramVisitors[ip] = make(map[string]*visitor)
	}
	v, exists := paramVisitors[ip][param]
	if !exists {
		r, burst := config.GetParamRateLimiterConfig()
		limiter := rate.NewLimiter(perMinute(r), burst)
		paramVisitors[ip][param] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors drops buckets idle for longer than maxIdle.
func cleanupVisitors(maxIdle time.Duration) {
	muGlobal.Lock()
	for ip, v := range globalVisitors {
		if time.Since(v.lastSeen) > maxIdle {
			delete(globalVisitors, ip)
		}
	}
	muGlobal.Unlock()

	muParam.Lock()
	for ip, paramMap := range paramVisitors {
		for param, v := range paramMap {
			if time.Since(v.lastSeen) > maxIdle {
				delete(paramMap, param)
			}
		}
		if len(paramMap) == 0 {
			delete(paramVisitors, ip)
		}
	}
	muParam.Unlock()
}

// StartRateLimiterCleanup starts a background goroutine that removes idle visitors every minute.
func StartRateLimiterCleanup() {
	maxIdle := config.GetRateLimiterCleanupTimeout()
	go func() {
		for {
			time.Sleep(time.Minute)
			cleanupVisitors(maxIdle)
		}
	}()
}

// ResetVisitors clears all visitor states for both global and per-param limiters. Used primarily for testing.
func ResetVisitors() {
	muGlobal.Lock()
	for k := range globalVisitors {
		delete(globalVisitors, k)
	}
	muGlobal.Unlock()
	muParam.Lock()
	for k := range paramVisitors {
		delete(paramVisitors, k)
	}
	muParam.Unlock()
}

// getIP extracts the client's IP address from the HTTP request, considering X-Forwarded-For headers.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

// getParam extracts the value of the configured parameter from the query, or from the
// matched route path (e.g. /details/{city}) when the query does not carry it.
func getParam(r *http.Request) string {
	v := r.URL.Query().Get(paramKey)
	if v == "" {
		v = r.PathValue(paramKey)
	}
	return strings.ToLower(v)
}

func tooManyRequests(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.Response{
		Error:   &errMsg,
		Message: message,
	})
}

// RateLimitMiddleware returns an HTTP middleware that enforces global and per-parameter rate limiting.
// If the rate limit is exceeded, it responds with a 429 status and a JSON error message.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		param := getParam(r)
		if param == "" {
			// If param is missing, treat as a single bucket
			param = "__none__"
		}
		globalLimiter := getGlobalLimiter(ip)
		paramLimiter := getParamLimiter(ip, param)
		if !globalLimiter.Allow() {
			globalRate, _ := config.GetGlobalRateLimiterConfig()
			tooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per user/IP", globalRate),
				"Too Many Requests (global limit)")
			return
		}
		if !paramLimiter.Allow() {
			paramRate, _ := config.GetParamRateLimiterConfig()
			tooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per %s per user/IP", paramRate, paramKey),
				"Too Many Requests (per-param limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}
