package config

import (
	"flag"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_header_timeout", "15s")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("openweathermap.api_url", "http://api.openweathermap.org/data/2.5")
	viper.SetDefault("openweathermap.query_type", "accurate")
	viper.SetDefault("openweathermap.result_count", 5)
	viper.SetDefault("geolocation.provider", "ip")
	viper.SetDefault("geolocation.api_url", "http://ip-api.com/json")
	viper.SetDefault("geolocation.timeout", "10s")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.channel", "weather:state")
}

func initConfig() {
	once.Do(func() {
		setDefaults()
		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Errorw("Error finding project root", "error", err)
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Errorw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			viper.AddConfigPath(root)
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Errorw("Error merging test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// GetOpenWeatherApiUrl returns the provider base URL without a trailing resource path.
func GetOpenWeatherApiUrl() string {
	initConfig()
	return viper.GetString("openweathermap.api_url")
}

func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

// GetQueryType returns the fixed "type" query parameter sent with every provider request.
func GetQueryType() string {
	initConfig()
	return viper.GetString("openweathermap.query_type")
}

// GetResultCount returns the fixed "cnt" query parameter. Defaults to 5.
func GetResultCount() int {
	initConfig()
	cnt := viper.GetInt("openweathermap.result_count")
	if cnt <= 0 {
		return 5
	}
	return cnt
}

func GetGeolocationProvider() string {
	initConfig()
	return viper.GetString("geolocation.provider")
}

func GetGeolocationApiUrl() string {
	initConfig()
	return viper.GetString("geolocation.api_url")
}

// GetGeolocationTimeout bounds a single position lookup. Defaults to 10s.
func GetGeolocationTimeout() time.Duration {
	initConfig()
	dur, err := time.ParseDuration(viper.GetString("geolocation.timeout"))
	if err != nil || dur <= 0 {
		return 10 * time.Second
	}
	return dur
}

// GetStaticCoordinates returns the coordinates used by the static locator.
func GetStaticCoordinates() (lat, lon float64) {
	initConfig()
	return viper.GetFloat64("geolocation.latitude"), viper.GetFloat64("geolocation.longitude")
}

func GetRedisAddr() string {
	initConfig()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return viper.GetString("redis.addr")
}

func IsRedisEnabled() bool {
	initConfig()
	return viper.GetBool("redis.enabled")
}

func GetRedisChannel() string {
	initConfig()
	return viper.GetString("redis.channel")
}

func GetServerPort() string {
	initConfig()
	serverPort := viper.GetString("server.port")
	return serverPort
}

func GetServerTimeout(key string) string {
	initConfig()
	return viper.GetString("server." + key)
}

// GetServerTimeoutDuration parses server.<key> and falls back to def when unset or invalid.
func GetServerTimeoutDuration(key string, def time.Duration) time.Duration {
	dur, err := time.ParseDuration(GetServerTimeout(key))
	if err != nil {
		return def
	}
	return dur
}

func GetTestRedisMockPort() string {
	initConfig()
	return viper.GetString("test.redis_mock_port")
}

func GetTestServerPort() string {
	initConfig()
	return viper.GetString("test.server_port")
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	initConfig()
	durStr := viper.GetString("rate_limiter.cleanup_timeout")
	if durStr == "" {
		durStr = "3m"
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return 3 * time.Minute
	}
	return dur
}

// GetGlobalRateLimiterConfig returns the per-minute rate and burst for the global rate limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 10
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns the per-minute rate and burst for the param rate limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 2
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 2
	}
	return
}
