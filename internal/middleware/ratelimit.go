package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// BidRateLimit caps how many bids a user may place per minute, counted in a
// fixed redis window per uid. Without redis the limiter is a no-op, and a
// redis error fails open so bidding never depends on the cache being up.
func BidRateLimit(rdb *redis.Client, perMinute int) echo.MiddlewareFunc {
	if rdb == nil || perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid := UID(c)
			if uid == "" {
				return next(c)
			}
			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:bids:%s:%d", uid, time.Now().Unix()/60)

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				c.Logger().Warnf("rate limit redis error: %v", err)
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, time.Minute)
			}
			if count > int64(perMinute) {
				c.Response().Header().Set("Retry-After", "60")
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too_many_requests"})
			}
			return next(c)
		}
	}
}
