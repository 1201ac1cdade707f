package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const healthPingTimeout = 5 * time.Second

// Health is the database view an operator wants on one screen: does it
// answer, and what is the pool doing.
type Health struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	TotalConn int32  `json:"total_conns"`
	IdleConn  int32  `json:"idle_conns"`
	InUseConn int32  `json:"in_use_conns"`
	MaxConn   int32  `json:"max_conns"`
}

// CheckHealth pings the database and snapshots the pool counters.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) Health {
	stat := pool.Stat()
	h := Health{
		Status:    "ok",
		TotalConn: stat.TotalConns(),
		IdleConn:  stat.IdleConns(),
		InUseConn: stat.AcquiredConns(),
		MaxConn:   stat.MaxConns(),
	}
	if err := pool.Ping(ctx); err != nil {
		h.Status = "unavailable"
		h.Error = err.Error()
	}
	return h
}

// HealthHandler serves the database health endpoint. Anything but 200 takes
// the instance out of a load balancer's rotation.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
		defer cancel()

		h := CheckHealth(ctx, pool)
		if h.Status != "ok" {
			return c.JSON(http.StatusServiceUnavailable, h)
		}
		return c.JSON(http.StatusOK, h)
	}
}
