package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxWallet    = "wallet"
)

// TokenParser 校验 Bearer 令牌并返回钱包地址
type TokenParser interface {
	ParseToken(token string) (common.Address, error)
}

// OperatorSource 运营钱包地址
type OperatorSource interface {
	Operator(ctx context.Context) (common.Address, error)
}

// RequestID 透传或生成请求 ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog 请求日志
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.With(
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.String("client_ip", c.ClientIP()),
		).Info("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Metrics 按路由模板统计请求
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// CORS中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// Auth 校验 Bearer 令牌，把钱包地址放入上下文
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			ErrorResponse(c, http.StatusUnauthorized, "Missing or invalid authorization header")
			c.Abort()
			return
		}

		wallet, err := parser.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			ErrorResponse(c, http.StatusUnauthorized, "Invalid token")
			c.Abort()
			return
		}
		c.Set(ctxWallet, wallet)
		c.Next()
	}
}

// OperatorOnly 写操作由运营钱包签名，只有该钱包登录后才能触发
func OperatorOnly(operator OperatorSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := walletFrom(c)
		if !ok {
			ErrorResponse(c, http.StatusUnauthorized, "Sign in required")
			c.Abort()
			return
		}

		addr, err := operator.Operator(c.Request.Context())
		if err != nil {
			ErrorResponse(c, http.StatusServiceUnavailable, "No operator wallet configured")
			c.Abort()
			return
		}
		if addr != wallet {
			ErrorResponse(c, http.StatusForbidden, "Only the operator wallet can submit transactions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// walletFrom 读取 Auth 放入的钱包地址
func walletFrom(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(ctxWallet)
	if !ok {
		return common.Address{}, false
	}
	wallet, ok := v.(common.Address)
	return wallet, ok
}
