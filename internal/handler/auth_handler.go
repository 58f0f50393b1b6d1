package handler

import (
	"net/http"

	"github.com/blues/fundchain/internal/logic"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Nonce 申请登录 nonce 和待签名消息
func (h *AuthHandler) Nonce(c *gin.Context) {
	var req NonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	wallet, err := logic.ParseAddress(req.Address)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.auth.Nonce(c.Request.Context(), wallet)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Sign this message with your wallet", result)
}

// Verify 校验签名并签发令牌
func (h *AuthHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	wallet, err := logic.ParseAddress(req.Address)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.auth.Verify(c.Request.Context(), wallet, req.Nonce, req.Signature)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Signed in", result)
}

// GetSession 当前会话
func (h *AuthHandler) GetSession(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Sign in required")
		return
	}

	s, err := h.auth.Session(c.Request.Context(), wallet)
	if err != nil {
		HandleError(c, err)
		return
	}
	if s == nil {
		ErrorResponse(c, http.StatusNotFound, "No active session")
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", s)
}

// Logout 删除会话
func (h *AuthHandler) Logout(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Sign in required")
		return
	}

	if err := h.auth.Logout(c.Request.Context(), wallet); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Signed out", nil)
}
