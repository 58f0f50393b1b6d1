package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// HandleError 按错误分类选择状态码，分类错误附带 kind 和 hint
func HandleError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	var ce *contract.Error
	if errors.As(err, &ce) {
		c.JSON(status, Response{
			Success: false,
			Message: ce.Reason,
			Data:    ErrorDetail{Kind: string(ce.Kind), Hint: ce.Hint},
		})
		return
	}
	if status == http.StatusInternalServerError {
		ErrorResponse(c, status, "Internal server error")
		return
	}
	ErrorResponse(c, status, err.Error())
}

// StatusOf 错误到 HTTP 状态码
func StatusOf(err error) int {
	switch {
	case errors.Is(err, logic.ErrCampaignNotFound):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrUnauthorized):
		return http.StatusUnauthorized
	}

	switch contract.KindOf(err) {
	case contract.KindValidation:
		return http.StatusBadRequest
	case contract.KindDenied:
		return http.StatusForbidden
	case contract.KindRejected:
		return http.StatusUnprocessableEntity
	case contract.KindWallet:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// bindError 请求体校验失败
func bindError(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
}

// addressParam 解析路径中的地址
func addressParam(c *gin.Context, name string) (common.Address, bool) {
	addr, err := logic.ParseAddress(c.Param(name))
	if err != nil {
		HandleError(c, err)
		return common.Address{}, false
	}
	return addr, true
}
