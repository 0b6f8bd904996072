package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/dto"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/response"
)

func init() {
	// 请求体为封闭结构，未知字段一律拒绝
	binding.EnableDecoderDisallowUnknownFields = true
}

// MustBindJSON 解析 JSON 请求体。
// 解析失败时写入 400 响应并返回 false，调用方应直接 return。
func MustBindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "请求体格式错误", &dto.ErrorDetails{
			Kind:   "bad_request",
			Reason: err.Error(),
		})
		return false
	}
	return true
}
