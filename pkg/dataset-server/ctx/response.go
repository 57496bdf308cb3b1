package ctx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/husmen/anomalib/pkg/dataset-server/ctx/errors"
)

type errorResponse struct {
	Msg  string           `json:"msg"`
	Code errors.ErrorCode `json:"code"`
	Data any              `json:"data"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func SuccessNoContent(c *gin.Context) {
	c.JSON(http.StatusNoContent, nil)
}

func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, nil)
}

func ErrorWithData(c *gin.Context, err error, data any) {
	if errD, ok := err.(*errors.DatasetError); ok {
		c.JSON(errD.HTTPCode(), errorResponse{
			Msg:  errD.Message(),
			Code: errD.ErrorCode(),
			Data: data,
		})
	} else {
		c.JSON(http.StatusInternalServerError, nil)
	}
}
