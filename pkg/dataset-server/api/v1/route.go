// Package v1 declares the dataset apiserver route table.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/husmen/anomalib/pkg/dataset-server/hdlr"
)

type Route struct {
	Method      string
	Pattern     string
	HandlerFunc gin.HandlerFunc
}

var Routes = func(mgr *hdlr.Mgr) []Route {
	return []Route{
		{
			Method:      http.MethodGet,
			Pattern:     "/v1/categories",
			HandlerFunc: mgr.ListCategories,
		},
		{
			Method:      http.MethodGet,
			Pattern:     "/v1/categories/:category/samples",
			HandlerFunc: mgr.ListSamples,
		},
		{
			Method:      http.MethodGet,
			Pattern:     "/v1/categories/:category/stats",
			HandlerFunc: mgr.GetStats,
		},
	}
}
