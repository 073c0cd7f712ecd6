package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "github.com/pulsechat/gateway/middleware/security"
)

type RouteOpt struct {
	IsAuth bool
}

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(midsec.DefaultOptions()), handler)
	} else {
		r.POST(path, handler)
	}
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(midsec.DefaultOptions()), handler)
	} else {
		r.GET(path, handler)
	}
}

func PUT(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.PUT(path, midsec.Middleware(midsec.DefaultOptions()), handler)
	} else {
		r.PUT(path, handler)
	}
}

func DELETE(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.DELETE(path, midsec.Middleware(midsec.DefaultOptions()), handler)
	} else {
		r.DELETE(path, handler)
	}
}
