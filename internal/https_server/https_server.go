// Package https_server 创建 Gin 引擎并配置中间件和路由
package https_server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mood_chat_server/internal/config"
	"mood_chat_server/internal/handler"
	"mood_chat_server/internal/infrastructure/logger"
	"mood_chat_server/internal/infrastructure/middleware"
	"mood_chat_server/internal/router"
)

// Init 创建 Gin 引擎
// 配置顺序：
//  1. 日志和恢复中间件
//  2. CORS 跨域规则（mainConfig.corsOrigins 为空时允许所有来源）
//  3. 可选的 TLS 重定向
//  4. 业务路由
func Init(conf *config.MainConfig, handlers *handler.Handlers) *gin.Engine {
	if conf.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	if len(conf.CorsOrigins) > 0 {
		corsConfig.AllowOrigins = conf.CorsOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	engine.Use(cors.New(corsConfig))

	// 由 Nginx 处理 SSL 时关闭
	if conf.TlsRedirect {
		engine.Use(middleware.TlsHandler(conf.Host, conf.Port))
	}

	rt := router.NewRouter(handlers)
	rt.RegisterRoutes(engine)

	return engine
}
