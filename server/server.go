package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
	"github.com/dbroute/dbroute/controller"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/router"
	"github.com/dbroute/dbroute/server/enforce"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type ApiServer struct {
	config   *config.DBRouteConfig
	services *router.Services
	svr      *http.Server
}

func NewApiServer(config *config.DBRouteConfig, services *router.Services) *ApiServer {
	server := &ApiServer{}
	server.config = config
	server.services = services
	return server
}

// Handler builds the gin engine with every middleware and route.
func (server *ApiServer) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// add log middleware
	r.Use(ginLoggerToFile())

	controller.TokenCache = cache.New(time.Duration(server.config.Server.SessionTimeout)*time.Second, time.Minute)
	userController := controller.NewUserController(server.config, router.WrapMsg)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// http://127.0.0.1:8809/debug/pprof/
	if server.config.Server.Pprof {
		pprof.Register(r)
	}

	groupApi := r.Group("/api")
	if server.config.Server.RateLimit > 0 {
		groupApi.Use(ginRateLimit(server.config.Server.RateLimit, server.config.Server.RateBurst))
	}
	groupApi.POST("/login", userController.Login)
	// add authenticate middleware for /api
	groupApi.Use(ginJWTAuth(common.NewJWT(server.config.Server.SigningKey)))
	groupApi.Use(ginRefreshTokenExpires())
	groupApi.PUT("/logout", userController.Logout)
	groupV1 := groupApi.Group("/v1")
	groupV1.Use(ginEnforce())
	router.InitRouterV1(groupV1, server.config, server.services)
	return r
}

func (server *ApiServer) Start() error {
	bind := fmt.Sprintf("%s:%d", server.config.Server.Ip, server.config.Server.Port)
	server.svr = &http.Server{
		Addr:         bind,
		WriteTimeout: time.Second * 300,
		ReadTimeout:  time.Second * 300,
		IdleTimeout:  time.Second * 60,
		Handler:      server.Handler(),
	}

	if server.config.Server.Https {
		go func() {
			if err := server.svr.ListenAndServeTLS(server.config.Server.CertFile, server.config.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				log.Logger.Fatalf("start https server fail: %s", err.Error())
			}
		}()
	} else {
		go func() {
			if err := server.svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Logger.Fatalf("start http server start fail: %s", err.Error())
			}
		}()
	}
	log.Logger.Infof("dbroute listening on %s, https: %v", bind, server.config.Server.Https)
	return nil
}

func (server *ApiServer) Stop() error {
	if server.svr == nil {
		return nil
	}
	waitTimeout := time.Duration(time.Second * 10)
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	return server.svr.Shutdown(ctx)
}

func ginLoggerToFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latencyTime := time.Since(startTime)
		reqMethod := c.Request.Method
		reqUri := c.Request.RequestURI
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		if statusCode < http.StatusBadRequest {
			log.Logger.Infof("| %3d | %13v | %15s | %s | %s",
				statusCode,
				latencyTime,
				clientIP,
				reqMethod,
				reqUri,
			)
		} else {
			log.Logger.Errorf("| %3d | %13v | %15s | %s | %s",
				statusCode,
				latencyTime,
				clientIP,
				reqMethod,
				reqUri,
			)
		}
	}
}

func ginJWTAuth(j *common.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			router.WrapMsg(c, model.E_JWT_TOKEN_NONE, nil)
			c.Abort()
			return
		}

		claims, err := j.ParserToken(token)
		if err != nil {
			code := model.E_JWT_TOKEN_INVALID
			if errors.Is(err, common.ErrTokenExpired) {
				code = model.E_JWT_TOKEN_EXPIRED
			}
			router.WrapMsg(c, code, nil)
			c.Abort()
			return
		}

		// Verify Expires
		if _, ok := controller.TokenCache.Get(token); !ok {
			router.WrapMsg(c, model.E_JWT_TOKEN_EXPIRED, nil)
			c.Abort()
			return
		}

		// Verify client ip
		if claims.ClientIP != c.ClientIP() {
			router.WrapMsg(c, model.E_JWT_TOKEN_IP_MISMATCH, nil)
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("token", token)
	}
}

func ginRefreshTokenExpires() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if value, exists := c.Get("token"); exists {
			token := value.(string)
			if token != "" {
				controller.TokenCache.SetDefault(token, time.Now().Add(time.Second*time.Duration(config.GlobalConfig.Server.SessionTimeout)).Unix())
			}
		}
	}
}

func ginEnforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("claims")
		if !exists {
			router.WrapMsg(c, model.E_JWT_TOKEN_NONE, nil)
			c.Abort()
			return
		}
		claims := value.(*common.CustomClaims)
		if !enforce.Enforce(claims.Name, c.Request.URL.Path, c.Request.Method) {
			router.WrapMsg(c, model.E_PERMISSION_DENIED, claims.Name)
			c.Abort()
			return
		}
	}
}

// ginRateLimit keeps one token bucket per client ip. Idle buckets expire
// from the cache after ten minutes.
func ginRateLimit(limit, burst int) gin.HandlerFunc {
	if burst < limit {
		burst = limit
	}
	buckets := cache.New(10*time.Minute, time.Minute)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		var limiter *rate.Limiter
		if v, ok := buckets.Get(ip); ok {
			limiter = v.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(rate.Limit(limit), burst)
			if err := buckets.Add(ip, limiter, cache.DefaultExpiration); err != nil {
				// lost the race, use the winner
				if v, ok := buckets.Get(ip); ok {
					limiter = v.(*rate.Limiter)
				}
			}
		}
		buckets.SetDefault(ip, limiter)
		if !limiter.Allow() {
			router.WrapMsg(c, model.E_TOO_MANY_REQUESTS, ip)
			c.Abort()
			return
		}
	}
}
