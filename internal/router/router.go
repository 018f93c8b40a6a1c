package router

import (
	"time"

	"fiscalpos/internal/config"
	"fiscalpos/internal/handler"
	"fiscalpos/internal/middleware"
	"fiscalpos/internal/repository"
	"fiscalpos/internal/service"
	"fiscalpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	caiRepo := repository.NewCAIRepository(db)
	facturaRepo := repository.NewFacturaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	secuenciaSvc := service.NewSecuenciaService(caiRepo)
	caiSvc := service.NewCAIService(caiRepo, facturaRepo, cfg.CAIUmbralAlerta)
	cajaSvc := service.NewCajaService(cajaRepo, facturaRepo)
	cuadreSvc := service.NewCuadreService(cajaRepo, facturaRepo)
	facturacionSvc := service.NewFacturacionService(facturaRepo, cajaRepo, secuenciaSvc, dispatcher, cfg.CAIUmbralAlerta)

	// ── Handlers ─────────────────────────────────────────────────────────────
	caiH := handler.NewCAIHandler(caiSvc)
	facturacionH := handler.NewFacturacionHandler(facturacionSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	cuadreH := handler.NewCuadreHandler(cuadreSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// CAI administration — administrador only for writes; cashiers may
		// read the active authorization to render it on tickets.
		v1.GET("/cai/activo", middleware.RequireRole("cajero", "supervisor", "administrador"), caiH.ObtenerActivo)
		cai := v1.Group("/cai", middleware.RequireRole("administrador"))
		{
			cai.POST("", caiH.Crear)
			cai.GET("", caiH.Listar)
			cai.PUT("/:id", caiH.Actualizar)
			cai.DELETE("/:id", caiH.Eliminar)
			cai.POST("/:id/activar", caiH.Activar)
			cai.GET("/:id/restante", caiH.Restante)
		}

		fact := v1.Group("/facturas", middleware.RequireRole("cajero", "supervisor", "administrador"))
		{
			fact.POST("", facturacionH.Emitir)
			fact.GET("/:id", facturacionH.Obtener)
			fact.POST("/:id/reimprimir", facturacionH.Reimprimir)
			fact.GET("/sesion/:sesion_id", facturacionH.ListarPorSesion)
		}

		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.Abrir)
			caja.POST("/cerrar", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.Cerrar)
			caja.GET("/activa", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.ObtenerActiva)
			caja.GET("/:id", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.Obtener)
			caja.GET("/historial", middleware.RequireRole("supervisor", "administrador"), cajaH.Historial)
			caja.POST("/:id/cuadre-previo", middleware.RequireRole("cajero", "supervisor", "administrador"), cuadreH.Previo)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
