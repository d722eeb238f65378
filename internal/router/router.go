package router

import (
	"github.com/tegar-arsya/hanadap-sub000/internal/config"
	"github.com/tegar-arsya/hanadap-sub000/internal/handler"
	"github.com/tegar-arsya/hanadap-sub000/internal/infra"
	"github.com/tegar-arsya/hanadap-sub000/internal/middleware"
	"github.com/tegar-arsya/hanadap-sub000/internal/repository"
	"github.com/tegar-arsya/hanadap-sub000/internal/service"
	"github.com/tegar-arsya/hanadap-sub000/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the long-lived resources the HTTP surface is built on.
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Mailer     *infra.Mailer
	Dispatcher *worker.Dispatcher
	Nomor      service.PenomoranPermintaan
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) (*gin.Engine, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	rateLimit, err := middleware.RateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(rateLimit)

	// ── Repositories ─────────────────────────────────────────────────────────
	txm := repository.NewTxManager(d.DB, cfg.LockTimeout())
	barangRepo := repository.NewBarangRepository(d.DB)
	batchRepo := repository.NewBatchRepository(d.DB)
	mutasiRepo := repository.NewMutasiStokRepository(d.DB)
	permintaanRepo := repository.NewPermintaanRepository(d.DB)
	aktivitasRepo := repository.NewAktivitasRepository(d.DB)
	kategoriRepo := repository.NewKategoriRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	aktivitasSvc := service.NewAktivitasService(aktivitasRepo)
	stokSvc := service.NewStokService(txm, barangRepo, batchRepo, mutasiRepo)
	permintaanSvc := service.NewPermintaanService(txm, permintaanRepo, barangRepo, stokSvc, aktivitasSvc, d.Dispatcher, d.Nomor)
	importSvc := service.NewImportService(txm, barangRepo, stokSvc, aktivitasSvc)
	kategoriSvc := service.NewKategoriService(kategoriRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	barangH := handler.NewBarangHandler(stokSvc)
	permintaanH := handler.NewPermintaanHandler(permintaanSvc)
	importH := handler.NewImportHandler(importSvc)
	kategoriH := handler.NewKategoriHandler(kategoriSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.Mailer))

	admin := middleware.RequireRole(middleware.RolAdmin)
	semua := middleware.RequireRole(middleware.RolAdmin, middleware.RolStaf)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/kategori", semua, kategoriH.Daftar)
		v1.POST("/kategori", admin, kategoriH.Buat)

		v1.GET("/barang", semua, barangH.Daftar)
		v1.GET("/barang/:id", semua, barangH.Ambil)
		v1.POST("/barang/:id/retur", semua, barangH.Retur)
		barang := v1.Group("/barang", admin)
		{
			barang.POST("", barangH.Buat)
			barang.GET("/:id/rekonsiliasi", barangH.Rekonsiliasi)
			barang.POST("/:id/stok-masuk", barangH.StokMasuk)
			barang.POST("/:id/stok-keluar", barangH.StokKeluar)
		}

		v1.GET("/mutasi", admin, barangH.DaftarMutasi)
		v1.POST("/stok/import", admin, importH.ImportStok)

		permintaan := v1.Group("/permintaan")
		{
			permintaan.POST("", semua, permintaanH.Buat)
			permintaan.GET("", semua, permintaanH.Daftar)
			permintaan.GET("/:id", semua, permintaanH.Ambil)
			permintaan.POST("/:id/setujui", admin, permintaanH.Setujui)
			permintaan.POST("/:id/tolak", admin, permintaanH.Tolak)
		}
	}

	return r, nil
}
