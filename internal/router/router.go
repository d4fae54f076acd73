package router

import (
	"time"

	"posagent/internal/billing"
	"posagent/internal/cart"
	"posagent/internal/catalog"
	"posagent/internal/config"
	"posagent/internal/handler"
	"posagent/internal/infra"
	"posagent/internal/journal"
	"posagent/internal/middleware"
	"posagent/internal/model"
	"posagent/internal/party"
	"posagent/internal/receipt"
	"posagent/internal/register"
	"posagent/internal/settings"
	"posagent/internal/shift"
	"posagent/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App is the composed agent: the HTTP engine plus the long-lived pieces the
// entrypoint needs for startup restore and the maintenance scheduler.
type App struct {
	Engine  *gin.Engine
	Catalog *catalog.Service
	Manager *register.Manager
	Journal journal.Repository
	Gate    *shift.Gate
}

// New wires all dependencies and returns the composed application.
// Dependency graph: Handler ← Coordinator/Manager ← Upstream client / Redis / DB.
// db may be nil — the journal then runs in-memory and survives until restart.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, client *upstream.Client) *App {
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

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	settingsStore := settings.NewStore(rdb)
	cartStore := cart.NewRedisStore(rdb)

	var journalRepo journal.Repository
	if db != nil {
		journalRepo = journal.NewRepository(db)
	} else {
		journalRepo = journal.NewMemoryRepository()
	}

	// ── Domain services ──────────────────────────────────────────────────────
	cat := catalog.NewService(client)
	gate := shift.NewGate(client, 30*time.Second)
	partyValidator := party.NewValidator(cfg.PhoneRegion)
	partySvc := party.NewService(client, partyValidator)

	mgr := register.NewManager(register.ManagerConfig{
		ScanMinLength:  cfg.ScanMinLength,
		ScanIdleMS:     cfg.ScanIdleMS,
		ReservedPrefix: cfg.ReservedScanPrefix,
	}, cat, cartStore)

	registers := []string{
		register.RegisterSell, register.RegisterAdminSell,
		register.RegisterBuy, register.RegisterTransfer,
	}
	coord := billing.NewCoordinator(client, journalRepo, partyValidator, registers)

	renderReceipt := func(bill *model.Bill, ps settings.PrinterSettings) (string, error) {
		return receipt.Render(bill, cfg.ReceiptStoragePath, ps)
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	catalogH := handler.NewCatalogHandler(cat)
	registersH := handler.NewRegistersHandler(mgr, coord, gate, client, cat, settingsStore, mailer, renderReceipt)
	shiftH := handler.NewShiftHandler(gate)
	journalH := handler.NewJournalHandler(journalRepo)
	settingsH := handler.NewSettingsHandler(settingsStore)
	partiesH := handler.NewPartiesHandler(partySvc)
	batchesH := handler.NewBatchesHandler(client)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb, client.Breaker(), cat))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		cata := v1.Group("/catalog")
		{
			cata.GET("/search", catalogH.Search)
			cata.GET("/barcode/:code", catalogH.ByBarcode)
			cata.POST("/refresh", catalogH.Refresh)
		}

		reg := v1.Group("/registers/:register")
		{
			reg.GET("", registersH.State)
			reg.POST("/keys", registersH.FeedKeys)
			reg.POST("/lines", registersH.AddLine)
			reg.DELETE("/lines", registersH.ClearCart)
			reg.PATCH("/lines/:product_id", registersH.EditLine)
			reg.DELETE("/lines/:product_id", registersH.RemoveLine)
			reg.GET("/lines/:product_id/batches", registersH.ProposeAllocation)
			reg.PUT("/lines/:product_id/batches", registersH.CommitAllocation)
			reg.PATCH("/fields", registersH.SetFields)
			reg.PUT("/party", registersH.AttachParty)
			reg.DELETE("/party", registersH.DetachParty)
			reg.POST("/checkout", registersH.Checkout)
			reg.POST("/reprint", registersH.Reprint)
		}

		v1.GET("/products/:id/batches", batchesH.List)
		v1.PUT("/products/:id/batches", batchesH.Update)

		v1.GET("/shift", shiftH.Status)
		v1.POST("/shift/close", shiftH.Close)

		v1.GET("/journal", journalH.List)

		st := v1.Group("/settings")
		{
			st.GET("/printer", settingsH.GetPrinter)
			st.PUT("/printer", settingsH.SetPrinter)
			st.GET("/kv/:key", settingsH.Get)
			st.PUT("/kv/:key", settingsH.Set)
		}

		parties := v1.Group("/parties")
		{
			parties.POST("", partiesH.Create)
			parties.PUT("/:id", partiesH.Update)
			parties.DELETE("/:id", partiesH.Delete)
		}
	}

	return &App{
		Engine:  r,
		Catalog: cat,
		Manager: mgr,
		Journal: journalRepo,
		Gate:    gate,
	}
}
