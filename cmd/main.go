package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockflow/config"
	_ "stockflow/docs"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/database"
	"stockflow/internal/pkg/logger"

	"stockflow/internal/api/move"
	"stockflow/internal/api/order"
	"stockflow/internal/api/product"
	"stockflow/internal/api/router"
	"stockflow/internal/api/stock"
	"stockflow/internal/api/transfer"
	"stockflow/internal/api/warehouse"
	"stockflow/internal/domain"
	"stockflow/internal/repository/moverepo"
	"stockflow/internal/repository/orderrepo"
	"stockflow/internal/repository/productrepo"
	"stockflow/internal/repository/stockrepo"
	"stockflow/internal/repository/transferrepo"
	"stockflow/internal/repository/warehouserepo"
	"stockflow/internal/repository/workflowrepo"
	"stockflow/internal/service/movementservice"
	"stockflow/internal/service/moveservice"
	"stockflow/internal/service/productservice"
	"stockflow/internal/service/stockservice"
	"stockflow/internal/service/warehouseservice"
)

// @title StockFlow API
// @version 1.0
// @description Backend de inventário: catálogo, estoque por locação, recebimentos, entregas e transferências.
// @host localhost:8080
// @BasePath /api
func main() {
	// 1. Configuração e Inicialização
	if err := godotenv.Load(); err != nil {
		// Variáveis essenciais podem vir do ambiente (ex: Docker).
		log.Println("Aviso: arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	defer appLog.Sync()
	if err := cfg.Validate(); err != nil {
		appLog.Fatal("Configuração inválida.", err)
	}
	appLog.Info("Inicializando serviço StockFlow...", map[string]interface{}{"env": cfg.Environment})

	ctx := context.Background()

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	pool := database.DefaultPoolConfig()
	pool.MaxOpenConns = cfg.DBMaxOpenConns
	pool.MaxIdleConns = cfg.DBMaxIdleConns
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis); sem Redis o serviço segue com cache em memória.
	var cacheClient cache.Client
	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		appLog.Warn("Redis indisponível, usando cache em memória.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		if redisClient != nil {
			redisClient.Close()
		}
		cacheClient = cache.NewMemoryClient()
	} else {
		defer redisClient.Close()
		cacheClient = redisClient
		appLog.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
	}

	// 3. Injeção de Dependências: Repository -> Service -> Handler
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)
	warehouseRepo := warehouserepo.NewWarehouseRepository(db, cfg.DBTimeout, appLog)
	stockRepo := stockrepo.NewStockRepository(db, cfg.DBTimeout, appLog)
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout, appLog)
	transferRepo := transferrepo.NewTransferRepository(db, cfg.DBTimeout, appLog)
	moveRepo := moverepo.NewMoveRepository(db, cfg.DBTimeout, appLog)
	workflowStore := workflowrepo.NewStore(db, cfg.DBTimeout, orderRepo, transferRepo, stockRepo)

	productSvc := productservice.NewService(productRepo, appLog)
	warehouseSvc := warehouseservice.NewService(warehouseRepo, appLog)
	stockSvc := stockservice.NewService(stockRepo, appLog)
	moveSvc := moveservice.NewService(moveRepo, orderRepo, transferRepo, warehouseRepo, cacheClient, cfg.StatsCacheTTL, appLog)
	movementSvc := movementservice.NewService(workflowStore, orderRepo, transferRepo, moveSvc, appLog, movementservice.Options{
		DefaultWarehouseID: cfg.DefaultWarehouseID,
		DefaultLocationID:  cfg.DefaultLocationID,
	})

	handlers := router.Handlers{
		Products:   product.NewHandler(productSvc, appLog),
		Warehouses: warehouse.NewHandler(warehouseSvc, appLog),
		Stock:      stock.NewHandler(stockSvc, appLog),
		Receipts:   order.NewHandler(domain.KindReceipt, movementSvc, appLog),
		Deliveries: order.NewHandler(domain.KindDelivery, movementSvc, appLog),
		Transfers:  transfer.NewHandler(movementSvc, appLog),
		Moves:      move.NewHandler(moveSvc, movementSvc, appLog),
	}

	// 4. Roteador e Servidor
	r := router.NewRouter(handlers, db, cacheClient, appLog, router.Options{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimit:       cfg.RateLimitMaxRequests,
		RateLimitWindow: cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor StockFlow ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
