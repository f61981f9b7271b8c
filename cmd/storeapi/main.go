package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/cache"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/httpapi"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/payments"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/repository"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/service"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()

	httpPort := getEnv("HTTP_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "dev-secret")
	requestTimeout := 30 * time.Second
	shutdownTimeout := 10 * time.Second

	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDBName := getEnv("MONGO_DB_NAME", "storedb")

	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, mongoURI, mongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", mongoURI)

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	favoritesRepo := repository.NewMongoFavoritesRepository(mongoDB)
	productRepo := repository.NewMongoProductRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	redisCache := cache.NewRedisCache(redisClient)

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}
	creds := &payments.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "payments"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./migrations"),
	}

	sessionStore, err := payments.NewStore(creds)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer sessionStore.Close()

	if err := sessionStore.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to Postgres at %s:%d", creds.Host, creds.Port)

	klarna := payments.NewKlarnaClient(payments.KlarnaConfig{
		APIURL:    getEnv("KLARNA_API_URL", "https://api.playground.klarna.com"),
		Username:  getEnv("KLARNA_USERNAME", ""),
		Password:  getEnv("KLARNA_PASSWORD", ""),
		ReturnURL: getEnv("KLARNA_RETURN_URL", "http://localhost:3000/checkout/confirmation"),
	})

	cartService := service.NewCartService(cartRepo, productRepo, redisCache)
	favoritesService := service.NewFavoritesService(favoritesRepo, productRepo, redisCache)
	paymentService := payments.NewService(sessionStore, klarna)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Cart:      httpapi.NewCartHandler(cartService, requestTimeout),
		Favorites: httpapi.NewFavoritesHandler(favoritesService, requestTimeout),
		Payments:  httpapi.NewPaymentHandler(paymentService, requestTimeout),
		JWTSecret: []byte(jwtSecret),
	})

	srv := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Store API listening on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	mongoDB.Client().Disconnect(ctx)
	log.Println("server exited")
}
