package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/motoauto/auction-backend/internal/auction"
	"github.com/motoauto/auction-backend/internal/config"
	"github.com/motoauto/auction-backend/internal/event"
	"github.com/motoauto/auction-backend/internal/handler"
	appmw "github.com/motoauto/auction-backend/internal/middleware"
	"github.com/motoauto/auction-backend/internal/repository"
	"github.com/motoauto/auction-backend/internal/service"
	"github.com/motoauto/auction-backend/internal/ws"
)

type Server struct {
	e        *echo.Echo
	auctions service.AuctionService
	sha      string
	build    string
}

type structValidator struct {
	validate *validator.Validate
}

func (v *structValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// New wires repositories, services and routes. extra broadcasters (redis,
// message queue) are optional; the in-process hub and the notification
// writer are always part of the fan-out.
func New(db *gorm.DB, cfg *config.Config, rdb *redis.Client, extra []event.Broadcaster, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &structValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			return strings.HasSuffix(u.Hostname(), "motoauto.ch"), nil
		},
	}))

	listingRepo := repository.NewListingRepository(db)
	auctionRepo := repository.NewAuctionRepository(db)
	bidRepo := repository.NewBidRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	notifSvc := service.NewNotificationService(notifRepo, auctionRepo)

	hub := event.NewHub()
	fanout := event.Fanout{hub, notifSvc}
	for _, b := range extra {
		if b != nil {
			fanout = append(fanout, b)
		}
	}

	terms := auction.CommissionTerms{
		Rate:    cfg.CommissionRate,
		Cap:     cfg.CommissionCap,
		VATRate: cfg.VATRate,
	}

	listingSvc := service.NewListingService(listingRepo)
	auctionSvc := service.NewAuctionService(auctionRepo, bidRepo, listingRepo, fanout, terms, cfg.PaymentDueDays)
	bidSvc := service.NewBidService(auctionRepo, bidRepo, fanout, cfg.BidMaxRetries)

	listingHandler := handler.NewListingHandler(listingSvc)
	auctionHandler := handler.NewAuctionHandler(auctionSvc)
	bidHandler := handler.NewBidHandler(bidSvc)
	notifHandler := handler.NewNotificationHandler(notifSvc)
	streamHandler := handler.NewStreamHandler(ws.NewManager(hub))

	authMw := appmw.NewAuthMiddleware(cfg.JWTSecret)
	bidLimit := appmw.BidRateLimit(rdb, cfg.BidRatePerMinute)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	api := e.Group("/api")
	api.GET("/listings", listingHandler.List)
	api.GET("/listings/:id", listingHandler.Get)
	api.POST("/listings", listingHandler.Create, authMw.RequireAuth)

	api.GET("/auctions/ending-soon", auctionHandler.EndingSoon)
	api.POST("/auctions", auctionHandler.Create, authMw.RequireAuth)
	api.GET("/auctions/:id", auctionHandler.Get, authMw.OptionalAuth)
	api.POST("/auctions/:id/publish", auctionHandler.Publish, authMw.RequireAuth)
	api.POST("/auctions/:id/cancel", auctionHandler.Cancel, authMw.RequireAuth)
	api.GET("/auctions/:id/bids", auctionHandler.ListBids, authMw.OptionalAuth)
	api.POST("/auctions/:id/bids", bidHandler.Place, authMw.RequireAuth, bidLimit)
	api.GET("/auctions/:id/commission", auctionHandler.CommissionEstimate, authMw.RequireAuth)
	api.POST("/auctions/:id/settle", auctionHandler.Settle, authMw.RequireAuth)
	api.GET("/auctions/:id/watchers", streamHandler.Watchers)

	api.GET("/notifications", notifHandler.List, authMw.RequireAuth)
	api.POST("/notifications/read", notifHandler.MarkAllRead, authMw.RequireAuth)

	e.GET("/ws/auctions/:id", streamHandler.Watch)

	return &Server{e: e, auctions: auctionSvc, sha: sha, build: buildTime}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Auctions exposes the auction service for the settlement ticker.
func (s *Server) Auctions() service.AuctionService {
	return s.auctions
}
