package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"restopos/internal/domain"
	"restopos/internal/pos"
	"restopos/internal/repository"
	"restopos/internal/service"
)

// Pinger зависимость, которую проверяет /health
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	CORSOrigins []string
	Checks      map[string]Pinger
}

type Server struct {
	engine   *gin.Engine
	products *service.ProductService
	sessions *service.SessionService
	orders   *service.OrderService
	log      *zap.SugaredLogger
	checks   map[string]Pinger
}

func NewServer(cfg Config, products *service.ProductService, sessions *service.SessionService, orders *service.OrderService, log *zap.SugaredLogger) *Server {
	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	s := &Server{engine: r, products: products, sessions: sessions, orders: orders, log: log, checks: cfg.Checks}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/health", s.health)

		products := v1.Group("/products")
		products.POST("", s.createProduct)
		products.GET(":id", s.getProduct)
		products.PUT(":id", s.updateProduct)
		products.DELETE(":id", s.deleteProduct)
		products.GET("", s.listProducts)

		sessions := v1.Group("/sessions")
		sessions.POST("", s.openSession)
		sessions.GET(":id", s.getSession)
		sessions.DELETE(":id", s.discardSession)
		sessions.PUT(":id/table", s.setTable)
		sessions.PUT(":id/customer", s.setCustomer)
		sessions.PUT(":id/notes", s.setNotes)
		sessions.PUT(":id/type", s.setOrderType)
		sessions.PUT(":id/status", s.setDraftStatus)
		sessions.POST(":id/items", s.addItem)
		sessions.PATCH(":id/items/:index", s.updateItem)
		sessions.PUT(":id/items/:index/quantity", s.updateQuantity)
		sessions.PUT(":id/items/:index/price", s.repriceItem)
		sessions.DELETE(":id/items/:index", s.removeItem)
		sessions.POST(":id/clear", s.clearSession)
		sessions.POST(":id/submit", s.submitSession)

		orders := v1.Group("/orders")
		orders.GET("", s.listOrders)
		orders.GET(":id", s.getOrder)
		orders.PUT(":id/status", s.updateOrderStatus)
		orders.POST(":id/cancel", s.cancelOrder)
	}
}

type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// @Summary Healthcheck
// @Tags ops
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} healthResponse
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "healthy", Services: map[string]string{}}
	code := http.StatusOK
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			s.log.Warnw("health check failed", "service", name, "error", err)
			resp.Services[name] = "error"
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Services[name] = "ok"
	}
	c.JSON(code, resp)
}

// Product handlers
type createProductReq struct {
	Name      string            `json:"name"`
	SKU       string            `json:"sku"`
	Price     domain.Money      `json:"price"`
	Modifiers []domain.Modifier `json:"modifiers"`
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param input body createProductReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req createProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.products.Create(c, domain.Product{Name: req.Name, SKU: req.SKU, Price: req.Price, Modifiers: req.Modifiers})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.products.GetByID(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateProductReq struct {
	Name      string            `json:"name"`
	SKU       string            `json:"sku"`
	Price     domain.Money      `json:"price"`
	Modifiers []domain.Modifier `json:"modifiers"`
}

// @Summary Update product
// @Description Lines already in a draft keep the price they were added with.
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param input body updateProductReq true "Update"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.products.Update(c, domain.Product{ID: id, Name: req.Name, SKU: req.SKU, Price: req.Price, Modifiers: req.Modifiers})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Param id path int true "Product ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.products.Delete(c, id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List products
// @Tags products
// @Produce json
// @Param q query string false "Name contains"
// @Param min_price query int false "Min price, minor units"
// @Param max_price query int false "Max price, minor units"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	var f repository.ProductFilter
	if q := c.Query("q"); q != "" {
		f.NameSubstring = q
	}
	if v := c.Query("min_price"); v != "" {
		if x, err := strconv.ParseInt(v, 10, 64); err == nil {
			m := domain.Money(x)
			f.MinPrice = &m
		}
	}
	if v := c.Query("max_price"); v != "" {
		if x, err := strconv.ParseInt(v, 10, 64); err == nil {
			m := domain.Money(x)
			f.MaxPrice = &m
		}
	}
	list, err := s.products.List(c, f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Order handlers

// @Summary List submitted orders
// @Tags orders
// @Produce json
// @Param status query string false "Status"
// @Param table_id query string false "Table"
// @Success 200 {array} domain.Order
// @Failure 400 {object} map[string]string
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	f := repository.OrderFilter{
		Status:  domain.OrderStatus(c.Query("status")),
		TableID: c.Query("table_id"),
	}
	list, err := s.orders.ListOrders(c, f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.GetOrder(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type statusReq struct {
	Status domain.OrderStatus `json:"status"`
}

// @Summary Advance order status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param input body statusReq true "Next status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/status [put]
func (s *Server) updateOrderStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.UpdateStatus(c, id, req.Status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.CancelOrder(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Errorw("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	var (
		verr *pos.ValidationError
		terr *pos.IllegalTransitionError
	)
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrEmptyOrder), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState), errors.As(err, &terr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
