package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"organico/internal/checkout"
	"organico/internal/domain"
	"organico/internal/repository"
	"organico/internal/service"
	"organico/internal/storefront"
)

// заголовок с предупреждением, когда список отдан из запасного источника
const warningHeader = "X-Storage-Warning"

type Server struct {
	engine   *gin.Engine
	hub      *storefront.Hub
	products *service.ProductService
	orders   *service.OrderService
	tokens   *ClientTokens
	log      *slog.Logger
}

func NewServer(hub *storefront.Hub, products *service.ProductService, orders *service.OrderService, tokens *ClientTokens, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s := &Server{engine: r, hub: hub, products: products, orders: orders, tokens: tokens, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	v1.POST("/clients", s.createClient)

	authed := v1.Group("", s.clientAuth())
	{
		authed.GET("/products", s.listProducts)
		authed.GET("/products/:id", s.getProduct)

		authed.POST("/users", s.register)
		authed.POST("/session", s.login)
		authed.GET("/session", s.currentSession)
		authed.DELETE("/session", s.logout)

		authed.GET("/view", s.getView)
		authed.PUT("/view", s.navigate)

		authed.GET("/cart", s.getCart)
		authed.POST("/cart/items", s.addToCart)
		authed.DELETE("/cart/items/:id", s.removeFromCart)
		authed.DELETE("/cart", s.clearCart)
		authed.POST("/cart/recipe", s.suggestRecipe)

		authed.POST("/checkout", s.startCheckout)
		authed.GET("/checkout", s.getCheckout)
		authed.POST("/checkout/pay", s.pay)
		authed.POST("/checkout/back", s.back)
		authed.POST("/checkout/cancel", s.cancelCheckout)
		authed.POST("/checkout/confirm", s.confirmCheckout)
		authed.POST("/checkout/finish", s.finishCheckout)

		authed.GET("/orders", s.listOrders)
		authed.POST("/admin", s.openAdmin)
	}

	admin := authed.Group("", s.adminOnly())
	{
		admin.POST("/products", s.createProduct)
		admin.PUT("/products/:id", s.updateProduct)
		admin.DELETE("/products/:id", s.deleteProduct)
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
}

func setWarning(c *gin.Context, out repository.Outcome) {
	if !out.OK() {
		c.Header(warningHeader, "storage unavailable, showing fallback data")
	}
}

// Client handlers

type clientResp struct {
	ClientID string `json:"client_id"`
	Token    string `json:"token"`
}

// @Summary Register client
// @Description Выдаёт токен клиента; с ним связаны сессия, корзина и оформление
// @Tags clients
// @Produce json
// @Success 201 {object} clientResp
// @Router /clients [post]
func (s *Server) createClient(c *gin.Context) {
	id, token, err := s.tokens.Issue()
	if err != nil {
		respondError(c, err)
		return
	}
	s.log.InfoContext(c, "client registered", slog.String("client", string(id)))
	c.JSON(http.StatusCreated, clientResp{ClientID: string(id), Token: token})
}

// Product handlers

type productReq struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Price       *decimal.Decimal `json:"price" binding:"required" swaggertype:"number"`
	Unit        string           `json:"unit" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	ImageURL    string           `json:"imageUrl"`
	Stock       *int64           `json:"stock" binding:"required"`
}

func (r productReq) product(id string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Price:       *r.Price,
		Unit:        r.Unit,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		Stock:       *r.Stock,
	}
}

// @Summary List products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name contains"
// @Param category query string false "Category"
// @Param min_price query number false "Min price"
// @Param max_price query number false "Max price"
// @Success 200 {array} domain.Product
// @Failure 400 {object} map[string]string
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	f := repository.ProductFilter{
		NameSubstring: c.Query("q"),
		Category:      c.Query("category"),
	}
	var err error
	if f.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		badRequest(c, err)
		return
	}
	if f.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		badRequest(c, err)
		return
	}
	list, out := s.products.List(c, f)
	setWarning(c, out)
	c.JSON(http.StatusOK, list)
}

// queryDecimal nil, если параметр не задан
func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	x, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &x, nil
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.products.GetByID(c, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body productReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.products.Save(c, req.product(""))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Description Заменяет товар с этим id; если его нет, добавляет
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body productReq true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.products.Save(c, req.product(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.products.Delete(c, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session handlers

type registerReq struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary Register user
// @Description Создаёт покупателя и сразу открывает сессию
// @Tags session
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body registerReq true "User"
// @Success 201 {object} domain.User
// @Failure 400 {object} map[string]string
// @Router /users [post]
func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := s.workspace(c).Register(c, req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// @Summary Log in
// @Tags session
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body loginReq true "Credentials"
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Router /session [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := s.workspace(c).Login(c, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Current session
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Router /session [get]
func (s *Server) currentSession(c *gin.Context) {
	u := s.workspace(c).Session(c)
	if u == nil {
		respondError(c, checkout.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Log out
// @Description Закрывает сессию и очищает корзину
// @Tags session
// @Security BearerAuth
// @Success 204
// @Router /session [delete]
func (s *Server) logout(c *gin.Context) {
	if err := s.workspace(c).Logout(c); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// View handlers

type viewReq struct {
	View string `json:"view" binding:"required"`
}

// @Summary Current view state
// @Tags view
// @Produce json
// @Security BearerAuth
// @Success 200 {object} storefront.Snapshot
// @Router /view [get]
func (s *Server) getView(c *gin.Context) {
	c.JSON(http.StatusOK, s.workspace(c).Snapshot(c))
}

// @Summary Navigate
// @Tags view
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body viewReq true "Target view"
// @Success 200 {object} storefront.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /view [put]
func (s *Server) navigate(c *gin.Context) {
	var req viewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, err := storefront.ParseView(req.View)
	if err != nil {
		respondError(c, err)
		return
	}
	ws := s.workspace(c)
	if err := ws.Navigate(c, v); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws.Snapshot(c))
}

// @Summary Open admin panel
// @Tags view
// @Produce json
// @Security BearerAuth
// @Success 200 {object} storefront.Snapshot
// @Failure 403 {object} map[string]string
// @Router /admin [post]
func (s *Server) openAdmin(c *gin.Context) {
	ws := s.workspace(c)
	if err := ws.Navigate(c, storefront.ViewAdminProducts); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws.Snapshot(c))
}

// Cart handlers

type addToCartReq struct {
	ProductID string `json:"product_id" binding:"required"`
}

type cartResp struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total" swaggertype:"number"`
	Count int64             `json:"count"`
	Open  bool              `json:"open"`
}

func cartOf(snap storefront.Snapshot) cartResp {
	return cartResp{Items: snap.Cart, Total: snap.CartTotal, Count: snap.CartCount, Open: snap.CartOpen}
}

// @Summary Get cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} cartResp
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartOf(s.workspace(c).Snapshot(c)))
}

// @Summary Add product to cart
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addToCartReq true "Product"
// @Success 200 {object} cartResp
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /cart/items [post]
func (s *Server) addToCart(c *gin.Context) {
	var req addToCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ws := s.workspace(c)
	if _, err := ws.AddToCart(c, req.ProductID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartOf(ws.Snapshot(c)))
}

// @Summary Remove product from cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} cartResp
// @Failure 409 {object} map[string]string
// @Router /cart/items/{id} [delete]
func (s *Server) removeFromCart(c *gin.Context) {
	ws := s.workspace(c)
	if err := ws.RemoveFromCart(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartOf(ws.Snapshot(c)))
}

// @Summary Clear cart
// @Tags cart
// @Security BearerAuth
// @Success 204
// @Failure 409 {object} map[string]string
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	if err := s.workspace(c).ClearCart(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Suggest recipe from cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Recipe
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /cart/recipe [post]
func (s *Server) suggestRecipe(c *gin.Context) {
	r, err := s.workspace(c).SuggestRecipe(c.Request.Context())
	if err != nil {
		if errors.Is(err, storefront.ErrRecipeUnavailable) {
			s.log.WarnContext(c, "recipe suggestion failed", slog.Any("error", err))
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Checkout handlers

// @Summary Start checkout
// @Description Открывает оформление по текущей корзине или возвращает незавершённое
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} checkout.Summary
// @Failure 409 {object} map[string]string
// @Router /checkout [post]
func (s *Server) startCheckout(c *gin.Context) {
	sum, err := s.workspace(c).StartCheckout()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary Checkout state
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} checkout.Summary
// @Failure 404 {object} map[string]string
// @Router /checkout [get]
func (s *Server) getCheckout(c *gin.Context) {
	sum, err := s.workspace(c).CheckoutSummary()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary Proceed to payment
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} checkout.Summary
// @Failure 409 {object} map[string]string
// @Router /checkout/pay [post]
func (s *Server) pay(c *gin.Context) {
	sum, err := s.workspace(c).Pay()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary Back to review
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} checkout.Summary
// @Failure 409 {object} map[string]string
// @Router /checkout/back [post]
func (s *Server) back(c *gin.Context) {
	sum, err := s.workspace(c).Back()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary Cancel checkout
// @Tags checkout
// @Security BearerAuth
// @Success 204
// @Failure 409 {object} map[string]string
// @Router /checkout/cancel [post]
func (s *Server) cancelCheckout(c *gin.Context) {
	if err := s.workspace(c).CancelCheckout(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type confirmResp struct {
	Order   domain.Order `json:"order"`
	Warning string       `json:"warning,omitempty"`
}

// @Summary Confirm payment
// @Description Без сессии возвращает 401 и переключает клиента на экран входа
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} confirmResp
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /checkout/confirm [post]
func (s *Server) confirmCheckout(c *gin.Context) {
	r, err := s.workspace(c).ConfirmCheckout(c)
	if errors.Is(err, checkout.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "view": storefront.ViewLogin})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	resp := confirmResp{Order: r.Order}
	if r.PersistErr != nil {
		resp.Warning = "order confirmed but could not be saved"
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Finish checkout
// @Tags checkout
// @Security BearerAuth
// @Success 204
// @Failure 409 {object} map[string]string
// @Router /checkout/finish [post]
func (s *Server) finishCheckout(c *gin.Context) {
	if err := s.workspace(c).FinishCheckout(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Order handlers

// @Summary List orders
// @Description Покупатель видит свои заказы, администратор все
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Failure 401 {object} map[string]string
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	u := s.workspace(c).Session(c)
	if u == nil {
		respondError(c, checkout.ErrUnauthenticated)
		return
	}
	var (
		list []domain.Order
		out  repository.Outcome
	)
	if u.IsAdmin() {
		list, out = s.orders.List(c)
	} else {
		list, out = s.orders.ListForUser(c, u.ID)
	}
	setWarning(c, out)
	if list == nil {
		list = []domain.Order{}
	}
	c.JSON(http.StatusOK, list)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, storefront.ErrUnknownView):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, checkout.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, storefront.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, storefront.ErrNoCheckout):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrInvalidTransition), errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, storefront.ErrOutOfStock):
		return http.StatusConflict
	case errors.Is(err, storefront.ErrRecipeUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
