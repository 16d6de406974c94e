package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"restopos/internal/domain"
	"restopos/internal/pos"
	"restopos/internal/service"
)

// sessionResp черновик вместе с id кассовой сессии
type sessionResp struct {
	SessionID string       `json:"session_id"`
	Order     domain.Order `json:"order"`
}

// @Summary Open POS session
// @Description Starts an empty DRAFT order.
// @Tags sessions
// @Produce json
// @Success 201 {object} sessionResp
// @Router /sessions [post]
func (s *Server) openSession(c *gin.Context) {
	id, o, err := s.sessions.Open(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResp{SessionID: id, Order: o})
}

// @Summary Get draft
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} sessionResp
// @Failure 404 {object} map[string]string
// @Router /sessions/{id} [get]
func (s *Server) getSession(c *gin.Context) {
	id := c.Param("id")
	o, err := s.sessions.Snapshot(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResp{SessionID: id, Order: o})
}

// @Summary Discard draft
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /sessions/{id} [delete]
func (s *Server) discardSession(c *gin.Context) {
	if err := s.sessions.Discard(c, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// dispatch общий путь для всех команд черновика
func (s *Server) dispatch(c *gin.Context, cmd pos.Command) {
	id := c.Param("id")
	o, err := s.sessions.Dispatch(c, id, cmd)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResp{SessionID: id, Order: o})
}

type tableReq struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// @Summary Assign table
// @Description Empty id unassigns the table.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param input body tableReq true "Table"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/table [put]
func (s *Server) setTable(c *gin.Context) {
	var req tableReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.dispatch(c, pos.SetTable{ID: req.ID, TableName: req.Name})
}

type customerReq struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// @Summary Set customer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param input body customerReq true "Customer"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/customer [put]
func (s *Server) setCustomer(c *gin.Context) {
	var req customerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.dispatch(c, pos.SetCustomer{CustomerName: req.Name, Phone: req.Phone})
}

type notesReq struct {
	Notes string `json:"notes"`
}

// @Summary Set order notes
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param input body notesReq true "Notes"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/notes [put]
func (s *Server) setNotes(c *gin.Context) {
	var req notesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.dispatch(c, pos.SetNotes{Text: req.Notes})
}

type orderTypeReq struct {
	Type domain.OrderType `json:"type"`
}

// @Summary Set order type
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param input body orderTypeReq true "dine_in, takeaway or delivery"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/type [put]
func (s *Server) setOrderType(c *gin.Context) {
	var req orderTypeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.dispatch(c, pos.SetOrderType{Type: req.Type})
}

// @Summary Set draft status
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param input body statusReq true "Status"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /sessions/{id}/status [put]
func (s *Server) setDraftStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.dispatch(c, pos.SetStatus{Status: req.Status})
}

type addItemReq struct {
	ProductID   int64    `json:"product_id"`
	Quantity    int      `json:"quantity"`
	ModifierIDs []string `json:"modifier_ids"`
	Notes       string   `json:"notes"`
}

// @Summary Add catalog product as a new line
// @Description Quantity 0 or omitted means 1. Price and modifiers are copied from the catalog.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param input body addItemReq true "Line"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/items [post]
func (s *Server) addItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	id := c.Param("id")
	o, err := s.sessions.AddProduct(c, id, service.AddProductInput{
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		ModifierIDs: req.ModifierIDs,
		Notes:       req.Notes,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResp{SessionID: id, Order: o})
}

type updateItemReq struct {
	ProductName *string       `json:"product_name"`
	Quantity    *int          `json:"quantity"`
	UnitPrice   *domain.Money `json:"unit_price"`
	Notes       *string       `json:"notes"`
}

// @Summary Patch a line
// @Description Omitted fields are kept; total price is re-derived.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Line index"
// @Param input body updateItemReq true "Patch"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/items/{index} [patch]
func (s *Server) updateItem(c *gin.Context) {
	idx, ok := parseIndex(c)
	if !ok {
		return
	}
	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.dispatch(c, pos.UpdateItem{Index: idx, Patch: pos.ItemPatch{
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Notes:       req.Notes,
	}})
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

// @Summary Set line quantity
// @Description Quantity 0 or less removes the line.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Line index"
// @Param input body quantityReq true "Quantity"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/items/{index}/quantity [put]
func (s *Server) updateQuantity(c *gin.Context) {
	idx, ok := parseIndex(c)
	if !ok {
		return
	}
	var req quantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.dispatch(c, pos.UpdateQuantity{Index: idx, Quantity: req.Quantity})
}

type priceReq struct {
	UnitPrice domain.Money `json:"unit_price"`
}

// @Summary Override line unit price
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Line index"
// @Param input body priceReq true "Unit price, minor units"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/items/{index}/price [put]
func (s *Server) repriceItem(c *gin.Context) {
	idx, ok := parseIndex(c)
	if !ok {
		return
	}
	var req priceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.dispatch(c, pos.RepriceItem{Index: idx, UnitPrice: req.UnitPrice})
}

// @Summary Remove line
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Line index"
// @Success 200 {object} sessionResp
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/items/{index} [delete]
func (s *Server) removeItem(c *gin.Context) {
	idx, ok := parseIndex(c)
	if !ok {
		return
	}
	s.dispatch(c, pos.RemoveItem{Index: idx})
}

// @Summary Reset draft
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} sessionResp
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/clear [post]
func (s *Server) clearSession(c *gin.Context) {
	s.dispatch(c, pos.Clear{})
}

// @Summary Submit draft to the kitchen
// @Description Stores the order as ORDERED and closes the session.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /sessions/{id}/submit [post]
func (s *Server) submitSession(c *gin.Context) {
	o, err := s.orders.Submit(c, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func parseIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return 0, false
	}
	return idx, true
}
