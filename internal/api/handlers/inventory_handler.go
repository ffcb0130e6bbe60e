package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) parseFilter(c *gin.Context) (domain.InventoryFilter, error) {
	filter := domain.InventoryFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}

	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}

	if date := strings.TrimSpace(c.Query("snapshot_date")); date != "" {
		filter.SnapshotDate = date
	}

	// Accept both ?sku=A&sku=B and ?skus=A,B
	raw := c.QueryArray("sku")
	if single := strings.TrimSpace(c.Query("skus")); single != "" {
		raw = append(raw, strings.Split(single, ",")...)
	}
	seen := make(map[string]struct{})
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		filter.SKUs = append(filter.SKUs, v)
	}

	if warehouse := strings.TrimSpace(c.Query("warehouse")); warehouse != "" {
		w, ok := domain.ParseWarehouseID(warehouse)
		if !ok {
			return filter, errors.New("unknown warehouse: " + warehouse)
		}
		filter.Warehouse = string(w)
	}

	if state := strings.TrimSpace(c.Query("state")); state != "" {
		s, ok := domain.ParseStockState(state)
		if !ok {
			return filter, errors.New("unknown state: " + state)
		}
		filter.State = string(s)
	}

	filter.Collection = strings.TrimSpace(c.Query("collection"))

	return filter, nil
}

func (h *InventoryHandler) GetDashboard(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.service.GetDashboard(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to fetch dashboard", err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *InventoryHandler) GetItems(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.service.GetItems(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to fetch items", err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *InventoryHandler) GetTimeSeries(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "31"))
	if days <= 0 {
		days = 31
	}

	totals, err := h.service.GetDailyTotals(c.Request.Context(), days)
	if err != nil {
		respondError(c, "failed to fetch time series", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"daily_totals": totals})
}

func (h *InventoryHandler) GetAvailableDates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if limit <= 0 {
		limit = 30
	}

	dates, err := h.service.GetAvailableDates(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "failed to fetch available dates", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// GetStates returns the stock states with their display labels.
func (h *InventoryHandler) GetStates(c *gin.Context) {
	states := domain.StockStates()
	out := make([]domain.StateSummary, 0, len(states))
	for _, s := range states {
		out = append(out, domain.StateSummary{State: string(s), Label: domain.StockStateLabel(s)})
	}
	c.JSON(http.StatusOK, gin.H{"states": out})
}

func respondError(c *gin.Context, message string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no published inventory"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}
