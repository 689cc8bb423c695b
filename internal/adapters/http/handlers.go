package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crmmini/core/internal/domain/entities"
	"github.com/crmmini/core/internal/infrastructure/logger"
	"github.com/crmmini/core/internal/ports"
)

// Banner is the body of the liveness endpoint
const Banner = "CRM Mini API is running!"

// Response messages
const (
	MessageCustomerDeleted  = "Customer deleted!"
	MessageCustomerNotFound = "Customer not found!"
)

// CustomerHandler handles customer-related requests
type CustomerHandler struct {
	customerService ports.CustomerService
	logger          *logger.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService ports.CustomerService, logger *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// Register mounts the customer routes on g.
func (h *CustomerHandler) Register(g *echo.Group) {
	g.GET("", h.ListCustomers)
	g.POST("", h.CreateCustomer)
	g.GET("/:id", h.GetCustomer)
	g.PUT("/:id", h.UpdateCustomer)
	g.DELETE("/:id", h.DeleteCustomer)
}

// Root godoc
// @Summary Liveness banner
// @Tags health
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func Root(c echo.Context) error {
	return c.String(http.StatusOK, Banner)
}

// ListCustomers godoc
// @Summary List customers
// @Description Return every customer record in insertion order
// @Tags customers
// @Produce json
// @Success 200 {array} object
// @Failure 500 {object} MessageResponse
// @Router /customers [get]
func (h *CustomerHandler) ListCustomers(c echo.Context) error {
	customers, err := h.customerService.ListCustomers(c.Request().Context())
	if err != nil {
		return h.storeError(c, "List customers failed", err)
	}

	return c.JSON(http.StatusOK, customers)
}

// GetCustomer godoc
// @Summary Get customer by ID
// @Tags customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} object
// @Failure 400 {object} MessageResponse
// @Failure 404 {object} MessageResponse
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	id, err := customerID(c)
	if err != nil {
		return err
	}

	customer, err := h.customerService.GetCustomer(c.Request().Context(), id)
	if errors.Is(err, entities.ErrCustomerNotFound) {
		return c.JSON(http.StatusNotFound, MessageResponse{Message: MessageCustomerNotFound})
	}
	if err != nil {
		return h.storeError(c, "Get customer failed", err)
	}

	return c.JSON(http.StatusOK, customer)
}

// CreateCustomer godoc
// @Summary Create a customer
// @Description Store the request body as a new record with a generated id
// @Tags customers
// @Accept json
// @Produce json
// @Param request body object true "Customer fields"
// @Success 201 {object} object
// @Failure 400 {object} MessageResponse
// @Router /customers [post]
func (h *CustomerHandler) CreateCustomer(c echo.Context) error {
	body, err := bindObject(c)
	if err != nil {
		return err
	}

	customer, err := h.customerService.CreateCustomer(c.Request().Context(), body)
	if err != nil {
		return h.storeError(c, "Create customer failed", err)
	}

	return c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer godoc
// @Summary Update a customer
// @Description Shallow-merge the request body over an existing record
// @Tags customers
// @Accept json
// @Produce json
// @Param id path int true "Customer ID"
// @Param request body object true "Fields to overwrite"
// @Success 200 {object} object
// @Failure 400 {object} MessageResponse
// @Failure 404 {object} MessageResponse
// @Router /customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c echo.Context) error {
	id, err := customerID(c)
	if err != nil {
		return err
	}

	body, err := bindObject(c)
	if err != nil {
		return err
	}

	customer, err := h.customerService.UpdateCustomer(c.Request().Context(), id, body)
	if errors.Is(err, entities.ErrCustomerNotFound) {
		return c.JSON(http.StatusNotFound, MessageResponse{Message: MessageCustomerNotFound})
	}
	if err != nil {
		return h.storeError(c, "Update customer failed", err)
	}

	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer godoc
// @Summary Delete a customer
// @Description Remove every record with the id; succeeds even if none matched
// @Tags customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Router /customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c echo.Context) error {
	id, err := customerID(c)
	if err != nil {
		return err
	}

	if err := h.customerService.DeleteCustomer(c.Request().Context(), id); err != nil {
		return h.storeError(c, "Delete customer failed", err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: MessageCustomerDeleted})
}

func (h *CustomerHandler) storeError(c echo.Context, msg string, err error) error {
	h.logger.Errorw(msg, "error", err, "path", c.Request().URL.Path)
	if errors.Is(err, entities.ErrCorruptStore) {
		return echo.NewHTTPError(http.StatusInternalServerError, entities.ErrCorruptStore.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
}

func customerID(c echo.Context) (int64, error) {
	id, err := entities.ParseID(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return id, nil
}

// bindObject decodes the request body as a JSON object. An empty body is an
// empty object. Numbers are kept as json.Number.
func bindObject(c echo.Context) (map[string]interface{}, error) {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidBody.Error()).SetInternal(err)
	}
	if dec.More() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidBody.Error()).
			SetInternal(fmt.Errorf("trailing data after object"))
	}
	if body == nil {
		body = map[string]interface{}{}
	}
	return body, nil
}

// Request/Response types

type MessageResponse struct {
	Message string `json:"message"`
}
