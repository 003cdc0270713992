package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

type ClientController struct {
	clientService services.ClientService
}

func NewClientController(clientService services.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

// CreateClient godoc
// @Summary Create OAuth2 client
// @Description Register a client that may exchange user credentials for tokens at the token endpoint
// @Tags OAuth2 Clients
// @Accept json
// @Produce json
// @Param client body object{name=string,domain=string} true "Client details"
// @Success 201 {object} services.ClientCreated "Client created with client_id and client_secret"
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/auth/clients/ [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required,max=128"`
		Domain string `json:"domain" binding:"omitempty,url"`
	}
	if !bindJSON(c, &req, "Invalid client") {
		return
	}

	client, err := cc.clientService.CreateClient(c.Request.Context(), viewerFrom(c), req.Name, req.Domain)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// ListClients godoc
// @Summary List OAuth2 clients
// @Description Get the OAuth2 clients registered by the authenticated user
// @Tags OAuth2 Clients
// @Produce json
// @Success 200 {array} services.ClientRead
// @Security BearerAuth
// @Router /api/auth/clients/ [get]
func (cc *ClientController) ListClients(c *gin.Context) {
	clients, err := cc.clientService.ListClients(c.Request.Context(), viewerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

// DeleteClient godoc
// @Summary Delete OAuth2 client
// @Description Delete a client and revoke the tokens issued to it
// @Tags OAuth2 Clients
// @Param id path string true "Client ID"
// @Success 204 "Client deleted successfully"
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/auth/clients/{id}/ [delete]
func (cc *ClientController) DeleteClient(c *gin.Context) {
	if err := cc.clientService.DeleteClient(c.Request.Context(), viewerFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
