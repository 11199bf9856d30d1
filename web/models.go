package web

import (
	"gamenight-bot/api/api"
)

// Config holds the configuration for the web server
type Config struct {
	Addr string
	API  *api.API
}

// Server is the HTTP server that exposes the coordinator's read-only state
type Server struct {
	api *api.API
}
