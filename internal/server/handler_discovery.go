package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "PetMS API",
		Version:     "v1",
		Description: "PetMS pet-owner registry: session-authenticated owner management and live events",
		Endpoints: []endpointInfo{
			{"/api/v1/owners", []string{"GET", "POST"}, "Owner record management. GET accepts ?limit=&offset=&search="},
			{"/api/v1/owners/{id}", []string{"GET", "PUT", "DELETE"}, "Single Owner operations"},
			{"/api/v1/users", []string{"GET"}, "List login accounts (admin only)"},
			{"/api/v1/events", []string{"GET"}, "SSE stream of live events for the calling session"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
