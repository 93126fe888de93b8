// Package handler is the HTTP ingestion surface of the matcher. It owns
// request validation: only well-formed searches from known users are ever
// published to the request stream.
package handler

import (
	"linguamatch/backend/internal/matchhub"
	"linguamatch/backend/internal/storage"
)

type Handler struct {
	Storage   storage.Storage
	Publisher matchhub.Publisher
	JWTSecret []byte
}

func NewHandler(s storage.Storage, pub matchhub.Publisher, jwtSecret string) *Handler {
	return &Handler{
		Storage:   s,
		Publisher: pub,
		JWTSecret: []byte(jwtSecret),
	}
}
