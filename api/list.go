// Copyright (c) 2025 BVK Chaitanya

package api

const ListPath = "/ledgerwatch/list"

type ListRequest struct {
}

type ListResponse struct {
	Count    int       `json:"count"`
	Entities []*Entity `json:"entities"`
}
