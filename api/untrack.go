// Copyright (c) 2025 BVK Chaitanya

package api

const UntrackPath = "/ledgerwatch/untrack"

type UntrackRequest struct {
	AccountID string `json:"accountId"`
}

type UntrackResponse struct {
	AccountID string `json:"accountId"`
	Message   string `json:"message"`
}
