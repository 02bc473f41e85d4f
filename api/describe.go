// Copyright (c) 2025 BVK Chaitanya

package api

const DescribePath = "/ledgerwatch/describe"

type DescribeRequest struct {
	AccountID string `json:"accountId"`
}

type DescribeResponse struct {
	Entity  *Entity   `json:"entity"`
	History []*Change `json:"history"`
}
