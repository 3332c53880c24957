package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// CheckObjectRequest represents the stored-document check request body.
type CheckObjectRequest struct {
	Bucket string   `json:"bucket" example:"contracts"`
	Key    string   `json:"key" example:"2024/msa-acme.pdf"`
	Rules  []string `json:"rules" example:"Document must mention who is responsible."`
}

// RuleResultBody documents one element of a check response.
type RuleResultBody struct {
	Rule       string `json:"rule" example:"The document must have a purpose section."`
	Status     string `json:"status" enums:"pass,fail" example:"pass"`
	Evidence   string `json:"evidence" example:"Section 1: Purpose of this agreement"`
	Reasoning  string `json:"reasoning" example:"Section 1 states the purpose explicitly."`
	Confidence int    `json:"confidence" minimum:"0" maximum:"100" example:"92"`
}
