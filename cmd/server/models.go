package main

import "github.com/liamcoop/formulas/generation"

// API Request and Response Models

// GenerateFormulaRequest represents the request body for formula generation
type GenerateFormulaRequest struct {
	Prompt  string         `json:"prompt" example:"Calculate monthly deferred payment" binding:"required"`
	Context map[string]any `json:"context,omitempty"`
} // @name GenerateFormulaRequest

func (r GenerateFormulaRequest) toGeneration() generation.Request {
	return generation.Request{Prompt: r.Prompt, Context: r.Context}
}

// GenerateFormulaResponse is the generation result as returned to callers
type GenerateFormulaResponse struct {
	Formula     string  `json:"formula" example:"totalAmount / term"`
	Explanation string  `json:"explanation" example:"Generated formula for: 'Calculate monthly deferred payment'"`
	IsValid     bool    `json:"isValid" example:"true"`
	Error       *string `json:"error"`
} // @name GenerateFormulaResponse

func newGenerateFormulaResponse(res generation.Result) GenerateFormulaResponse {
	return GenerateFormulaResponse{
		Formula:     res.Formula,
		Explanation: res.Explanation,
		IsValid:     res.IsValid,
		Error:       res.Error,
	}
}

// ServiceResponse describes the running service
type ServiceResponse struct {
	Service       string  `json:"service" example:"Formula Generation Service"`
	Status        string  `json:"status" example:"running"`
	LLMConfigured bool    `json:"llm_configured" example:"true"`
	Model         *string `json:"model" example:"gpt-4o-mini"`
} // @name ServiceResponse

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string  `json:"status" example:"healthy"`
	LLMConfigured bool    `json:"llm_configured" example:"true"`
	Model         *string `json:"model" example:"gpt-4o-mini"`
} // @name HealthResponse

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Prompt cannot be empty"`
	Details string `json:"details,omitempty"`
} // @name ErrorResponse
